package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jmerrifield20/hashledger/internal/auth"
	"github.com/jmerrifield20/hashledger/internal/ledger"
	"github.com/jmerrifield20/hashledger/internal/service"
)

// LedgerService is the subset of *service.LedgerService the handlers use.
type LedgerService interface {
	Stage(payload string) ledger.Record
	Seal(ctx context.Context) (ledger.Block, error)
	Verify() error
	Enumerate() []ledger.Block
	Get(index int) (ledger.Block, error)
	Staged() []ledger.Record
	Overview() service.Overview
	Subscribe() (<-chan ledger.Block, func())
}

// LedgerHandler exposes the ledger over HTTP.
type LedgerHandler struct {
	svc    LedgerService
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewLedgerHandler creates a LedgerHandler. A nil tokens disables auth on
// the write endpoints.
func NewLedgerHandler(svc LedgerService, tokens *auth.TokenIssuer, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register mounts the ledger routes on the given router group.
func (h *LedgerHandler) Register(rg *gin.RouterGroup) {
	write := auth.RequireScope(h.tokens, auth.ScopeWrite)

	l := rg.Group("/ledger")
	{
		l.GET("", h.Overview)
		l.GET("/verify", h.Verify)
		l.GET("/blocks", h.ListBlocks)
		l.GET("/blocks/:idx", h.GetBlock)
		l.GET("/staged", h.ListStaged)
		l.GET("/stream", h.Stream)
		l.POST("/records", write, h.StageRecord)
		l.POST("/blocks", write, h.SealBlock)
	}
}

// Overview handles GET /ledger.
func (h *LedgerHandler) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Overview())
}

// Verify handles GET /ledger/verify. It always answers 200; integrity is
// reported in the body.
func (h *LedgerHandler) Verify(c *gin.Context) {
	if err := h.svc.Verify(); err != nil {
		h.logger.Warn("ledger integrity check failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ListBlocks handles GET /ledger/blocks.
func (h *LedgerHandler) ListBlocks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blocks": h.svc.Enumerate()})
}

// GetBlock handles GET /ledger/blocks/:idx.
func (h *LedgerHandler) GetBlock(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a non-negative integer"})
		return
	}

	b, err := h.svc.Get(idx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListStaged handles GET /ledger/staged.
func (h *LedgerHandler) ListStaged(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"records": h.svc.Staged()})
}

type stageRequest struct {
	Payload *string `json:"payload"`
}

// StageRecord handles POST /ledger/records.
func (h *LedgerHandler) StageRecord(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is required"})
		return
	}

	RecordStage()
	c.JSON(http.StatusCreated, h.svc.Stage(*req.Payload))
}

// SealBlock handles POST /ledger/blocks.
func (h *LedgerHandler) SealBlock(c *gin.Context) {
	b, err := h.svc.Seal(c.Request.Context())
	switch {
	case errors.Is(err, ledger.ErrEmptyChain):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to seal block"})
	default:
		c.JSON(http.StatusCreated, b)
	}
}
