package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jmerrifield20/hashledger/internal/auth"
	"github.com/jmerrifield20/hashledger/internal/handler"
	"github.com/jmerrifield20/hashledger/internal/service"
	"github.com/jmerrifield20/hashledger/internal/store"
	"github.com/jmerrifield20/hashledger/pkg/client"
)

var ctx = context.Background()

// ── Stub server ─────────────────────────────────────────────────────────

func stubLedgerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/ledger/blocks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "genesis block not found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"blocks": []any{}})
	})

	mux.HandleFunc("/api/v1/ledger/blocks/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "block not found"})
	})

	mux.HandleFunc("/api/v1/ledger/records", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "bearer token required"})
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"payload": req["payload"], "staged_at": time.Now().UTC()})
	})

	mux.HandleFunc("/api/v1/ledger/verify", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	return httptest.NewServer(mux)
}

func TestNew_requiresBaseURL(t *testing.T) {
	if _, err := client.New(""); err == nil {
		t.Error("expected error for empty base URL")
	}
	if _, err := client.New("http://x", client.WithTimeout(0)); err == nil {
		t.Error("expected error for zero timeout")
	}
}

func TestSeal_conflictIsErrEmptyChain(t *testing.T) {
	srv := stubLedgerServer(t)
	defer srv.Close()

	c, _ := client.New(srv.URL)
	if _, err := c.Seal(ctx); !errors.Is(err, client.ErrEmptyChain) {
		t.Errorf("expected ErrEmptyChain, got %v", err)
	}
}

func TestBlock_notFound(t *testing.T) {
	srv := stubLedgerServer(t)
	defer srv.Close()

	c, _ := client.New(srv.URL)
	if _, err := c.Block(ctx, 7); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStage_sendsBearerToken(t *testing.T) {
	srv := stubLedgerServer(t)
	defer srv.Close()

	anon, _ := client.New(srv.URL)
	_, err := anon.Stage(ctx, "x")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if apiErr.Message != "bearer token required" {
		t.Errorf("message: got %q", apiErr.Message)
	}

	authed, _ := client.New(srv.URL+"/", client.WithBearerToken("good"))
	rec, err := authed.Stage(ctx, "pay Alice 10")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Payload != "pay Alice 10" {
		t.Errorf("payload: got %q", rec.Payload)
	}
}

func TestVerify_badJSON(t *testing.T) {
	srv := stubLedgerServer(t)
	defer srv.Close()

	c, _ := client.New(srv.URL)
	if _, err := c.Verify(ctx); err == nil {
		t.Error("expected decode error")
	}
}

// ── Against the real API ────────────────────────────────────────────────

func realServer(t *testing.T, tokens *auth.TokenIssuer) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, err := service.Open(ctx, store.NewMemory(), nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	handler.NewLedgerHandler(svc, tokens, zap.NewNop()).Register(r.Group("/api/v1"))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_roundTrip(t *testing.T) {
	tokens := auth.NewTokenIssuer("s3cret", "hashledger", time.Hour)
	token, _ := tokens.Issue("sdk-test", []string{auth.ScopeWrite})
	srv := realServer(t, tokens)

	c, err := client.New(srv.URL, client.WithBearerToken(token), client.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Stage(ctx, "pay Alice 10"); err != nil {
		t.Fatal(err)
	}
	staged, err := c.Staged(ctx)
	if err != nil || len(staged) != 1 {
		t.Fatalf("Staged() = %v, %v", staged, err)
	}

	b, err := c.Seal(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if b.Index != 1 || b.Records[0].Payload != "pay Alice 10" {
		t.Errorf("unexpected block %+v", b)
	}

	got, err := c.Block(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hash != b.Hash {
		t.Errorf("Block(1).Hash = %q, want %q", got.Hash, b.Hash)
	}

	blocks, err := c.Blocks(ctx)
	if err != nil || len(blocks) != 2 {
		t.Fatalf("Blocks() = %d blocks, %v", len(blocks), err)
	}

	o, err := c.Overview(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if o.Blocks != 2 || o.Head != b.Hash || o.Staged != 0 {
		t.Errorf("unexpected overview %+v", o)
	}

	v, err := c.Verify(ctx)
	if err != nil || !v.Valid {
		t.Errorf("Verify() = %+v, %v", v, err)
	}
}
