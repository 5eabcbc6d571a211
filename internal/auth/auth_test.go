package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jmerrifield20/hashledger/internal/auth"
)

const secret = "test-secret"

func newIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer(secret, "hashledger-test", time.Hour)
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	ti := newIssuer()

	token, err := ti.Issue("operator", []string{auth.ScopeWrite})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("expected 3-part JWT, got %d parts", len(parts))
	}

	claims, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Subject != "operator" {
		t.Errorf("Subject: got %q, want operator", claims.Subject)
	}
	if !claims.HasScope(auth.ScopeWrite) {
		t.Errorf("Scopes: got %v", claims.Scopes)
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}
}

func TestTokenIssuer_Verify_wrongSecret(t *testing.T) {
	token, _ := auth.NewTokenIssuer("other", "hashledger-test", time.Hour).Issue("op", nil)
	if _, err := newIssuer().Verify(token); err == nil {
		t.Error("expected error for a token signed with another secret")
	}
}

func TestTokenIssuer_Verify_wrongIssuer(t *testing.T) {
	token, _ := auth.NewTokenIssuer(secret, "elsewhere", time.Hour).Issue("op", nil)
	if _, err := newIssuer().Verify(token); err == nil {
		t.Error("expected error for a foreign issuer")
	}
}

func TestTokenIssuer_Verify_expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	claims := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "hashledger-test",
		IssuedAt:  jwt.NewNumericDate(past),
		ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newIssuer().Verify(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuer_Authorize(t *testing.T) {
	ti := newIssuer()
	writer, _ := ti.Issue("op", []string{auth.ScopeWrite})
	reader, _ := ti.Issue("op", []string{"ledger:read"})

	if _, err := ti.Authorize("", auth.ScopeWrite); !errors.Is(err, auth.ErrMissingToken) {
		t.Errorf("empty header: got %v", err)
	}
	if _, err := ti.Authorize("Bearer "+reader, auth.ScopeWrite); !errors.Is(err, auth.ErrScope) {
		t.Errorf("read-only token: got %v", err)
	}
	if _, err := ti.Authorize("Bearer "+writer, auth.ScopeWrite); err != nil {
		t.Errorf("write token: %v", err)
	}
}

func TestRequireScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ti := newIssuer()
	writer, _ := ti.Issue("op", []string{auth.ScopeWrite})
	reader, _ := ti.Issue("op", nil)

	r := gin.New()
	r.POST("/w", auth.RequireScope(ti, auth.ScopeWrite), func(c *gin.Context) {
		c.String(http.StatusOK, auth.ClaimsFromCtx(c).Subject)
	})

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer garbage", http.StatusUnauthorized},
		{"Bearer " + reader, http.StatusForbidden},
		{"Bearer " + writer, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/w", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("header %.20q: got %d, want %d", tc.header, w.Code, tc.want)
		}
	}
}

func TestRequireScope_disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/w", auth.RequireScope(nil, auth.ScopeWrite), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/w", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("disabled auth should pass through, got %d", w.Code)
	}
}
