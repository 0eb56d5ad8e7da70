package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auth "github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/auth/middleware"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rbac"
)

func TestIssueAndParseJWT(t *testing.T) {
	a := auth.NewAuthService("test-secret", time.Hour)

	tok, err := a.IssueJWT("u-1", "ada", "evaluator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Sub != "u-1" || c.Username != "ada" || c.Role != "evaluator" {
		t.Errorf("claims = %+v", c)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := auth.NewAuthService("secret-a", time.Hour).IssueJWT("u-1", "ada", "evaluator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := auth.NewAuthService("secret-b", time.Hour).Parse(tok); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestJWTMiddlewareAttachesSubjectAndRole(t *testing.T) {
	a := auth.NewAuthService("test-secret", time.Hour)
	tok, _ := a.IssueJWT("u-1", "ada", "admin")

	var gotSub, gotRole string
	h := auth.JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = auth.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotSub != "u-1" || gotRole != "admin" {
		t.Errorf("sub=%q role=%q", gotSub, gotRole)
	}
}

func TestJWTMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	a := auth.NewAuthService("test-secret", time.Hour)
	h := auth.JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a valid token")
	}))

	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}
