package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rbac"
)

type AuthService struct {
	hmac []byte
	ttl  time.Duration
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl}
}

type Claims struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
	Role     string `json:"role"` // "evaluator" or "admin"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, username, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:      sub,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "evaltool",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return c, nil
}

// POST /api/auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *AuthService, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var id, hash, role string
		err := db.QueryRowContext(r.Context(),
			`SELECT id, password_hash, role FROM users WHERE username=$1`, req.Username).
			Scan(&id, &hash, &role)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(id, req.Username, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": tok,
			"token_type":   "bearer",
		})
	}
}

// POST /api/auth/register  { "username", "email", "password" }
func RegisterHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Username == "" || len(req.Password) < 6 {
			http.Error(w, "username and a password of at least 6 characters required", http.StatusBadRequest)
			return
		}
		var exists int
		err := db.QueryRowContext(r.Context(), `SELECT 1 FROM users WHERE username=$1`, req.Username).Scan(&exists)
		if err == nil {
			http.Error(w, "username already registered", http.StatusBadRequest)
			return
		}
		if !errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "register failed", http.StatusInternalServerError)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "register failed", http.StatusInternalServerError)
			return
		}
		id := uuid.NewString()
		_, err = db.ExecContext(r.Context(),
			`INSERT INTO users (id, username, email, password_hash, role, created_at)
			 VALUES ($1,$2,$3,$4,'evaluator',$5)`,
			id, req.Username, req.Email, string(hash), time.Now().Unix())
		if err != nil {
			http.Error(w, "register failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "username": req.Username})
	}
}

// GET /api/auth/me
func MeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := SubjectFromContext(r.Context())
		var username, email, role string
		err := db.QueryRowContext(r.Context(),
			`SELECT username, COALESCE(email,''), role FROM users WHERE id=$1`, sub).
			Scan(&username, &email, &role)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": sub, "username": username, "email": email, "role": role,
		})
	}
}

// JWTMiddleware validates the bearer token and attaches subject and role to
// the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SeedAdmin ensures the bootstrap admin account exists. passHash is a
// bcrypt hash straight from config.
func SeedAdmin(ctx context.Context, db *sql.DB, username, passHash string) error {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, username).Scan(&exists)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at)
		 VALUES ($1,$2,$3,'admin',$4)`,
		uuid.NewString(), username, passHash, time.Now().Unix())
	if err == nil {
		log.Printf("bootstrap admin account %q created", username)
	}
	return err
}
