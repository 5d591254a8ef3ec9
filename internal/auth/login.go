package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/facturaIA/identity-ocr-service/internal/db"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Operator is an account allowed to scan documents.
type Operator struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// ErrInvalidCredentials is returned for an unknown email or wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns the bcrypt hash stored in operators.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// CheckPassword verifies password against op's stored hash.
func (op *Operator) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// FindOperator loads an active operator by email.
func FindOperator(ctx context.Context, email string) (*Operator, error) {
	if db.Pool == nil {
		return nil, db.ErrNoDatabase
	}

	query := `SELECT id::text, email, name, role, password_hash
	          FROM operators
	          WHERE lower(email) = lower($1) AND active`

	var op Operator
	err := db.Pool.QueryRow(ctx, query, email).Scan(&op.ID, &op.Email, &op.Name, &op.Role, &op.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load operator")
	}
	return &op, nil
}

// LoginHandler authenticates an operator and issues a token.
type LoginHandler struct {
	Logger *zap.Logger
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if db.Pool == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication service unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	op, err := FindOperator(ctx, req.Email)
	if err == nil {
		err = op.CheckPassword(req.Password)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.Logger.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := GenerateToken(op.ID, op.Email, op.Name, op.Role)
	if err != nil {
		h.Logger.Error("token generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	// Update last login in background
	go func(id string) {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		if _, err := db.Pool.Exec(ctx2, `UPDATE operators SET last_login_at = now() WHERE id = $1::uuid`, id); err != nil {
			h.Logger.Warn("failed to record login", zap.Error(err))
		}
	}(op.ID)

	json.NewEncoder(w).Encode(LoginResponse{
		Token:  token,
		UserID: op.ID,
		Email:  op.Email,
		Name:   op.Name,
		Role:   op.Role,
	})
}

// MeHandler returns the claims of the calling operator.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, err := GetClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"name":    claims.Name,
		"role":    claims.Role,
	})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
