package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/movequote/internal/apperr"
)

const sessionCookieName = "movequote_session"

type authService struct {
	db            *sql.DB
	sessionSecret []byte
}

type user struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type userContextKey struct{}

func newAuthService(db *sql.DB, sessionSecret string) *authService {
	return &authService{db: db, sessionSecret: []byte(sessionSecret)}
}

// validateCredentials returns the user when password matches the stored
// bcrypt hash. Unknown emails and wrong passwords both report ok=false.
func (a *authService) validateCredentials(ctx context.Context, email, password string) (user, bool, error) {
	var u user
	var passwordHash string
	err := a.db.QueryRowContext(ctx, `SELECT id, email, password_hash FROM users WHERE email = ?`, email).Scan(&u.ID, &u.Email, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return user{}, false, nil
	}
	if err != nil {
		return user{}, false, fmt.Errorf("query user credentials: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return user{}, false, nil
	}
	if err != nil {
		return user{}, false, fmt.Errorf("compare password hash: %w", err)
	}
	return u, true, nil
}

func (a *authService) userByEmail(ctx context.Context, email string) (user, bool, error) {
	var u user
	err := a.db.QueryRowContext(ctx, `SELECT id, email FROM users WHERE email = ?`, email).Scan(&u.ID, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return user{}, false, nil
	}
	if err != nil {
		return user{}, false, fmt.Errorf("query session user: %w", err)
	}
	return u, true, nil
}

func (a *authService) createSessionValue(email string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(email))
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

func (a *authService) verifySessionValue(value string) (string, bool) {
	payload, signature, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}

	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", false
	}

	return string(decoded), true
}

func (a *authService) setSessionCookie(w http.ResponseWriter, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.createSessionValue(email),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, r, apperr.Validation("email", "email and password are required"))
		return
	}

	u, ok, err := s.auth.validateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeUnauthorized(w, "invalid email or password")
		return
	}

	s.auth.setSessionCookie(w, u.Email)
	writeData(w, http.StatusOK, u)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, envelope{"success": true})
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeUnauthorized(w, "login required")
			return
		}
		email, ok := s.auth.verifySessionValue(cookie.Value)
		if !ok {
			writeUnauthorized(w, "login required")
			return
		}

		u, ok, err := s.auth.userByEmail(r.Context(), email)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeUnauthorized(w, "login required")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, u)))
	})
}

// currentUserID returns the signed-in user's id for audit columns.
func currentUserID(r *http.Request) *int64 {
	u, ok := r.Context().Value(userContextKey{}).(user)
	if !ok {
		return nil
	}
	id := u.ID
	return &id
}
