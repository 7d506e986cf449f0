package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

type contextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request's identity, if authenticated.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// ProfileSigner creates the profile of a user seen for the first time.
type ProfileSigner interface {
	SignIn(ctx context.Context, id, name, email string) (core.UserProfile, error)
}

// Middleware rejects requests without a valid bearer token and puts the
// identity in the request context. The first request of each user in this
// process ensures their profile exists.
type Middleware struct {
	tokens  *Tokens
	signer  ProfileSigner
	logger  *log.Logger
	ensured sync.Map
}

func NewMiddleware(tokens *Tokens, signer ProfileSigner, logger *log.Logger) *Middleware {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentAuth})
	}
	return &Middleware{tokens: tokens, signer: signer, logger: logger.WithComponent(log.ComponentAuth)}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearer(r)
		if err != nil {
			unauthorized(w, err.Error())
			return
		}
		id, err := m.tokens.Verify(raw)
		if err != nil {
			m.logger.WarnContext(r.Context(), "Rejected token",
				log.FieldPath, r.URL.Path,
				log.FieldErrorType, log.ErrorTypeAuth,
				log.FieldError, err.Error())
			unauthorized(w, "invalid or expired token")
			return
		}

		if err := m.ensureProfile(r.Context(), id); err != nil {
			m.logger.ErrorContext(r.Context(), "Failed to ensure profile",
				log.FieldOwner, id.UserID,
				log.FieldError, err.Error())
			status := http.StatusInternalServerError
			msg := "internal server error"
			if errors.Is(err, core.ErrPrecondition) {
				status, msg = http.StatusPreconditionFailed, err.Error()
			}
			writeError(w, status, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (m *Middleware) ensureProfile(ctx context.Context, id Identity) error {
	if m.signer == nil {
		return nil
	}
	if _, ok := m.ensured.Load(id.UserID); ok {
		return nil
	}
	if _, err := m.signer.SignIn(ctx, id.UserID, id.Name, id.Email); err != nil {
		return err
	}
	m.ensured.Store(id.UserID, struct{}{})
	return nil
}

func bearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="freelancedesk"`)
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
