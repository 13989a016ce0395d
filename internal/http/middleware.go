package httpserver

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/storepulse/storepulse/internal/domain"
	"github.com/storepulse/storepulse/internal/session"
)

type ctxKey int

const sessionCtxKey ctxKey = iota

// withSession resolves the bearer token into a session and stashes it in the
// request context. A missing or stale token yields a nil session, not an
// error; role gates decide what that means per route.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			s.logger.Error("resolve session failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve session")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey, sess)))
	})
}

// requireRole admits only sessions whose role is in the allow list. The
// dashboard variants are mutually exclusive: a role either matches or the
// request is rejected, with no capability composition.
func (s *Server) requireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromContext(r.Context())
			if sess == nil {
				s.respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Missing or invalid authentication information")
				return
			}
			for _, role := range roles {
				if sess.User.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Your role does not permit this operation")
		})
	}
}

func sessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionCtxKey).(*session.Session)
	return sess
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
