package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

type sessionKey struct{}

// withSession resolves {sessionID} and stores the session in the request
// context. Unknown ids end the request with 404.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			fail(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session stored by withSession.
func sessionFrom(ctx context.Context) *core.Session {
	sess, _ := ctx.Value(sessionKey{}).(*core.Session)
	return sess
}
