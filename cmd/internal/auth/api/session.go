package authapi

import (
	"context"
	"net/http"

	"board/cmd/internal/auth/session"
)

type sessionKey struct{}

func withSession(ctx context.Context, v *session.View) context.Context {
	return context.WithValue(ctx, sessionKey{}, v)
}

// SessionFromContext returns the session attached by the decoder, if any.
func SessionFromContext(ctx context.Context) (*session.View, bool) {
	v, ok := ctx.Value(sessionKey{}).(*session.View)
	return v, ok && v != nil
}

// Decode resolves the token header and attaches a valid session to the
// request context. Requests without a valid session pass through untouched.
func (h *Handler) Decode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(h.cfg.TokenHeader)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		v, err := h.accounts.GetSession(r.Context(), token)
		if err != nil {
			h.log.Error("auth.session.decode.fail", "err", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		if v != nil {
			r = r.WithContext(withSession(r.Context(), v))
		}
		next.ServeHTTP(w, r)
	})
}

// guard rejects requests without a session with 401.
func guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if v, ok := SessionFromContext(r.Context()); !ok || v.Username == "" {
			writeError(w, http.StatusUnauthorized, msgUnauthorised)
			return
		}
		next(w, r)
	}
}

// adminGuard rejects requests without an admin session with 403.
func adminGuard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if v, ok := SessionFromContext(r.Context()); !ok || !v.Admin {
			writeError(w, http.StatusForbidden, msgForbidden)
			return
		}
		next(w, r)
	}
}
