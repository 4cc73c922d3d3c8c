package player

import (
	"net/http"
	"strings"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"

	"go.uber.org/zap"
)

const (
	bearerPrefix = "Bearer "

	// WebSocketProtocol is offered by browser clients as the first
	// Sec-WebSocket-Protocol entry, followed by the token.
	WebSocketProtocol = "wager-rooms"
)

// Credential extracts the bearer token from the Authorization header or, for
// websocket upgrades, from the second Sec-WebSocket-Protocol entry.
func Credential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}

	var protocols []string
	for _, value := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(value, ",") {
			protocols = append(protocols, strings.TrimSpace(p))
		}
	}
	if len(protocols) > 1 {
		return protocols[1]
	}

	return ""
}

func AuthenticationMiddleware(directory Directory) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			identity, err := directory.Resolve(ctx, Credential(r))
			switch {
			case err != nil && core.KindOf(err) == core.KindAuth:
				core.WriteUnauthorized(w, r)
				return
			case err != nil:
				core.LogError(ctx, "failed to resolve credential", zap.Error(err))
				core.WriteCommandError(w, r, err)
				return
			}

			ctx = core.WithSession(ctx, core.ContextSession{PlayerID: identity.ID, Name: identity.Name})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}
