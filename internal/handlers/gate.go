package handlers

import (
	"net/http"

	"github.com/todos-api/apiserver/internal/auth"
)

const (
	tokenQueryParam = "token"
	userIDParam     = "userID"
)

// requireOwner runs the gate against the token query parameter and the
// {userID} path parameter. Downstream handlers read the identity from the
// request context and scope every store call by it.
func requireOwner(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID, err := parseID(r, userIDParam)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			identity, err := gate.Authorize(r.URL.Query().Get(tokenQueryParam), ownerID)
			if err != nil {
				writeServiceError(w, r, err, "failed to authorize")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

func requireAdmin(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := gate.AuthorizeAdmin(r.URL.Query().Get(tokenQueryParam))
			if err != nil {
				writeServiceError(w, r, err, "failed to authorize")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}
