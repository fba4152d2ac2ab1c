package controller

import (
	"context"
	"net/http"
	"strings"

	"slotswap/internal/model"
)

type ctxKey int

const userKey ctxKey = iota

// requireUser resolves the bearer token to a user and stores it in the
// request context. Anything short of a valid token for an existing user
// gets 401.
func (c *Controller) requireUser(next func(http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.respond(w, http.StatusUnauthorized, envelope{
				"success": false,
				"message": "not authorized, no token provided",
			})
			return
		}

		user, err := c.authService.Authenticate(r.Context(), token)
		if err != nil {
			c.respond(w, http.StatusUnauthorized, envelope{
				"success": false,
				"message": "not authorized, token invalid",
			})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// currentUser returns the authenticated user placed by requireUser.
func currentUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(userKey).(*model.User)
	return user
}
