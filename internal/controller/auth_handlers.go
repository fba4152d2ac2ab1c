package controller

import (
	"net/http"

	"slotswap/internal/apperr"
)

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Controller) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		c.badRequest(w, "%v", err)
		return
	}

	user, token, err := c.authService.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusCreated, envelope{
		"success": true,
		"message": "user registered successfully",
		"user":    user,
		"token":   token,
	})
}

func (c *Controller) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		c.badRequest(w, "%v", err)
		return
	}

	user, token, err := c.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Credential failures answer 401, not 403.
		if apperr.IsKind(err, apperr.KindForbidden) {
			c.respond(w, http.StatusUnauthorized, envelope{
				"success": false,
				"message": "invalid email or password",
			})
			return
		}
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func (c *Controller) handleMe(w http.ResponseWriter, r *http.Request) {
	c.respond(w, http.StatusOK, envelope{
		"success": true,
		"user":    currentUser(r),
	})
}
