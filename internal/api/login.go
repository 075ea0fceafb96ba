package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/crowdlab/crowdlab/internal/service/auth"
)

// LoginHandler issues bearer tokens for name/password logins.
type LoginHandler struct {
	auth *auth.Service
}

// NewLoginHandler creates the login endpoint handler.
func NewLoginHandler(service *auth.Service) *LoginHandler {
	return &LoginHandler{auth: service}
}

// Login serves POST /api/auth/login. A successful login returns the
// bearer token together with the account's API key, so clients can use
// either credential afterwards.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondError(w, r, http.MethodPost, "auth", errValueError(err.Error()))
		return
	}

	var creds struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := strictUnmarshal(body, &creds); err != nil {
		RespondError(w, r, http.MethodPost, "auth", err)
		return
	}
	if creds.Name == "" || creds.Password == "" {
		RespondError(w, r, http.MethodPost, "auth", errBadRequest("name and password are required"))
		return
	}

	user, token, err := h.auth.Login(r.Context(), creds.Name, creds.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondError(w, r, http.MethodPost, "auth", errUnauthorized("invalid credentials"))
			return
		}
		RespondError(w, r, http.MethodPost, "auth", err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"token":   token,
		"api_key": user.APIKey,
		"user_id": user.ID,
		"name":    user.Name,
	})
}
