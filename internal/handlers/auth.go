package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/k597/AlertsWebApi/internal/api"
	"github.com/k597/AlertsWebApi/internal/middleware"
	"github.com/k597/AlertsWebApi/internal/utils"
)

// AuthHandler issues and checks operator tokens
type AuthHandler struct {
	jwtAuth *middleware.JWTAuthMiddleware
}

func NewAuthHandler(jwtAuth *middleware.JWTAuthMiddleware) *AuthHandler {
	return &AuthHandler{jwtAuth: jwtAuth}
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse carries a signed token and when it stops being accepted
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyResponse is the body of GET /auth/verify
type VerifyResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
}

func (h *AuthHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("GET /auth/verify", h.handleVerify)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	user := utils.EscapeForLogging(req.Username, 64)

	if !h.jwtAuth.ValidateCredentials(req.Username, req.Password) {
		log.Printf("AuthHandler: Rejected login for '%s' from %s", user, r.RemoteAddr)
		api.RespondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := h.jwtAuth.GenerateToken(req.Username)
	if err != nil {
		log.Printf("AuthHandler: Signing token for '%s' failed: %v", user, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	log.Printf("AuthHandler: Issued token for '%s' (expires %s)", user, expiresAt.UTC().Format(time.RFC3339))

	api.RespondJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		Username:  req.Username,
		ExpiresIn: int(time.Until(expiresAt).Seconds()),
		ExpiresAt: expiresAt.UTC(),
	})
}

// handleVerify echoes the user the auth middleware attached to the request
func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == "" {
		api.RespondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	api.RespondJSON(w, http.StatusOK, VerifyResponse{Valid: true, Username: user})
}
