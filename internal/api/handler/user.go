package handler

import (
	"net/http"

	"github.com/mcoot/roomchat/internal/api/apierr"
	"github.com/mcoot/roomchat/internal/api/middleware"
	"github.com/mcoot/roomchat/internal/api/request"
	"github.com/mcoot/roomchat/internal/api/response"
	"github.com/mcoot/roomchat/internal/services/auth"
	"github.com/mcoot/roomchat/internal/services/chat"
)

// UserHandler handles account endpoints
type UserHandler struct {
	authService *auth.Service
	gateway     *chat.Gateway
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *auth.Service, gateway *chat.Gateway) *UserHandler {
	return &UserHandler{
		authService: authService,
		gateway:     gateway,
	}
}

// Register handles POST /api/v1/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	session, err := h.authService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/users/me", response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if req.Username == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/users/logout. The active room is forgotten
// along with the session.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal := middleware.MustGetPrincipal(r.Context())
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	_ = h.gateway.ClearSession(principal)
	response.NoContent(w)
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.MustGetPrincipal(r.Context())
	user, err := h.authService.GetUser(r.Context(), principal.Identity)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}
