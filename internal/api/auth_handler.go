package api

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/rs/zerolog"
)

// AuthHandler handles account, session and user management endpoints
type AuthHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// startSession binds the session cookie to user
func (h *AuthHandler) startSession(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserID, user.ID)
	return session.Save()
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in models.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Registration successful", gin.H{"user": user})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in models.LoginInput
	if err := bindJSON(c, &in); err != nil {
		writeError(c, h.log, err)
		return
	}

	user, err := h.services.Auth.Login(c.Request.Context(), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.startSession(c, user); err != nil {
		writeError(c, h.log, models.NewInternalError(err))
		return
	}

	h.log.Info().Int64("user_id", user.ID).Msg("User logged in")
	respond(c, http.StatusOK, "Login successful", gin.H{"user": user})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		writeError(c, h.log, models.NewInternalError(err))
		return
	}
	respond(c, http.StatusOK, "Logout successful", nil)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p := principal(c)
	user, err := h.services.Auth.ActiveUser(c.Request.Context(), p.UserID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if user == nil {
		writeError(c, h.log, models.NewNotFoundError("user", p.UserID))
		return
	}
	respond(c, http.StatusOK, "", gin.H{"user": user})
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(c, h.log, models.NewValidationError("current_password and new_password are required"))
		return
	}

	if err := h.services.Auth.ChangePassword(c.Request.Context(), principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Password changed", nil)
}

// GoogleLogin handles GET /auth/google/login.
// The state token is kept in the session and checked on callback.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !h.services.Auth.GoogleEnabled() {
		writeError(c, h.log, models.NewUnavailableError("google sign-in is not configured"))
		return
	}

	state := uuid.New().String()
	session := sessions.Default(c)
	session.Set(sessionOAuthState, state)
	if err := session.Save(); err != nil {
		writeError(c, h.log, models.NewInternalError(err))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.services.Auth.GoogleAuthURL(state))
}

// GoogleCallback handles GET /auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	session := sessions.Default(c)
	saved, _ := session.Get(sessionOAuthState).(string)
	if saved == "" || c.Query("state") != saved {
		writeError(c, h.log, models.NewValidationError("invalid oauth state"))
		return
	}
	session.Delete(sessionOAuthState)

	code := c.Query("code")
	if code == "" {
		writeError(c, h.log, models.NewValidationError("missing authorization code"))
		return
	}

	user, err := h.services.Auth.LoginWithGoogle(c.Request.Context(), code)
	if err != nil {
		_ = session.Save()
		writeError(c, h.log, err)
		return
	}
	if err := h.startSession(c, user); err != nil {
		writeError(c, h.log, models.NewInternalError(err))
		return
	}

	respond(c, http.StatusOK, "Login successful", gin.H{
		"user":             user,
		"profile_required": !user.ProfileCompleted,
	})
}

// CompleteProfile handles POST /auth/complete-profile
func (h *AuthHandler) CompleteProfile(c *gin.Context) {
	var req struct {
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	user, err := h.services.Auth.CompleteProfile(c.Request.Context(), principal(c), req.Username, req.FirstName, req.LastName)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Profile completed", gin.H{"user": user})
}

// UpdateProfile handles PUT /users/me
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := bindJSON(c, &update); err != nil {
		writeError(c, h.log, err)
		return
	}

	user, err := h.services.Auth.UpdateProfile(c.Request.Context(), principal(c), &update)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated", gin.H{"user": user})
}

// ListUsers handles GET /users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, pagination, err := h.services.Auth.ListUsers(c.Request.Context(), pageFromQuery(c, 20))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"users": users, "pagination": pagination})
}

// SetRole handles PATCH /users/:id/role
func (h *AuthHandler) SetRole(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	user, err := h.services.Auth.SetRole(c.Request.Context(), principal(c), id, req.Role)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Role updated", gin.H{"user": user})
}

// SetActive handles PATCH /users/:id/active
func (h *AuthHandler) SetActive(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req struct {
		Active *bool `json:"is_active"`
	}
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}
	if req.Active == nil {
		writeError(c, h.log, models.NewValidationError("is_active is required"))
		return
	}

	user, err := h.services.Auth.SetActive(c.Request.Context(), principal(c), id, *req.Active)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Account updated", gin.H{"user": user})
}
