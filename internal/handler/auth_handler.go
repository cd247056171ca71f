package handler

import (
	"net/http"

	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles account requests
type AuthHandler struct {
	service service.AuthService
	log     logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{service: s, log: log}
}

func authResponse(message string, res *model.AuthResult) gin.H {
	return gin.H{
		"message":  message,
		"user_id":  res.User.ID,
		"username": res.User.Username,
		"email":    res.User.Email,
		"role":     res.Role,
		"tokens":   res.Tokens,
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "register user")
		return
	}
	c.JSON(http.StatusCreated, authResponse("Registration successful", res))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "login")
		return
	}
	c.JSON(http.StatusOK, authResponse("Login successful", res))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	access, err := h.service.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, h.log, err, "refresh token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	// An unreadable body is treated like a missing token.
	_ = c.ShouldBindJSON(&req)

	if err := h.service.Logout(c.Request.Context(), req.Refresh); err != nil {
		respondError(c, h.log, err, "logout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	view, err := h.service.GetProfile(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, h.log, err, "retrieve profile")
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateProfile serves both PUT and PATCH; absent fields are left unchanged.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	p := middleware.GetPrincipal(c)
	view, err := h.service.UpdateProfile(c.Request.Context(), p.UserID, req)
	if err != nil {
		respondError(c, h.log, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	p := middleware.GetPrincipal(c)
	if err := h.service.ChangePassword(c.Request.Context(), p.UserID, req); err != nil {
		respondError(c, h.log, err, "change password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		// The response must not reveal whether the account exists.
		h.log.WithError(err).Error("failed to process password reset request")
	}
	c.JSON(http.StatusOK, gin.H{"message": service.ResetRequestedMessage})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, h.log, err, "reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

// Protected echoes the authenticated identity
func (h *AuthHandler) Protected(c *gin.Context) {
	user, err := h.service.CurrentUser(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err, "retrieve user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RegisterAuthRoutes registers account routes and /protected/
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	accounts := rg.Group("/accounts")
	{
		accounts.POST("/register/", h.Register)
		accounts.POST("/login/", h.Login)
		accounts.POST("/token/refresh/", h.Refresh)
		accounts.POST("/forgot-password/", h.ForgotPassword)
		accounts.POST("/reset-password/", h.ResetPassword)

		accounts.POST("/logout/", authMW, h.Logout)
		accounts.GET("/profile/", authMW, h.GetProfile)
		accounts.PUT("/profile/", authMW, h.UpdateProfile)
		accounts.PATCH("/profile/", authMW, h.UpdateProfile)
		accounts.POST("/change-password/", authMW, h.ChangePassword)
	}

	rg.GET("/protected/", authMW, h.Protected)
}
