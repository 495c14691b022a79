package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"StockLens/internal/auth"
	"StockLens/internal/profile"
)

type AuthHandler struct {
	accounts *auth.Accounts
}

func NewAuthHandler(accounts *auth.Accounts) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func authStatus(err error) int {
	if auth.IsCredentialError(err) {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req auth.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid sign-up request")
		return
	}
	sess, p, err := h.accounts.SignUp(c.Request.Context(), req)
	if err != nil && sess == nil {
		abortWithError(c, authStatus(err), auth.UserMessage(err))
		return
	}
	resp := gin.H{"session": sess, "profile": p}
	if err != nil {
		resp["warning"] = auth.UserMessage(err)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "email and password are required")
		return
	}
	sess, err := h.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, authStatus(err), auth.UserMessage(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		abortWithError(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"signed_out": h.accounts.SignOut(c.Request.Context(), token)})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "email is required")
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), req.Email); err != nil {
		abortWithError(c, http.StatusBadRequest, "Error: "+auth.UserMessage(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent! Check your inbox."})
}

// Session reports the caller's own session. Anonymous callers get
// authenticated=false and no session.
func (h *AuthHandler) Session(c *gin.Context) {
	sess := h.accounts.Current(bearerToken(c))
	c.JSON(http.StatusOK, gin.H{"authenticated": sess != nil, "session": sess})
}

// GetProfile returns the caller's own profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	sess := h.accounts.Current(bearerToken(c))
	if sess == nil {
		abortWithError(c, http.StatusUnauthorized, "sign in required")
		return
	}
	if sess.UID != c.Param("uid") {
		abortWithError(c, http.StatusForbidden, "profile belongs to another user")
		return
	}
	p, err := h.accounts.Profile(c.Request.Context(), sess.UID)
	if errors.Is(err, profile.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, p)
}
