package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpos/internal/account"
	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/session"
)

type AuthHandler struct {
	accounts *account.Service
	session  *session.Service
}

func NewAuthHandler(accounts *account.Service, session *session.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts, session: session}
}

// Login checks credentials and issues a JWT. All failures look identical to
// the caller so user names cannot be enumerated.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.accounts.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apperror.New("invalid credentials"))
		return
	}
	if err := h.session.SetCurrentUser(c.Request.Context(), &resp.User); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout clears the persisted session (current user, branch, cart).
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.session.Reset(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.accounts.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
