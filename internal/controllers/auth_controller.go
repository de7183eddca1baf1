package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront-be/internal/logutil"
	"storefront-be/internal/middleware"
	"storefront-be/internal/models"
	"storefront-be/internal/service"
	"storefront-be/internal/session"
)

const (
	MsgMissingFields      = "Please enter all fields"
	MsgInvalidBody        = "Invalid request body"
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUserNotFound       = "User not found"

	MsgRegistered = "User registered successfully"
	MsgLoggedIn   = "Logged in successfully"
	MsgLoggedOut  = "Logged out successfully"

	MsgRegisterFailed = "Internal server error during registration"
	MsgLoginFailed    = "Internal server error during login"
	MsgLogoutFailed   = "Internal server error during logout"
)

type AuthController struct {
	authService service.AuthService
	cookies     *session.Transport
}

func NewAuthController(authService service.AuthService, cookies *session.Transport) *AuthController {
	return &AuthController{
		authService: authService,
		cookies:     cookies,
	}
}

// Register handles POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ac.authService.Register(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrMissingFields):
		respond(c, http.StatusBadRequest, MsgMissingFields)
		return
	case errors.Is(err, service.ErrUserAlreadyExists):
		respond(c, http.StatusBadRequest, MsgUserExists)
		return
	case err != nil:
		internalError(c, err, "Registration error", MsgRegisterFailed)
		return
	}

	ac.cookies.Set(c.Writer, result.Token)
	c.JSON(http.StatusCreated, models.AuthResponse{
		Message: MsgRegistered,
		User:    result.User.Public(),
	})
}

// Login handles POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ac.authService.Login(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrMissingFields):
		respond(c, http.StatusBadRequest, MsgMissingFields)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		respond(c, http.StatusBadRequest, MsgInvalidCredentials)
		return
	case err != nil:
		internalError(c, err, "Login error", MsgLoginFailed)
		return
	}

	ac.cookies.Set(c.Writer, result.Token)
	c.JSON(http.StatusOK, models.AuthResponse{
		Message: MsgLoggedIn,
		User:    result.User.Public(),
	})
}

// Logout handles POST /api/auth/logout. The token itself stays valid until it expires.
func (ac *AuthController) Logout(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			internalError(c, fmt.Errorf("panic while clearing session cookie: %v", r), "Logout error", MsgLogoutFailed)
		}
	}()

	ac.cookies.Clear(c.Writer)
	respond(c, http.StatusOK, MsgLoggedOut)
}

// Me handles GET /api/auth/me and returns the identity attached by the auth gate
func (ac *AuthController) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respond(c, http.StatusNotFound, MsgUserNotFound)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// bindJSON decodes the body into req and answers 400 when it cannot.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) || errors.Is(err, io.EOF) {
		respond(c, http.StatusBadRequest, MsgMissingFields)
	} else {
		respond(c, http.StatusBadRequest, MsgInvalidBody)
	}
	return false
}

func respond(c *gin.Context, status int, message string) {
	c.JSON(status, models.MessageResponse{Message: message})
}

// internalError logs err server-side and answers with a generic 500.
func internalError(c *gin.Context, err error, logMsg, message string) {
	log := logutil.GetOrDefault(c.Request.Context())
	log.Error().Err(err).Msg(logMsg)
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.MessageResponse{Message: message})
}
