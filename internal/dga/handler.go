// File: internal/dga/handler.go
package dga

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"dga_gateway_backend/internal/common"
	"dga_gateway_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for the DGA login handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new DGA handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the login routes. The /test2 paths replicate the
// rewrite rules embedded legacy clients still depend on.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/dga", h.dispatch)
	router.POST("/test2/api/dga", h.dispatch)
	router.POST("/test2/auth/login", h.legacyLogin)
	router.POST("/test2/notify/send", h.legacyNotify)
}

// dispatch routes on the op query parameter: the legacy contract shares
// the /api/dga path with the primary one.
func (h *Handler) dispatch(c *gin.Context) {
	switch c.Query("op") {
	case "login":
		h.legacyLogin(c)
	case "notify":
		h.legacyNotify(c)
	default:
		h.login(c)
	}
}

// login is the primary contract: {appId, mToken} in, {ok, saved|error, step} out.
func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Login: Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, APIErrorResponse{OK: false, Error: bindingErrorMessage(err)})
		return
	}

	saved, flowErr := h.service.Login(c.Request.Context(), req.AppID, req.MToken, VersionPrimary)
	if flowErr != nil {
		c.JSON(flowErr.StatusCode, APIErrorResponse{OK: false, Error: flowErr.Message, Step: flowErr.Step})
		return
	}

	c.JSON(http.StatusOK, APISuccessResponse{OK: true, Saved: user.ToUserResponse(saved)})
}

// legacyLogin preserves the older {status: "success"|"error"} envelope.
func (h *Handler) legacyLogin(c *gin.Context) {
	var req legacyLoginRequest
	// Malformed bodies fall through as empty fields, like the original route.
	_ = c.ShouldBindJSON(&req)

	saved, flowErr := h.service.Login(c.Request.Context(), req.AppID, req.MToken, VersionLegacy)
	if flowErr != nil {
		body := gin.H{"status": "error", "message": flowErr.Message}
		if flowErr.Detail != "" {
			body["detail"] = flowErr.Detail
		}
		c.JSON(flowErr.StatusCode, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Login successful",
		"data": gin.H{
			"firstName": saved.FirstName,
			"lastName":  saved.LastName,
			"userId":    saved.UserID,
			"appId":     req.AppID,
		},
	})
}

// legacyNotify is the notify-only operation with its {success: bool} envelope.
func (h *Handler) legacyNotify(c *gin.Context) {
	var req legacyNotifyRequest
	_ = c.ShouldBindJSON(&req)

	result, flowErr := h.service.Notify(c.Request.Context(), req.AppID, req.UserID, req.Message)
	if flowErr != nil {
		body := gin.H{"success": false, "message": flowErr.Message}
		if flowErr.Detail != "" {
			body["error"] = flowErr.Detail
		}
		c.JSON(flowErr.StatusCode, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "ส่ง Notification สำเร็จ",
		"result":  result,
	})
}

// bindingErrorMessage flattens a gin binding error into the single error
// string the primary envelope carries.
func bindingErrorMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		formatted := common.FormatValidationErrors(ve)
		messages := make([]string, 0, len(formatted))
		for _, msg := range formatted {
			messages = append(messages, msg)
		}
		sort.Strings(messages)
		return strings.Join(messages, " ")
	}
	return "appId and mToken are required"
}
