package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dreamhome/web/internal/diagnostics"
	"dreamhome/web/internal/email"
)

// Polling used by getTestEmail while a worker may still be sending.
const (
	testEmailAttempts = 10
	testEmailInterval = 200 * time.Millisecond
)

type apiMethodFunc func(c *gin.Context, args json.RawMessage) (interface{}, *ApiError)

// ServiceApiHandler serves the operator API: POST /api {method, arguments}.
type ServiceApiHandler struct {
	rdb          *redis.Client
	prober       *diagnostics.Prober
	shutdownChan chan<- struct{}
	logger       *zap.Logger
	methods      map[string]apiMethodFunc
}

// NewServiceApiHandler creates a ServiceApiHandler. rdb may be nil, which
// disables getTestEmail.
func NewServiceApiHandler(rdb *redis.Client, prober *diagnostics.Prober, shutdownChan chan<- struct{}, logger *zap.Logger) *ServiceApiHandler {
	h := &ServiceApiHandler{rdb: rdb, prober: prober, shutdownChan: shutdownChan, logger: logger}
	h.methods = map[string]apiMethodFunc{
		"ping":         h.ping,
		"shutdown":     h.shutdown,
		"diagnostics":  h.diagnostics,
		"getTestEmail": h.getTestEmail,
	}
	return h
}

// HandleRequest dispatches one method call.
func (h *ServiceApiHandler) HandleRequest(c *gin.Context) {
	var req JsonApiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	method, ok := h.methods[req.Method]
	if !ok {
		sendErrorResponse(c, http.StatusNotFound, fmt.Sprintf("Unknown service method: %s", req.Method))
		return
	}
	result, apiErr := method(c, req.Arguments)
	if apiErr != nil {
		sendApiError(c, apiErr)
		return
	}
	sendSuccessResponse(c, result)
}

func (h *ServiceApiHandler) ping(c *gin.Context, _ json.RawMessage) (interface{}, *ApiError) {
	return "pong", nil
}

func (h *ServiceApiHandler) shutdown(c *gin.Context, _ json.RawMessage) (interface{}, *ApiError) {
	h.logger.Info("received shutdown command via service API")
	select {
	case h.shutdownChan <- struct{}{}:
	default:
		h.logger.Info("shutdown already signaled")
	}
	return "Shutdown initiated", nil
}

func (h *ServiceApiHandler) diagnostics(c *gin.Context, _ json.RawMessage) (interface{}, *ApiError) {
	return h.prober.Probe(c.Request.Context()), nil
}

// getTestEmail expects ["kind", "recipient"] and returns the captured mock email.
func (h *ServiceApiHandler) getTestEmail(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	if h.rdb == nil {
		return nil, NewApiError(http.StatusServiceUnavailable, "Redis is not configured")
	}
	var params []string
	if err := json.Unmarshal(args, &params); err != nil || len(params) != 2 {
		return nil, NewApiError(http.StatusBadRequest, "Invalid arguments: expected JSON array [kind, email]")
	}
	kind, recipient := params[0], params[1]

	stored, err := email.LookupTestEmail(c.Request.Context(), h.rdb, kind, recipient, testEmailAttempts, testEmailInterval)
	if errors.Is(err, email.ErrTestEmailNotFound) {
		return nil, NewApiError(http.StatusNotFound, fmt.Sprintf("Test email not found for key %s", email.MockEmailKey(recipient, kind)))
	}
	if err != nil {
		h.logger.Error("failed to read test email", zap.String("kind", kind), zap.String("recipient", recipient), zap.Error(err))
		return nil, NewApiError(http.StatusInternalServerError, "Redis error")
	}
	return stored, nil
}
