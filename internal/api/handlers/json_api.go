package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JsonApiRequest is the body of a method call on the service API.
type JsonApiRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// JsonApiResponse is the envelope of every JSON endpoint.
type JsonApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ApiError is a method failure with the status to answer with.
type ApiError struct {
	Status  int
	Message string
}

func (e *ApiError) Error() string { return e.Message }

// NewApiError creates an ApiError.
func NewApiError(status int, message string) *ApiError {
	return &ApiError{Status: status, Message: message}
}

func sendSuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, JsonApiResponse{Success: true, Data: data})
}

func sendErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, JsonApiResponse{Success: false, Error: message})
}

func sendApiError(c *gin.Context, apiErr *ApiError) {
	status := apiErr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	sendErrorResponse(c, status, apiErr.Message)
}
