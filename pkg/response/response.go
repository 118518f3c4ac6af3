package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope status codes.
const (
	CodeOK           = 0
	CodeBadRequest   = 102
	CodeUnauthorized = 103
	CodeInvalidToken = 108
)

type APIResponse[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Success writes a status 0 envelope with the given HTTP status (200 when zero).
func Success[T any](ctx *gin.Context, httpStatus int, data T, message string) APIResponse[T] {
	if httpStatus == 0 {
		httpStatus = http.StatusOK
	}
	resp := APIResponse[T]{Status: CodeOK, Message: message, Data: data}
	ctx.JSON(httpStatus, resp)
	return resp
}

// Error writes a failure envelope with data set to null.
func Error(ctx *gin.Context, httpStatus, code int, message string) APIResponse[any] {
	if httpStatus == 0 {
		httpStatus = http.StatusBadRequest
	}
	resp := APIResponse[any]{Status: code, Message: message}
	ctx.JSON(httpStatus, resp)
	return resp
}

// Abort writes the failure envelope and stops the handler chain.
func Abort(ctx *gin.Context, httpStatus, code int, message string) {
	Error(ctx, httpStatus, code, message)
	ctx.Abort()
}
