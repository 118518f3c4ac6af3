package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/internal/application"
	"github.com/oksasatya/ppob-membership/pkg/response"
	"github.com/oksasatya/ppob-membership/pkg/validation"
)

const (
	msgInternal           = "internal server error"
	msgInvalidCredentials = "Username atau password salah"
)

// writeError maps an application error onto the envelope. Unexpected errors
// are logged and never echoed to the client.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	switch application.KindOf(err) {
	case application.KindInvalidArgument, application.KindInsufficientBalance:
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, rootMessage(err))
	case application.KindNotFound:
		response.Error(c, http.StatusNotFound, response.CodeBadRequest, rootMessage(err))
	case application.KindUnauthenticated:
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, msgInvalidCredentials)
	default:
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			}).Error("request failed")
		}
		response.Error(c, http.StatusInternalServerError, response.CodeBadRequest, msgInternal)
	}
}

// rootMessage returns the innermost error text, which for classified errors is
// the sentinel's own message.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func writeBindError(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, validation.Message(err))
}
