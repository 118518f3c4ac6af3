package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/ppob-membership/internal/application"
	"github.com/oksasatya/ppob-membership/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		httpCode int
		status   int
		message  string
	}{
		{application.ErrInvalidAmount, http.StatusBadRequest, 102, application.ErrInvalidAmount.Error()},
		{application.ErrInsufficientBalance, http.StatusBadRequest, 102, "insufficient balance"},
		{fmt.Errorf("lookup: %w", application.ErrServiceNotFound), http.StatusNotFound, 102, "service not found"},
		{application.ErrInvalidCredentials, http.StatusUnauthorized, 103, "Username atau password salah"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, 102, "internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		writeError(c, helpers.NopLogger(), tc.err)

		var body struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
			Data    any    `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.httpCode, w.Code, tc.err.Error())
		assert.Equal(t, tc.status, body.Status, tc.err.Error())
		assert.Equal(t, tc.message, body.Message, tc.err.Error())
		assert.Nil(t, body.Data)
	}
}

func TestRootMessage(t *testing.T) {
	err := fmt.Errorf("a: %w", fmt.Errorf("b: %w", application.ErrUserNotFound))
	assert.Equal(t, "user not found", rootMessage(err))
}
