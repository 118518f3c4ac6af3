package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestEnvelopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Success(c, 0, map[string]int{"balance": 5}, "ok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":0,"message":"ok","data":{"balance":5}}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Abort(c, http.StatusUnauthorized, CodeInvalidToken, "token tidak valid")
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"status":108,"message":"token tidak valid","data":null}`, w.Body.String())
}
