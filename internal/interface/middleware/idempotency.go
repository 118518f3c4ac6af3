package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/ppob-membership/pkg/helpers"
	"github.com/oksasatya/ppob-membership/pkg/response"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 128

	idemPending = "pending"
	idemDone    = "done"
)

type idemRecord struct {
	State string `json:"state"`
	Code  int    `json:"code,omitempty"`
	Body  []byte `json:"body,omitempty"`
}

type recordingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first response stored for the same user, route and
// Idempotency-Key within ttl. A duplicate that arrives while the first is
// still running gets 409. Requests without the header pass through, and so
// does everything when Redis is not configured. Must run after Auth.
func Idempotency(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	if rdb == nil || ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKey {
			response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Idempotency-Key is too long")
			return
		}

		ctx := c.Request.Context()
		rk := "idem:" + c.GetString(CtxUserID) + ":" + normalizePath(c) + ":" + key
		pending, _ := json.Marshal(idemRecord{State: idemPending})
		acquired, err := rdb.SetNX(ctx, rk, pending, ttl).Result()
		if err != nil {
			// fail open
			c.Next()
			return
		}
		if !acquired {
			var rec idemRecord
			found, gErr := helpers.RedisGetJSON(ctx, rdb, rk, &rec)
			if gErr == nil && found && rec.State == idemDone {
				c.Header("Idempotent-Replayed", "true")
				c.Data(rec.Code, "application/json; charset=utf-8", rec.Body)
				c.Abort()
				return
			}
			response.Abort(c, http.StatusConflict, response.CodeBadRequest, "a request with this Idempotency-Key is still in progress")
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// server errors are not remembered so the client can retry
		if w.Status() >= http.StatusInternalServerError {
			_ = helpers.RedisDel(ctx, rdb, rk)
			return
		}
		_ = helpers.RedisSetJSON(ctx, rdb, rk, idemRecord{State: idemDone, Code: w.Status(), Body: w.buf.Bytes()}, ttl)
	}
}
