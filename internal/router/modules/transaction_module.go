package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/ppob-membership/internal/container"
	handlers "github.com/oksasatya/ppob-membership/internal/interface/http"
	"github.com/oksasatya/ppob-membership/internal/interface/middleware"
)

// TransactionModule serves the balance ledger. Every route is protected;
// POST routes honour Idempotency-Key.
type TransactionModule struct {
	Handler *handlers.TransactionHandler
	C       *container.Container
}

func NewTransactionModule(h *handlers.TransactionHandler, c *container.Container) *TransactionModule {
	return &TransactionModule{Handler: h, C: c}
}

func (m *TransactionModule) Register(rg *gin.RouterGroup) {
	rdb := m.C.Redis
	idem := middleware.Idempotency(rdb, m.C.Config.IdempotencyTTL)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.C.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/balance", m.Handler.Balance)
		auth.POST("/topup", idem, m.Handler.TopUp)
		auth.POST("/transaction", idem, m.Handler.Transaction)
		auth.GET("/transaction/history", m.Handler.History)
		auth.GET("/transaction/search", m.Handler.Search)
	}
}
