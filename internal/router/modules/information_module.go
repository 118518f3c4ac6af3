package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/ppob-membership/internal/container"
	handlers "github.com/oksasatya/ppob-membership/internal/interface/http"
	"github.com/oksasatya/ppob-membership/internal/interface/middleware"
)

type InformationModule struct {
	Handler *handlers.InformationHandler
	C       *container.Container
}

func NewInformationModule(h *handlers.InformationHandler, c *container.Container) *InformationModule {
	return &InformationModule{Handler: h, C: c}
}

func (m *InformationModule) Register(rg *gin.RouterGroup) {
	rdb := m.C.Redis
	rg.GET("/banner", middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByIPAndPath(), nil), m.Handler.Banners)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.C.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	auth.GET("/services", m.Handler.Services)
}
