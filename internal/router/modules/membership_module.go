package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/ppob-membership/internal/container"
	handlers "github.com/oksasatya/ppob-membership/internal/interface/http"
	"github.com/oksasatya/ppob-membership/internal/interface/middleware"
)

// MembershipModule serves registration, login and the member profile.
// Public: POST /registration, POST /login
// Protected: POST /logout, GET /profile, PUT /profile/update, PUT /profile/image
type MembershipModule struct {
	Handler *handlers.MembershipHandler
	C       *container.Container
}

func NewMembershipModule(h *handlers.MembershipHandler, c *container.Container) *MembershipModule {
	return &MembershipModule{Handler: h, C: c}
}

func (m *MembershipModule) Register(rg *gin.RouterGroup) {
	rdb := m.C.Redis
	registerLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/registration", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.C.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile/update", m.Handler.UpdateProfile)
		auth.PUT("/profile/image", m.Handler.UploadProfileImage)
	}
}
