package router

import "github.com/gin-gonic/gin"

// Module registers one feature's routes. Modules apply their own auth and
// rate limits per route group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
