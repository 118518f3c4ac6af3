package router

import (
	"github.com/oksasatya/ppob-membership/internal/container"
	handlers "github.com/oksasatya/ppob-membership/internal/interface/http"
	"github.com/oksasatya/ppob-membership/internal/router/modules"
)

// InitModules builds the handlers from the container and registers their modules.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	membership := handlers.NewMembershipHandler(c.Membership, c.Logger, cfg.CookieDomain, cfg.CookieSecure)
	information := handlers.NewInformationHandler(c.Catalog, c.Logger)
	transaction := handlers.NewTransactionHandler(c.Ledger, c.History, c.Logger)

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(c.Ping, c.Logger)))
	r.Add(modules.NewMembershipModule(membership, c))
	r.Add(modules.NewInformationModule(information, c))
	r.Add(modules.NewTransactionModule(transaction, c))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c))
	}
}
