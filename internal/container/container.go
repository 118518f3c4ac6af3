package container

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ppob-membership/config"
	"github.com/oksasatya/ppob-membership/internal/application"
	repo "github.com/oksasatya/ppob-membership/internal/domain/repository"
	pginfra "github.com/oksasatya/ppob-membership/internal/infrastructure/postgres"
	"github.com/oksasatya/ppob-membership/pkg/helpers"
	mailtpl "github.com/oksasatya/ppob-membership/pkg/mailer/templates"
)

// Repositories is the storage a container is built on.
type Repositories struct {
	Users     repo.UserRepository
	Services  repo.ServiceRepository
	Banners   repo.BannerRepository
	Histories repo.TransactionHistoryRepository
	Tx        repo.Transactor
}

// PostgresRepositories backs every repository with the pool.
func PostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:     pginfra.NewUserRepository(pool),
		Services:  pginfra.NewServiceRepository(pool),
		Banners:   pginfra.NewBannerRepository(pool),
		Histories: pginfra.NewTransactionHistoryRepository(pool),
		Tx:        pginfra.NewTransactor(pool),
	}
}

// Infra holds the optional external clients. Nil fields switch the matching
// feature off.
type Infra struct {
	Redis     *redis.Client
	Uploader  application.ObjectUploader
	Publisher application.Publisher
	ES        *elasticsearch.Client
	Ping      func(ctx context.Context) error
}

// Container shares constructed components with the router modules.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Redis  *redis.Client
	JWT    *helpers.JWTManager
	Ping   func(ctx context.Context) error

	Membership *application.MembershipService
	Catalog    *application.CatalogService
	Ledger     *application.LedgerService
	History    *application.HistoryService
	Indexer    *application.HistoryIndexer
}

func New(cfg *config.Config, logger *logrus.Logger, repos Repositories, infra Infra) *Container {
	branding := mailtpl.Branding{
		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,
		LogoURL:     cfg.LogoURL,
		SupportURL:  cfg.SupportURL,
	}
	jwt := helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	membership := application.NewMembershipService(repos.Users, jwt, infra.Redis, infra.Uploader, logger)
	membership.Publisher = infra.Publisher
	membership.Branding = branding

	var indexer *application.HistoryIndexer
	if infra.ES != nil {
		indexer = application.NewHistoryIndexer(infra.ES, cfg.ESTransactionsIndex, logger)
	}

	ledger := application.NewLedgerService(repos.Users, repos.Services, repos.Histories, repos.Tx, time.Now, logger)
	ledger.Publisher = infra.Publisher
	ledger.Branding = branding
	if cfg.LedgerInvoiceRetries > 0 {
		ledger.MaxInvoiceRetries = cfg.LedgerInvoiceRetries
	}

	history := application.NewHistoryService(repos.Users, repos.Histories, nil, logger)
	if indexer != nil {
		ledger.Indexer = indexer
		history.Searcher = indexer
	}

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Redis:      infra.Redis,
		JWT:        jwt,
		Ping:       infra.Ping,
		Membership: membership,
		Catalog:    application.NewCatalogService(repos.Services, repos.Banners, infra.Redis, cfg.CatalogCacheTTL, logger),
		Ledger:     ledger,
		History:    history,
		Indexer:    indexer,
	}
}
