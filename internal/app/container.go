// Package app wires the application together: database, repositories, event
// bus, caches, collaboration hub and all command/query handlers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/atelier/internal/collab"
	"github.com/felixgeelhaar/atelier/internal/execution"
	identityCommands "github.com/felixgeelhaar/atelier/internal/identity/application/commands"
	identityQueries "github.com/felixgeelhaar/atelier/internal/identity/application/queries"
	"github.com/felixgeelhaar/atelier/internal/identity/application/subscribers"
	identityDomain "github.com/felixgeelhaar/atelier/internal/identity/domain"
	identityCache "github.com/felixgeelhaar/atelier/internal/identity/infrastructure/cache"
	projectCommands "github.com/felixgeelhaar/atelier/internal/projects/application/commands"
	projectQueries "github.com/felixgeelhaar/atelier/internal/projects/application/queries"
	projectsDomain "github.com/felixgeelhaar/atelier/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/atelier/internal/shared/application"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/atelier/internal/shared/infrastructure/database/sqlite" // Register SQLite driver
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/atelier/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/atelier/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	ProjectRepo projectsDomain.Repository
	UserRepo    identityDomain.Repository

	// Eventing
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus
	Subscribers       []eventbus.EventConsumer

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Collaboration
	Hub            *collab.Hub
	RoomAuthorizer collab.RoomAuthorizer

	// Code execution
	Runner *execution.Client

	// Leaderboard cache
	LeaderboardCache identityQueries.LeaderboardCache

	// Project command handlers
	CreateProjectHandler   *projectCommands.CreateProjectHandler
	ApplyToTaskHandler     *projectCommands.ApplyToTaskHandler
	AcceptApplicantHandler *projectCommands.AcceptApplicantHandler
	MarkCompleteHandler    *projectCommands.MarkCompleteHandler
	FinalizeTaskHandler    *projectCommands.FinalizeTaskHandler
	AddCodeFileHandler     *projectCommands.AddCodeFileHandler
	UpdateCodeFileHandler  *projectCommands.UpdateCodeFileHandler
	RenameCodeFileHandler  *projectCommands.RenameCodeFileHandler
	DeleteCodeFileHandler  *projectCommands.DeleteCodeFileHandler

	// Project query handlers
	GetProjectHandler      *projectQueries.GetProjectHandler
	ListProjectsHandler    *projectQueries.ListProjectsHandler
	PopularProjectsHandler *projectQueries.PopularProjectsHandler
	CompletionViewHandler  *projectQueries.GetCompletionViewHandler

	// Identity command handlers
	RegisterUserHandler *identityCommands.RegisterUserHandler
	AddSkillHandler     *identityCommands.AddSkillHandler
	SubmitRatingHandler *identityCommands.SubmitRatingHandler

	// Identity query handlers
	RankUsersHandler     *identityQueries.RankUsersHandler
	GetUserStatsHandler  *identityQueries.GetUserStatsHandler
	GetOnTimeRateHandler *identityQueries.GetOnTimeRateHandler
}

// NewContainer creates and wires all dependencies. With no DATABASE_URL the
// container runs in local mode: SQLite storage, in-process event bus, and no
// Redis requirement.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("database connected", "driver", c.DBDriver)

	if err := migrations.Run(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	c.UnitOfWork = database.NewUnitOfWork(conn)

	factory := NewRepositoryFactory(conn)
	if c.ProjectRepo, err = factory.ProjectRepository(); err != nil {
		conn.Close()
		return nil, err
	}
	if c.UserRepo, err = factory.UserRepository(); err != nil {
		conn.Close()
		return nil, err
	}

	// Leaderboard cache: Redis when configured, recompute-every-time otherwise.
	c.LeaderboardCache = noopLeaderboardCache{}
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		c.RedisClient = redis.NewClient(opt)
		c.LeaderboardCache = identityCache.NewRedisLeaderboardCache(c.RedisClient, cfg.LeaderboardCacheTTL, logger)
	}

	c.Subscribers = []eventbus.EventConsumer{
		subscribers.NewTaskCompletedSubscriber(c.UserRepo, c.LeaderboardCache, logger),
		subscribers.NewRatingSubmittedSubscriber(c.LeaderboardCache, logger),
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.EventPublisher = publisher
	} else {
		// Local mode: dispatch events synchronously in process.
		bus := eventbus.NewInProcessEventBus(logger)
		for _, sub := range c.Subscribers {
			bus.RegisterConsumer(sub)
		}
		c.InProcessEventBus = bus
		c.EventPublisher = bus
	}

	c.Hub = collab.NewHub(logger)
	c.RoomAuthorizer = &roomAuthorizer{projects: c.ProjectRepo}

	execCfg := execution.DefaultConfig(cfg.ExecutionURL)
	execCfg.RequestTimeout = cfg.ExecutionTimeout
	c.Runner = execution.NewClient(execCfg, logger)

	c.wireProjectHandlers()
	c.wireIdentityHandlers()

	return c, nil
}

func (c *Container) wireProjectHandlers() {
	c.CreateProjectHandler = projectCommands.NewCreateProjectHandler(c.ProjectRepo, c.UnitOfWork)
	c.ApplyToTaskHandler = projectCommands.NewApplyToTaskHandler(c.ProjectRepo, c.UnitOfWork)
	c.AcceptApplicantHandler = projectCommands.NewAcceptApplicantHandler(c.ProjectRepo, c.UnitOfWork)
	c.MarkCompleteHandler = projectCommands.NewMarkCompleteHandler(c.ProjectRepo, c.UnitOfWork, c.EventPublisher, c.Logger)
	c.FinalizeTaskHandler = projectCommands.NewFinalizeTaskHandler(c.ProjectRepo, c.UnitOfWork, c.EventPublisher, c.Logger)
	c.AddCodeFileHandler = projectCommands.NewAddCodeFileHandler(c.ProjectRepo, c.UnitOfWork)
	c.UpdateCodeFileHandler = projectCommands.NewUpdateCodeFileHandler(c.ProjectRepo, c.UnitOfWork)
	c.RenameCodeFileHandler = projectCommands.NewRenameCodeFileHandler(c.ProjectRepo, c.UnitOfWork)
	c.DeleteCodeFileHandler = projectCommands.NewDeleteCodeFileHandler(c.ProjectRepo, c.UnitOfWork)

	c.GetProjectHandler = projectQueries.NewGetProjectHandler(c.ProjectRepo)
	c.ListProjectsHandler = projectQueries.NewListProjectsHandler(c.ProjectRepo)
	c.PopularProjectsHandler = projectQueries.NewPopularProjectsHandler(c.ProjectRepo)
	c.CompletionViewHandler = projectQueries.NewGetCompletionViewHandler(c.ProjectRepo)
}

func (c *Container) wireIdentityHandlers() {
	gate := &ratingGate{projects: c.ProjectRepo}
	stats := &collaborationStats{projects: c.ProjectRepo, now: func() time.Time { return time.Now().UTC() }}

	c.RegisterUserHandler = identityCommands.NewRegisterUserHandler(c.UserRepo, c.UnitOfWork)
	c.AddSkillHandler = identityCommands.NewAddSkillHandler(c.UserRepo, c.UnitOfWork)
	c.SubmitRatingHandler = identityCommands.NewSubmitRatingHandler(c.UserRepo, gate, c.UnitOfWork, c.EventPublisher, c.Logger)

	c.RankUsersHandler = identityQueries.NewRankUsersHandler(c.UserRepo, c.LeaderboardCache)
	c.GetUserStatsHandler = identityQueries.NewGetUserStatsHandler(c.UserRepo, stats)
	c.GetOnTimeRateHandler = identityQueries.NewGetOnTimeRateHandler(stats)
}

// Close releases all container resources.
func (c *Container) Close() error {
	var firstErr error

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
