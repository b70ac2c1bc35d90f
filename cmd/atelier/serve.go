package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/atelier/adapter/api"
	"github.com/felixgeelhaar/atelier/internal/app"
	"github.com/felixgeelhaar/atelier/pkg/config"
	"github.com/felixgeelhaar/atelier/pkg/observability"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and collaboration hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       observability.LogLevel(cfg.LogLevel),
		ServiceName: "atelier",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	go container.Hub.Run(ctx)

	projects := api.NewProjectHandler(api.ProjectHandlerConfig{
		CreateProject:  container.CreateProjectHandler,
		ApplyToTask:    container.ApplyToTaskHandler,
		Accept:         container.AcceptApplicantHandler,
		MarkComplete:   container.MarkCompleteHandler,
		Finalize:       container.FinalizeTaskHandler,
		AddFile:        container.AddCodeFileHandler,
		UpdateFile:     container.UpdateCodeFileHandler,
		RenameFile:     container.RenameCodeFileHandler,
		DeleteFile:     container.DeleteCodeFileHandler,
		GetProject:     container.GetProjectHandler,
		ListProjects:   container.ListProjectsHandler,
		Popular:        container.PopularProjectsHandler,
		CompletionView: container.CompletionViewHandler,
		ProjectRepo:    container.ProjectRepo,
		Runner:         container.Runner,
		Hub:            container.Hub,
		Logger:         logger,
	})
	users := api.NewUserHandler(api.UserHandlerConfig{
		Register:     container.RegisterUserHandler,
		AddSkill:     container.AddSkillHandler,
		SubmitRating: container.SubmitRatingHandler,
		RankUsers:    container.RankUsersHandler,
		UserStats:    container.GetUserStatsHandler,
		OnTimeRate:   container.GetOnTimeRateHandler,
		Logger:       logger,
	})
	ws := api.NewWSHandler(container.Hub, container.RoomAuthorizer, container.UserRepo, logger)
	auth := api.NewHeaderAuthenticator(cfg.TrustedUserIDHeader)

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	serverCfg.ReadTimeout = cfg.ReadTimeout
	serverCfg.WriteTimeout = cfg.WriteTimeout
	server := api.NewServer(serverCfg, auth, projects, users, ws, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	container.Hub.Wait()
	return nil
}
