package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bulletnotes/config/database"
	"bulletnotes/internal/note/model"
	"bulletnotes/internal/note/repository"
	"bulletnotes/pkg/logger"
	"bulletnotes/router"

	"github.com/spf13/cobra"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the notes HTTP API",
	PreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db := connect(ctx)
		defer database.Close()

		if autoMigrate {
			if err := repository.Migrate(ctx, db, model.DefaultSearchIndex); err != nil {
				return err
			}
		}

		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router.Setup(db, router.Options{AllowedOrigins: cfg.AllowedOrigins}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Sugar.Infof("Notes API listening on %s", srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Sugar.Info("Shutting down notes API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// connect opens the database pool. A failure here stops the process so a
// supervisor can restart it.
func connect(ctx context.Context) *sql.DB {
	db, err := database.Connect(ctx, database.Options{
		DSN:          cfg.DatabaseURL,
		Attempts:     cfg.ConnectAttempts,
		RetryDelay:   2 * time.Second,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		logger.Sugar.Fatalf("Could not connect to database: %v", err)
	}
	return db
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply the notes schema before serving")
}
