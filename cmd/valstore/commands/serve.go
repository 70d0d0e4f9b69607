package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valstore/valstore/catalog"
	"github.com/valstore/valstore/config"
	"github.com/valstore/valstore/db"
	"github.com/valstore/valstore/errors"
	"github.com/valstore/valstore/logger"
	"github.com/valstore/valstore/server"
	"github.com/valstore/valstore/store"
	"github.com/valstore/valstore/summary"
)

// ServeCmd starts the HTTP API server.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the valstore HTTP API server",
	Long: `Start the HTTP API server.

Opens (and migrates) the database, then serves the REST API until
interrupted.

Examples:
  valstore serve                   # Listen on the configured address
  valstore serve --addr :9000      # Override the listen address`,
	RunE: runServe,
}

var serveAddrFlag string

func init() {
	ServeCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "Listen address (overrides config)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	addr := cfg.Server.Addr
	if serveAddrFlag != "" {
		addr = serveAddrFlag
	}

	log := logger.Logger

	database, err := db.Open(cfg.Database.Path, log)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, log); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	stores := store.New(database, log)
	srv := server.New(
		catalog.New(stores, log),
		summary.NewService(stores, log),
		nil,
		log,
	)

	// Shut down cleanly on SIGINT/SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorw("Shutdown failed", "error", err)
		}
	}()

	return srv.Start(addr)
}
