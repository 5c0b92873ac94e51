package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"track-resolver/core/loader"
	"track-resolver/core/logger"
	"track-resolver/core/middleware/auth"
	"track-resolver/core/middleware/rayid"
	"track-resolver/feature/integrity"
	"track-resolver/feature/tracks"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Track Resolver API
// @version 1.0
// @description Operator API over resolved feed tracks.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the operator API",
	Long: `Loads the store from the configured snapshot backend and serves it over HTTP.
Re-resolution passes can be started through POST /tracks/rerun.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.close()
		logg := svc.logger

		// Reruns need the directory API; without credentials the API is read-only.
		var rerunner tracks.Rerunner = readOnly{}
		if sched, err := svc.newScheduler(nil); err != nil {
			logg.Warn("Reruns disabled", zap.Error(err))
		} else {
			rerunner = sched
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		trackFeature := tracks.NewFeature(svc.store, rerunner, logg)
		mgr := loader.NewManager(logg)
		mgr.Register(trackFeature)
		mgr.Register(integrity.NewFeature(svc.objects, svc.cfg.Storage, svc.db, svc.cfg.Snapshot, logg))

		// RayID first so every later log line carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: svc.cfg.Server.ApiKey}))
		if svc.cfg.Server.ApiKey == "" {
			logg.Warn("SERVER_API_KEY is empty, the API is unauthenticated")
		}

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", svc.cfg.Server.Port))
			errCh <- app.Listen(":" + svc.cfg.Server.Port)
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		logg.Info("Shutting down server...")
		_ = app.Shutdown()
		trackFeature.Close()
		if err := svc.store.Checkpoint(cmd.Context()); err != nil {
			logg.Error("Final checkpoint failed", zap.Error(err))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
