package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gas-market/core/loader"
	"gas-market/core/logger"
	authmw "gas-market/core/middleware/auth"
	"gas-market/core/middleware/rayid"
	"gas-market/core/security"
	"gas-market/feature/auth"
	"gas-market/feature/gasmarket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "gas-market/docs/swagger"
)

// @title Gas Market API
// @version 1.0
// @description Ingestion, reconciliation and export of MERCADO_GAS price records.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// apiPrefix is the router every feature is loaded on.
const apiPrefix = "/api"

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gas market server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.close()
		zap.ReplaceGlobals(rt.log)
		logg := rt.log

		tokens, err := security.NewTokenManager(rt.cfg.Auth)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}

		opts, err := gasmarket.OptionsFromConfig(rt.cfg, rt.client)
		if err != nil {
			return err
		}

		app := newApp(rt.cfg.Server.BodyLimit(), logg)

		mgr := loader.NewManager(logg)
		mgr.Register(auth.NewFeature(rt.db, tokens, logg))
		mgr.Register(gasmarket.NewFeature(rt.db, logg, opts))

		api := app.Group(apiPrefix, authmw.New(authmw.Config{
			Tokens: tokens,
			Skip: func(c *fiber.Ctx) bool {
				return c.Path() == apiPrefix+auth.LoginPath
			},
		}))
		if err := mgr.LoadAll(api); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
			errCh <- app.Listen(":" + rt.cfg.Server.Port)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case <-quit:
		}

		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	},
}

// newApp builds the Fiber app with the public routes and global middleware.
func newApp(bodyLimit int, logg *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
	})

	// RayID first so every later log line carries it.
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		start := time.Now()
		err := c.Next()
		l.Info("Request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}

func init() {
	RootCmd.AddCommand(startCmd)
}
