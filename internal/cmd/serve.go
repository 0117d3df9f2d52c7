package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/craft_store/internal/httpserver"
	"github.com/Skotchmaster/craft_store/pkg/config"
	"github.com/Skotchmaster/craft_store/pkg/logging"
	"github.com/Skotchmaster/craft_store/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/craft_store/pkg/middleware/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg := loadConfig()
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustPositive(cfg.ServerPort, "SERVER_PORT")

	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	ctx = logging.IntoContext(ctx, l)

	a, err := newApp(ctx, cfg, l, true)
	if err != nil {
		return err
	}
	defer a.Close()

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure())
	e.Use(loggingmw.RequestLogger(l))
	if cfg.CSRFEnabled {
		cc := csrf.DefaultConfig()
		cc.Secure = cfg.CookieSecure
		e.Use(csrf.Middleware(cc))
	}

	deps := &httpserver.Deps{
		StockHandler: &httpserver.StockHTTP{Ledger: a.orders.Ledger, Scheduler: a.orders.Scheduler, Clock: a.repo, Catalog: a.repo},
		CartHandler:  &httpserver.CartHTTP{Carts: a.carts, Orders: a.orders},
		OrderHandler: &httpserver.OrderHTTP{Svc: a.orders},
		AdminHandler: &httpserver.AdminHTTP{Svc: a.orders},
		JWTSecret:    cfg.JWTAccessSecret,
	}
	if a.index != nil {
		deps.AdminHandler.Search = a.index
	}
	httpserver.Register(e, deps)

	errCh := make(chan error, 1)
	go func() {
		l.Info("starting http server", "port", cfg.ServerPort)
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("echo start: %w", err)
	}
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		l.Error("echo shutdown", "error", err)
	}

	l.Info("shutdown complete")
	return nil
}
