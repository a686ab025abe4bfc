package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-drink-stand/config"
	"go-drink-stand/controllers"
	"go-drink-stand/database"
	"go-drink-stand/helpers"
	"go-drink-stand/middleware"
	"go-drink-stand/monitoring"
	"go-drink-stand/realtime"
	"go-drink-stand/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Long: `Run the HTTP and websocket server.

Settings come from the environment and the optional .env file. With
REDIS_ADDR set, store changes are shared with other instances through redis
so every instance's live pages follow every write.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, log)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	gin.SetMode(cfg.GinMode)

	store, err := database.Open(ctx, cfg.StoreDriver, cfg.StoreDSN(), cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())
	log.Info("record store ready", "driver", cfg.StoreDriver)

	hub := realtime.NewHub()
	var pub realtime.Publisher = hub
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		bridge := realtime.NewRedisBridge(client, realtime.DefaultChannel, hub, log)
		pub = bridge
		go bridge.Serve(ctx)
	}

	passwordHash := cfg.AdminPasswordHash
	if passwordHash == "" {
		if passwordHash, err = helpers.HashPassword(cfg.AdminPassword); err != nil {
			return err
		}
	}
	auth := helpers.NewAuthProvider(cfg.SecretKey, passwordHash, cfg.SessionTTL)
	defer auth.Close()

	metrics := monitoring.New()
	ctl := controllers.New(controllers.Options{
		Store:        database.WithNotifications(store, pub, log),
		Feed:         hub,
		Auth:         auth,
		Metrics:      metrics,
		Log:          log,
		Flagship:     cfg.CatalogFlagship,
		Priority:     cfg.CatalogPriority,
		StoreTimeout: cfg.StoreTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, ctl, auth, metrics, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the gin engine with CORS, logging and every route.
func NewRouter(cfg config.Config, ctl *controllers.Controller, auth *helpers.AuthProvider, metrics *monitoring.Metrics, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}
	router.Use(middleware.RequestLogger(log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "token"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Register(router, ctl, auth, metrics)
	return router
}
