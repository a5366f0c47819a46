package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/controller"
	"github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	directoryredis "github.com/sharetube/watchparty/internal/repository/directory/redis"
	roomrepo "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	"github.com/sharetube/watchparty/internal/service"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/redisclient"
	"github.com/sharetube/watchparty/pkg/validator"
)

const directoryExpiration = 24 * time.Hour

type AppConfig struct {
	Host           string   `json:"host" validate:"required"`
	Port           int      `json:"port" validate:"gte=1,lte=65535"`
	LogLevel       string   `json:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
	AllowedOrigins []string `json:"allowed_origins"`
	MembersLimit   int      `json:"members_limit" validate:"gte=0"`
	RedisHost      string   `json:"redis_host"`
	RedisPort      int      `json:"redis_port" validate:"gte=1,lte=65535"`
	RedisPassword  string   `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)

	if errs, ok := validator.NewValidator().Validate(cfg); !ok {
		return fmt.Errorf("invalid config: %w", validator.Join(errs))
	}

	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(h), nil
}

// newHandler wires repositories, the service and the controller. The returned
// cleanup releases the redis client when the directory is enabled.
func newHandler(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (http.Handler, func(), error) {
	cleanup := func() {}

	serviceCfg := &service.Config{MembersLimit: cfg.MembersLimit}
	ctrlCfg := &controller.Config{AllowedOrigins: cfg.AllowedOrigins}
	if cfg.RedisHost != "" {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		cleanup = closeRedis(rc, logger)

		dir := directoryredis.NewRepo(rc, directoryExpiration, logger)
		serviceCfg.Directory = dir
		ctrlCfg.Directory = dir
		logger.InfoContext(ctx, "room directory enabled", "redis_host", cfg.RedisHost, "redis_port", cfg.RedisPort)
	}

	roomService := service.New(roomrepo.NewRepo(logger), inmemory.NewRepo(logger), serviceCfg, logger)
	ctrl := controller.NewController(roomService, ctrlCfg, logger)

	return ctrl.GetMux(), cleanup, nil
}

func closeRedis(rc *redis.Client, logger *slog.Logger) func() {
	return func() {
		if err := rc.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	handler, cleanup, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()

	return nil
}
