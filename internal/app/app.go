package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/syncroom/server/internal/controller"
	"github.com/syncroom/server/internal/identity"
	"github.com/syncroom/server/internal/permission"
	"github.com/syncroom/server/internal/playlist"
	roomredis "github.com/syncroom/server/internal/repository/room/redis"
	"github.com/syncroom/server/internal/service/session"
	"github.com/syncroom/server/pkg/ctxlogger"
	"github.com/syncroom/server/pkg/redisclient"
)

type AppConfig struct {
	Secret            string        `json:"-"`
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	PlaylistLimit     int           `json:"playlist_limit"`
	ChatHistoryLimit  int           `json:"chat_history_limit"`
	DisconnectedGrace time.Duration `json:"disconnected_grace"`
	SweepInterval     time.Duration `json:"sweep_interval"`
	EmptyRoomGrace    time.Duration `json:"empty_room_grace"`
	ReapInterval      time.Duration `json:"reap_interval"`
	RoomTTL           time.Duration `json:"room_ttl"`
	LogLevel          string        `json:"log_level"`
	RedisPort         int           `json:"redis_port"`
	RedisHost         string        `json:"redis_host"`
	RedisPassword     string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must not be empty")
	}
	if cfg.PlaylistLimit < 1 {
		return fmt.Errorf("playlist limit must be greater than 0")
	}
	if cfg.ChatHistoryLimit < 1 {
		return fmt.Errorf("chat history limit must be greater than 0")
	}
	if cfg.DisconnectedGrace <= 0 {
		return fmt.Errorf("disconnected grace must be positive")
	}
	if cfg.EmptyRoomGrace <= 0 {
		return fmt.Errorf("empty room grace must be positive")
	}
	if cfg.RoomTTL <= cfg.EmptyRoomGrace {
		return fmt.Errorf("room ttl must exceed empty room grace")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomDir := roomredis.NewRepo(rc, logger)
	identities := identity.NewStore(logger)
	overlay := permission.NewOverlay()
	permissionModel := permission.NewModel(identities, roomDir, overlay, logger)
	engine := playlist.NewEngine(cfg.PlaylistLimit)

	sessionService := session.NewService(identities, permissionModel, overlay, engine, roomDir, session.Config{
		Secret:            cfg.Secret,
		ChatHistoryLimit:  cfg.ChatHistoryLimit,
		DisconnectedGrace: cfg.DisconnectedGrace,
		EmptyRoomGrace:    cfg.EmptyRoomGrace,
		AbsoluteRoomTTL:   cfg.RoomTTL,
	}, logger)

	controller := controller.NewController(sessionService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	go sessionService.RunPresenceSweeper(serverCtx, cfg.SweepInterval)
	go sessionService.RunRoomReaper(serverCtx, cfg.ReapInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	slog.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
