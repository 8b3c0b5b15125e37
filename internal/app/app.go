package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sharetube/watchtogether/internal/controller"
	"github.com/sharetube/watchtogether/internal/domain"
	chatInmemory "github.com/sharetube/watchtogether/internal/repository/chat/inmemory"
	chatRedis "github.com/sharetube/watchtogether/internal/repository/chat/redis"
	connInmemory "github.com/sharetube/watchtogether/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchtogether/internal/repository/room/inmemory"
	"github.com/sharetube/watchtogether/internal/service/room"
	"github.com/sharetube/watchtogether/pkg/ctxlogger"
	"github.com/sharetube/watchtogether/pkg/redisclient"
)

const (
	ChatStoreMemory = "memory"
	ChatStoreRedis  = "redis"

	chatExpire = 24 * time.Hour
)

type AppConfig struct {
	Host             string `json:"host"`
	Port             int    `json:"port"`
	LogLevel         string `json:"log_level"`
	MembersLimit     int    `json:"members_limit"`
	PlaylistLimit    int    `json:"playlist_limit"`
	ChatStore        string `json:"chat_store"`
	ChatHistoryLimit int    `json:"chat_history_limit"`
	StrictReorder    bool   `json:"strict_reorder"`
	RedisPort        int    `json:"redis_port"`
	RedisHost        string `json:"redis_host"`
	RedisPassword    string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.MembersLimit < 0 {
		return fmt.Errorf("members limit must not be negative")
	}
	if cfg.PlaylistLimit < 0 {
		return fmt.Errorf("playlist limit must not be negative")
	}
	if cfg.ChatHistoryLimit < 1 {
		return fmt.Errorf("chat history limit must be greater than 0")
	}
	switch cfg.ChatStore {
	case ChatStoreMemory, ChatStoreRedis:
	default:
		return fmt.Errorf("unknown chat store %q", cfg.ChatStore)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

type chatRepo interface {
	Append(ctx context.Context, roomId string, msg domain.ChatMessage) error
	List(ctx context.Context, roomId string) ([]domain.ChatMessage, error)
	Delete(ctx context.Context, roomId string) error
}

// newChatRepo picks the chat history store. The returned closer releases the redis
// client when one was opened.
func newChatRepo(cfg *AppConfig, logger *slog.Logger) (chatRepo, io.Closer, error) {
	switch cfg.ChatStore {
	case ChatStoreRedis:
		rc, err := redisclient.NewRedisClient(&redisclient.Config{
			Port:     cfg.RedisPort,
			Host:     cfg.RedisHost,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}

		return chatRedis.NewRepo(rc, cfg.ChatHistoryLimit, chatExpire, logger), rc, nil
	case ChatStoreMemory:
		return chatInmemory.NewRepo(cfg.ChatHistoryLimit, logger), io.NopCloser(nil), nil
	}

	return nil, nil, fmt.Errorf("unknown chat store %q", cfg.ChatStore)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		logLevel = slog.LevelInfo
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

// newHandler assembles repositories, service and controller into the server's http handler.
func newHandler(cfg *AppConfig, logger *slog.Logger) (http.Handler, io.Closer, error) {
	chatRepo, closer, err := newChatRepo(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	roomRepo := roomInmemory.NewRepo(cfg.PlaylistLimit, logger)
	connectionRepo := connInmemory.NewRepo(logger)
	roomService := room.NewService(roomRepo, connectionRepo, chatRepo, &room.Config{
		MembersLimit:  cfg.MembersLimit,
		StrictReorder: cfg.StrictReorder,
	}, clock.New(), logger)
	controller := controller.NewController(roomService, logger)

	return controller.GetMux(), closer, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(os.Stdout, cfg.LogLevel)

	handler, closer, err := newHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

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

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "chat_store", cfg.ChatStore)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()

	return nil
}
