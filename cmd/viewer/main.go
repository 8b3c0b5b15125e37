package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/sharetube/watchtogether/internal/viewer"
	"github.com/sharetube/watchtogether/pkg/ctxlogger"
)

var rootCmd = &cobra.Command{
	Use:   "viewer",
	Short: "Join a watch-together room with a simulated player",
	RunE:  runViewer,
}

var (
	flagServerURL      string
	flagRoom           string
	flagName           string
	flagPassword       string
	flagRounds         int
	flagSuppressWindow time.Duration
	flagStateWait      time.Duration
	flagLogLevel       string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServerURL, "server", "ws://localhost:8080/api/v1/ws", "websocket endpoint of the server")
	flags.StringVar(&flagRoom, "room", "", "room id to join")
	flags.StringVar(&flagName, "name", "Anon", "display name")
	flags.StringVar(&flagPassword, "password", "", "room password")
	flags.IntVar(&flagRounds, "rounds", viewer.DefaultSyncRounds, "clock sync rounds")
	flags.DurationVar(&flagSuppressWindow, "suppress-window", viewer.DefaultCorrectorConfig().SuppressWindow, "how long local events are ignored after a remote change")
	flags.DurationVar(&flagStateWait, "state-wait", 3*time.Second, "how long to wait for the host's state after joining")
	flags.StringVar(&flagLogLevel, "log-level", "INFO", "logging level")
	_ = rootCmd.MarkPersistentFlagRequired("room")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return slog.New(&ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}), nil
}

func runViewer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(flagLogLevel)
	if err != nil {
		return err
	}

	correctorCfg := viewer.DefaultCorrectorConfig()
	correctorCfg.SuppressWindow = flagSuppressWindow

	var password *string
	if flagPassword != "" {
		password = &flagPassword
	}

	clk := clock.New()
	player := viewer.NewSimPlayer(clk)
	session, err := viewer.Dial(ctx, viewer.SessionConfig{
		ServerURL:  flagServerURL,
		RoomId:     flagRoom,
		Name:       flagName,
		Password:   password,
		SyncRounds: flagRounds,
		StateWait:  flagStateWait,
		Corrector:  correctorCfg,
	}, player, clk, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	go readCommands(ctx, cmd, session, player, logger)

	return session.Run(ctx)
}

// readCommands drives the simulated player from stdin, one command per line.
func readCommands(ctx context.Context, cmd *cobra.Command, session *viewer.Session, player *viewer.SimPlayer, logger *slog.Logger) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "play":
			player.Play()
		case "pause":
			player.Pause()
		case "seek":
			if len(fields) < 2 {
				err = fmt.Errorf("usage: seek <seconds>")
				break
			}
			var position float64
			position, err = strconv.ParseFloat(fields[1], 64)
			if err == nil {
				player.Seek(position)
			}
		case "source":
			if len(fields) < 2 {
				err = fmt.Errorf("usage: source <url>")
				break
			}
			err = session.SetSource(fields[1])
		case "enqueue":
			if len(fields) < 2 {
				err = fmt.Errorf("usage: enqueue <url> [title]")
				break
			}
			err = session.Enqueue(fields[1], strings.Join(fields[2:], " "))
		case "next":
			err = session.Next()
		case "chat":
			err = session.Chat(strings.Join(fields[1:], " "))
		case "leave":
			err = session.Leave()
		case "status":
			fmt.Fprintf(cmd.OutOrStdout(), "conn=%s host=%t source=%q position=%.2f paused=%t rate=%.2f queue=%d offset=%.3f\n",
				session.ConnId(), session.IsHost(), session.Source(), player.Position(), player.Paused(),
				player.Rate(), len(session.Queue()), session.Corrector().Offset())
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
		if err != nil {
			logger.WarnContext(ctx, "command failed", "command", fields[0], "error", err)
		}
	}
}
