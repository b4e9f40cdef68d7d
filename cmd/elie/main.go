package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/elieapp/elie/pkg/config"
	"github.com/elieapp/elie/pkg/graph"
	"github.com/elieapp/elie/pkg/model"
	"github.com/elieapp/elie/pkg/model/gemini"
	"github.com/elieapp/elie/pkg/model/openai"
	"github.com/elieapp/elie/pkg/server"
	"github.com/elieapp/elie/pkg/state"
	"github.com/elieapp/elie/pkg/store"
	"github.com/elieapp/elie/pkg/store/memory"
	"github.com/elieapp/elie/pkg/store/sqlite"
	"github.com/elieapp/elie/web"
	"github.com/spf13/cobra"
)

var (
	flagAddr   string
	flagConfig string
	flagDB     string
)

var rootCmd = &cobra.Command{
	Use:           "elie",
	Short:         "elie serves adaptive explanations over an evolving concept map",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config and PORT)")
	rootCmd.Flags().StringVar(&flagConfig, "config", "elie.toml", "path to TOML config file")
	rootCmd.Flags().StringVar(&flagDB, "db", "", "sqlite database path (default: in-memory store)")
}

func main() {
	// Setup logger.
	opts := &slog.HandlerOptions{Level: logLevel()}
	logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("elie failed", "error", err)
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagDB != "" {
		cfg.Server.DBPath = flagDB
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize store.
	var st store.SessionStore
	if cfg.Server.DBPath != "" {
		os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0755)
		st, err = sqlite.New(cfg.Server.DBPath)
		if err != nil {
			return fmt.Errorf("initializing store: %w", err)
		}
		slog.Info("Using sqlite store", "path", cfg.Server.DBPath)
	} else {
		st = memory.New()
	}
	defer st.Close()

	// Initialize model provider.
	completer, err := newCompleter(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	gen := model.NewClient(completer, cfg.LLM.MaxAttempts, cfg.LLM.RetryDelay.Std())

	mgr := state.NewManager(st, gen, state.Config{
		StarterTerms:    cfg.LLM.StarterTerms,
		FurtherTerms:    cfg.LLM.FurtherTerms,
		SuggestionTerms: cfg.LLM.SuggestionTerms,
	})
	eng := graph.NewEngine(cfg.Layout, cfg.Force, cfg.Visual)

	// Sweep idle sessions in the background.
	if ttl := cfg.Server.SessionTTL.Std(); ttl > 0 {
		go janitor(ctx, st, ttl)
	}

	srv := server.New(mgr, st, eng, web.Dist(), cfg.Server.AllowedOrigins)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", cfg.Server.Addr, "provider", completer.Name())
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newCompleter picks the provider the config resolved to. Load has
// already folded GEMINI_API_KEY / LLM_ENDPOINT into cfg, so "auto"
// surviving to this point means neither was set.
func newCompleter(ctx context.Context, cfg config.LLMConfig) (model.Completer, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return gemini.New(ctx, cfg.APIKey, cfg.GeminiModel)
	case "openai":
		return openai.New(cfg.Endpoint, cfg.APIKey, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("no model provider configured: set GEMINI_API_KEY or LLM_ENDPOINT")
	}
}

// janitor deletes sessions that have gone idle for longer than ttl.
func janitor(ctx context.Context, st store.SessionStore, ttl time.Duration) {
	interval := ttl / 4
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.DeleteExpired(ctx, time.Now().Add(-ttl))
			if err != nil {
				slog.Error("Session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Swept idle sessions", "count", n)
			}
		}
	}
}
