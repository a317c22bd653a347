package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/grok-search/internal/config"
	"github.com/young1lin/grok-search/internal/handler"
	"github.com/young1lin/grok-search/internal/search"
	"github.com/young1lin/grok-search/internal/storage"
	"github.com/young1lin/grok-search/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile  string
	logLevel string
	showVer  bool
)

var rootCmd = &cobra.Command{
	Use:   "grok-search",
	Short: "MCP server for web search and page fetching through Grok",
	Long: `An MCP server speaking stdio that exposes web_search, web_fetch, get_config_info,
switch_model and toggle_builtin_tools. Searches and fetches are delegated to a
Grok model behind an OpenAI-compatible chat-completions endpoint.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVer {
			fmt.Fprintf(os.Stderr, "grok-search %s (built %s)\n", Version, BuildDate)
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override config with command line flags
		level := cfg.LogLevel()
		if logLevel != "" && !cfg.DebugEnabled() {
			level = logLevel
		}

		// Initialize logger
		if err := logger.Init(logger.Options{
			Level:  level,
			Format: cfg.LogFormat(),
			Dir:    cfg.LogDir(),
		}); err != nil {
			return err
		}
		defer logger.Sync()

		logger.Info("starting server",
			zap.String("version", Version),
			zap.String("model", cfg.Model()),
			zap.String("config_file", cfg.ConfigFile()),
			zap.Bool("debug", cfg.DebugEnabled()),
		)

		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "settings file path (default ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	history := openHistory(cfg)
	if history != nil {
		defer history.Close()
	}

	s := server.NewMCPServer("grok-search", Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
	)
	handler.NewTools(cfg, history, search.NewProvider).Register(s)

	// Stdio closes on its own when the client hangs up; signals cover the interactive case
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stdio := server.NewStdioServer(s)
	logger.Info("serving MCP over stdio")

	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// openHistory opens the call journal when configured. A journal that cannot be
// opened is logged and skipped; the tools work without it.
func openHistory(cfg *config.Config) *storage.CallStore {
	path := cfg.HistoryPath()
	if path == "" {
		return nil
	}
	store, err := storage.NewCallStore(path, cfg.HistoryMaxEntries())
	if err != nil {
		logger.Warn("call history unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	return store
}
