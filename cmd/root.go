// cmd/root.go
//
// Command line entry point.
//   memory-server            serve HTTP + WebSocket on $PORT
//   memory-server symbols    print the tile alphabet
//
// Flags override values from the environment and the .env file.

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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/memory/apps/go-server/internal/config"
	"github.com/robalobadob/memory/apps/go-server/internal/httpserver"
	"github.com/robalobadob/memory/apps/go-server/internal/store"
	"github.com/robalobadob/memory/apps/go-server/internal/symbols"
)

var (
	envFile     string
	port        string
	logLevel    string
	pairs       int
	symbolsFile string
	pretty      bool
)

var rootCmd = &cobra.Command{
	Use:   "memory-server",
	Short: "Serve the memory tile-matching game",
	Long: `memory-server hosts single-player memory games over HTTP and WebSocket.

Run with no arguments to serve on $PORT (default 5175)
	memory-server

Override settings from the environment or a .env file with flags
	memory-server --port 8080 --pairs 6 --log-level debug
`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Print the tile alphabet the server would deal from",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := symbols.Init(cfg.SymbolsFile); err != nil {
			return err
		}
		for i, s := range symbols.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i, s)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d symbols, %d pairs per board\n", symbols.Stats(), cfg.Rules.Pairs)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Read environment variables from this file if it exists")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "zerolog level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().IntVarP(&pairs, "pairs", "n", 0, "Pairs per board (overrides GAME_PAIRS)")
	rootCmd.PersistentFlags().StringVar(&symbolsFile, "symbols", "", "YAML alphabet file (overrides SYMBOLS_FILE)")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "Human-readable console logs")

	rootCmd.AddCommand(symbolsCmd)
}

// loadConfig resolves env, .env and then any flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("pairs") {
		cfg.Rules.Pairs = pairs
	}
	if flags.Changed("symbols") {
		cfg.SymbolsFile = symbolsFile
	}

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return cfg, nil
}

func serve(cfg config.Config) error {
	if err := symbols.Init(cfg.SymbolsFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load symbols")
	}
	if cfg.SessionSecret == config.DevSecret {
		log.Warn().Msg("SESSION_SECRET not set; using development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	go store.Janitor(ctx, mem, time.Minute, cfg.SessionTTL)

	srv, err := httpserver.New(mem, httpserver.Options{
		Alphabet:      symbols.All(),
		Rules:         cfg.Rules,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: cfg.SecureCookies,
	})
	if err != nil {
		return err
	}

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Int("pairs", cfg.Rules.Pairs).Int("symbols", symbols.Stats()).Msg("starting go-server")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
