package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/botornot/internal/ai"
	"github.com/kiliankoe/botornot/internal/ai/ollama"
	"github.com/kiliankoe/botornot/internal/ai/openai"
	"github.com/kiliankoe/botornot/internal/config"
	"github.com/kiliankoe/botornot/internal/game"
	"github.com/kiliankoe/botornot/internal/profile"
	"github.com/kiliankoe/botornot/internal/topics"
	"github.com/kiliankoe/botornot/internal/web"
	"github.com/kiliankoe/botornot/internal/ws"
	staticserver "github.com/kiliankoe/botornot/static"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const version = "v1.0.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "botornot",
		Short:         "Bot or Not - real-time party game: spot the AI answer",
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringP("port", "p", "3001", "port to listen on (env: PORT)")
	fs.String("log-level", "info", "trace, debug, info, warn or error (env: LOG_LEVEL)")
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		v := viper.New()
		v.AutomaticEnv()
		config.SetDefaults(v)
		_ = v.BindPFlag("port", fs.Lookup("port"))
		_ = v.BindPFlag("log_level", fs.Lookup("log-level"))
		return run(cmd.Context(), config.FromViper(v))
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("botornot {{.Version}}\n")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	setupLogging(cfg.LogLevel)

	catalog, err := loadTopics(cfg.TopicsFile)
	if err != nil {
		return err
	}

	store, closeStore, err := openProfiles(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeStore()

	sock := ws.New(profile.NewProvider(store), cfg.CORSOrigin)
	opts := game.Options{
		VoteDuration:      cfg.VoteTime,
		GameOverGrace:     cfg.GameOverGrace,
		IdleTimeout:       cfg.IdleRoomTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
		DebugControls:     cfg.DebugControls,
	}
	if cfg.ExportEnabled {
		opts.ExportFile = cfg.ExportFile
	}
	engine := game.NewEngine(game.NewRegistry(game.NewMemoryRepository()), catalog, newImpostor(cfg), sock, opts)
	sock.SetEngine(engine)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		zerologlog.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	io := sock.Mount(r)
	defer io.Close()

	web.Register(r, engine, catalog, web.Options{
		PublicURL: cfg.PublicURL,
		AdminUser: cfg.AdminUser,
		AdminPass: cfg.AdminPass,
	})

	// Serve frontend for all other routes
	app := staticserver.Handler(staticserver.ClientConfig{
		PublicURL:     cfg.PublicURL,
		DebugControls: cfg.DebugControls,
	})
	r.NoRoute(func(c *gin.Context) {
		app.ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		zerologlog.Info().Str("port", cfg.Port).Str("provider", cfg.AIProvider).Str("model", cfg.AIModel).Bool("debug", cfg.DebugControls).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zerologlog.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func loadTopics(path string) (*topics.Catalog, error) {
	if path == "" {
		return topics.Default()
	}
	c, err := topics.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	zerologlog.Info().Str("file", path).Int("topics", len(c.Topics())).Msg("topics loaded")
	return c, nil
}

func openProfiles(databaseURL string) (profile.Store, func(), error) {
	if databaseURL == "" {
		zerologlog.Warn().Msg("DATABASE_URL not set, profiles are kept in memory")
		return profile.NewMemoryStore(), func() {}, nil
	}
	pg, err := profile.NewPostgresStore(databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open profile store: %w", err)
	}
	return pg, func() { _ = pg.Close() }, nil
}

func newImpostor(cfg config.Config) *ai.Impostor {
	var p ai.Provider
	switch cfg.AIProvider {
	case "ollama":
		p = ollama.New(cfg.OllamaHost)
	default:
		if cfg.AIAPIKey == "" {
			zerologlog.Warn().Msg("no AI API key set, every round will use a fallback answer")
		}
		p = openai.New(cfg.AIAPIKey, cfg.AIBaseURL)
	}
	return ai.NewImpostor(p, cfg.AIModel, cfg.SystemPrompt, cfg.HumanizeChance)
}
