// Package main provides the vibesync CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"vibesync/internal/core"
	"vibesync/internal/drive"
	httpserver "vibesync/internal/http"
	"vibesync/internal/spotify"
	"vibesync/internal/store"
)

const (
	defaultServerHost = "0.0.0.0"
	// linkCacheSize bounds the cross-run foreign-link resolution cache.
	linkCacheSize = 10000
	// linkCacheFalsePositiveRate tunes the cache's Bloom prefilter.
	linkCacheFalsePositiveRate = 0.001
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vibesync",
	Short: "vibesync - WhatsApp chat export → Spotify playlist sync",
	Long: `vibesync keeps a Spotify playlist synchronized with the music links found in a
WhatsApp chat export stored on Google Drive, preserving chat chronology.`,
	RunE: runVibesync,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("drive-credentials-json", "", "Google service account credentials content")
	rootCmd.PersistentFlags().String("drive-credentials-path", "", "Google service account credentials file")
	rootCmd.PersistentFlags().String("drive-folder-id", "", "Google Drive input folder ID")
	rootCmd.PersistentFlags().String("drive-archive-name", "", "chat archive file name on Drive")
	rootCmd.PersistentFlags().String("drive-chat-file-pattern", "", "regexp matching the chat text inside the archive")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("spotify-redirect-url", "", "Spotify OAuth redirect URL")
	rootCmd.PersistentFlags().String("spotify-playlist-id", "", "Spotify playlist ID")
	rootCmd.PersistentFlags().String("spotify-token-path", "", "Spotify OAuth token file")
	rootCmd.PersistentFlags().Bool("destructive-sync", false, "enable removals to fully match chat order")
	rootCmd.PersistentFlags().Bool("watch", false, "run periodically with the metrics server instead of once")
	rootCmd.PersistentFlags().Int("watch-interval-secs", core.DefaultWatchIntervalSecs, "delay between runs in watch mode")
	rootCmd.PersistentFlags().String("summary-log-path", core.DefaultSummaryLogPath, "append-only run summary log")
	rootCmd.PersistentFlags().String("server-host", defaultServerHost, "HTTP server host (watch mode)")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port (watch mode)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("VIBESYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Drive.CredentialsJSON = viper.GetString("drive-credentials-json")
	cfg.Drive.CredentialsPath = viper.GetString("drive-credentials-path")
	cfg.Drive.FolderID = viper.GetString("drive-folder-id")
	if name := viper.GetString("drive-archive-name"); name != "" {
		cfg.Drive.ArchiveName = name
	}
	if pattern := viper.GetString("drive-chat-file-pattern"); pattern != "" {
		cfg.Drive.ChatFilePattern = pattern
	}

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	if redirect := viper.GetString("spotify-redirect-url"); redirect != "" {
		cfg.Spotify.RedirectURL = redirect
	}
	cfg.Spotify.PlaylistID = viper.GetString("spotify-playlist-id")
	if tokenPath := viper.GetString("spotify-token-path"); tokenPath != "" {
		cfg.Spotify.TokenPath = tokenPath
	}
	cfg.Spotify.TokenContent = viper.GetString("spotify-token-content")

	cfg.Sync.Destructive = viper.GetBool("destructive-sync")
	if interval := viper.GetInt("watch-interval-secs"); interval > 0 {
		cfg.Sync.WatchIntervalSecs = interval
	}
	if logPath := viper.GetString("summary-log-path"); logPath != "" {
		cfg.Sync.SummaryLogPath = logPath
	}

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	cfg.Server.Port = viper.GetInt("server-port")

	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runVibesync(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting vibesync",
		zap.String("playlist", config.Spotify.PlaylistID),
		zap.Bool("destructive", config.Sync.Destructive))

	if reason, err := validateConfig(); err != nil {
		recordBlockedRun(reason)
		return err
	}

	driveClient, err := drive.NewClient(ctx, &config.Drive, logger.Named("drive"))
	if err != nil {
		recordBlockedRun(core.FailureDriveAuth)
		return fmt.Errorf("failed to connect to Google Drive: %w", err)
	}

	spotifyClient := spotify.NewClient(&config.Spotify, logger.Named("spotify"))
	if err := spotifyClient.Authenticate(ctx); err != nil {
		recordBlockedRun(core.FailureSpotifyAuth)
		return fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}

	cache := store.NewLinkCache(linkCacheSize, linkCacheFalsePositiveRate)
	resolver := core.NewResolver(spotifyClient, core.NewAppleMusicAdapter(), cache, logger.Named("resolver"))
	orchestrator := core.NewOrchestrator(config, driveClient, spotifyClient, resolver, logger.Named("orchestrator"))
	reporter := core.NewReporter(spotifyClient, config.Sync.SummaryLogPath, logger.Named("reporter"))

	if !viper.GetBool("watch") {
		runOnce(ctx, orchestrator, reporter, nil)
		return nil
	}

	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		interval := time.Duration(config.Sync.WatchIntervalSecs) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce(gCtx, orchestrator, reporter, httpServer)
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				runOnce(gCtx, orchestrator, reporter, httpServer)
			}
		}
	})

	logger.Info("vibesync watch mode started",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)),
		zap.Int("interval_secs", config.Sync.WatchIntervalSecs))

	if err := g.Wait(); err != nil {
		logger.Error("vibesync stopped with error", zap.Error(err))
		return err
	}

	logger.Info("vibesync stopped gracefully")
	return nil
}

// runOnce executes one sync run and emits its single durable summary line.
func runOnce(ctx context.Context, orchestrator *core.Orchestrator, reporter *core.Reporter, server *httpserver.Server) {
	start := time.Now()
	outcome := orchestrator.RunSync(ctx)

	summary := reporter.Summarize(ctx, outcome)
	logger.Info(summary,
		zap.Int("added", len(outcome.Added)),
		zap.Int("removed", len(outcome.Removed)),
		zap.Int("skippedLinks", outcome.SkippedLinks),
		zap.Bool("partialRead", outcome.PartialRead))

	if err := reporter.Record(summary); err != nil {
		logger.Error("Failed to append run summary", zap.Error(err))
	}

	if server != nil {
		server.ObserveRun(outcome, time.Since(start))
		if playlistWasRead(outcome.Failure) {
			server.SetPlaylistSize(outcome.CurrentTracks - len(outcome.Removed) + len(outcome.Added))
		}
	}
}

// playlistWasRead reports whether a run got far enough to snapshot the
// playlist, so the size gauge only moves on fresh data.
func playlistWasRead(failure core.FailureReason) bool {
	switch failure {
	case core.FailureNone, core.FailureAlreadyInSync, core.FailureNothingNew, core.FailureAdditionsRejected:
		return true
	default:
		return false
	}
}

// recordBlockedRun writes the fixed summary sentence for runs blocked before
// any client could be built. The reporter needs no playlist service for these.
func recordBlockedRun(reason core.FailureReason) {
	reporter := core.NewReporter(nil, config.Sync.SummaryLogPath, logger.Named("reporter"))
	summary := reporter.Summarize(context.Background(), core.RunOutcome{Failure: reason})
	logger.Error(summary)
	if err := reporter.Record(summary); err != nil {
		logger.Error("Failed to append run summary", zap.Error(err))
	}
}

func validateConfig() (core.FailureReason, error) {
	if config.Drive.CredentialsJSON == "" && config.Drive.CredentialsPath == "" {
		return core.FailureDriveAuth, fmt.Errorf("google Drive credentials are required")
	}

	if config.Drive.FolderID == "" {
		return core.FailureMissingDriveFolderID, fmt.Errorf("google Drive input folder ID is required")
	}

	if config.Spotify.ClientID == "" {
		return core.FailureSpotifyAuth, fmt.Errorf("spotify client ID is required")
	}

	if config.Spotify.ClientSecret == "" {
		return core.FailureSpotifyAuth, fmt.Errorf("spotify client secret is required")
	}

	if config.Spotify.PlaylistID == "" {
		return core.FailureMissingPlaylistID, fmt.Errorf("spotify playlist ID is required")
	}

	return core.FailureNone, nil
}
