package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/reelnotes/reelnotes-server/internal/catalog/tmdb"
	"github.com/reelnotes/reelnotes-server/internal/client"
	"github.com/reelnotes/reelnotes-server/internal/config"
	"github.com/reelnotes/reelnotes-server/internal/logger"
)

type commandContext struct {
	configFlag  *string
	serverFlag  *string
	tokenFlag   *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		var cfg *config.Config
		var err error
		if path != "" {
			cfg, err = config.LoadFile(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			c.configErr = err
			return
		}
		if s := strings.TrimSpace(*c.serverFlag); s != "" {
			cfg.Client.ServerURL = s
		}
		if t := strings.TrimSpace(*c.tokenFlag); t != "" {
			cfg.Client.Token = t
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	level := slog.LevelWarn
	if *c.verboseFlag {
		level = slog.LevelDebug
	}
	return logger.New(logger.Config{Writer: os.Stderr, Format: "pretty", Level: level}).Logger
}

func (c *commandContext) api() (*client.API, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Client.Token == "" {
		return nil, errors.New("no access token; pass --token or set REELNOTES_TOKEN (mint one with devtoken)")
	}
	return client.NewAPI(cfg.Client.ServerURL, cfg.Client.Token, client.WithLogger(c.logger()))
}

// catalog returns the TMDB client used for live metadata, or nil when no API
// key is configured.
func (c *commandContext) catalog() (*tmdb.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.APIKey == "" {
		return nil, nil
	}
	return tmdb.New(tmdb.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		APIKey:            cfg.Catalog.APIKey,
		ImageBaseURL:      cfg.Catalog.ImageBaseURL,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
		BreakerFailures:   cfg.Catalog.BreakerFailures,
		BreakerCooldown:   cfg.Catalog.BreakerCooldown,
	}, c.logger())
}

func newRootCommand() *cobra.Command {
	var configFlag, serverFlag, tokenFlag string
	var verbose bool

	ctx := &commandContext{
		configFlag:  &configFlag,
		serverFlag:  &serverFlag,
		tokenFlag:   &tokenFlag,
		verboseFlag: &verbose,
	}

	rootCmd := &cobra.Command{
		Use:           "reelctl",
		Short:         "Manage your favorite movies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Access token (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests to stderr")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newRemoveCommand(ctx))
	rootCmd.AddCommand(newToggleCommand(ctx))
	rootCmd.AddCommand(newNoteCommand(ctx))

	return rootCmd
}

func parseExternalID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q: must be a positive integer", arg)
	}
	return id, nil
}

// explain turns API failures into something a person can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case client.IsUnauthorized(err):
		return fmt.Errorf("session rejected, log in again (mint a token with devtoken): %w", err)
	case client.IsUpstreamUnavailable(err):
		return fmt.Errorf("movie catalog is unavailable, try again shortly: %w", err)
	default:
		return err
	}
}
