package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphkit/graphclient-go/internal/config"
	"github.com/graphkit/graphclient-go/pkg/graphclient"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath      string
	flagKeyFile         string
	flagBaseURL         string
	flagInsecure        bool
	flagProxy           string
	flagTimeout         int
	flagSessionEndpoint string
	flagGraphQLEndpoint string
	flagManageToken     bool
	flagKeepToken       bool
	flagJSON            bool
	flagVerbose         bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE:
// defaults, then the TOML config file, then explicitly-set CLI flags.
var resolvedCfg *config.Config

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "graphclient",
		Short:   "GraphQL client with bearer-token session management",
		Long: "A GraphQL command-line client. With a JSON key file it mints, caches, and\n" +
			"revokes bearer tokens; with --base-url it queries public endpoints anonymously.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default ~/.config/graphclient/config.toml)")
	cmd.PersistentFlags().StringVarP(&flagKeyFile, "keyfile", "k", "", "JSON key file with client credentials")
	cmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "base URL for anonymous mode (no key file)")
	cmd.PersistentFlags().BoolVar(&flagInsecure, "insecure", false, "disable TLS certificate verification")
	cmd.PersistentFlags().StringVar(&flagProxy, "proxy", "", "proxy URL for all requests")
	cmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 30, "request timeout in seconds")
	cmd.PersistentFlags().StringVar(&flagSessionEndpoint, "session-endpoint", "session", "session endpoint segment")
	cmd.PersistentFlags().StringVar(&flagGraphQLEndpoint, "graphql-endpoint", "graphql", "graphql endpoint segment")
	cmd.PersistentFlags().BoolVar(&flagManageToken, "manage-token", true, "manage the cached token's lifecycle")
	cmd.PersistentFlags().BoolVar(&flagKeepToken, "keep-token", true, "persist minted tokens next to the key file")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "force compact JSON output")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	// Register subcommands.
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newRenewCmd())
	cmd.AddCommand(newCloseCmd())

	return cmd
}

// loadConfig resolves the effective configuration: defaults, then the TOML
// file, then any flag the user explicitly set.
func loadConfig(cmd *cobra.Command) error {
	path := flagConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()

	if flags.Changed("keyfile") {
		cfg.KeyFile = flagKeyFile
	}

	if flags.Changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}

	if flags.Changed("insecure") {
		cfg.Insecure = flagInsecure
	}

	if flags.Changed("proxy") {
		cfg.Proxy = flagProxy
	}

	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = flagTimeout
	}

	if flags.Changed("session-endpoint") {
		cfg.SessionEndpoint = flagSessionEndpoint
	}

	if flags.Changed("graphql-endpoint") {
		cfg.GraphQLEndpoint = flagGraphQLEndpoint
	}

	if flags.Changed("manage-token") {
		cfg.ManageToken = flagManageToken
	}

	if flags.Changed("keep-token") {
		cfg.KeepToken = flagKeepToken
	}

	resolvedCfg = cfg

	return nil
}

// buildLogger creates an slog.Logger from the resolved config. --verbose
// overrides the config-file level because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient constructs the GraphQL client from the resolved configuration.
// A key file selects authenticated mode; a bare base URL selects anonymous
// mode. The key file wins when both are set.
func newClient(ctx context.Context, logger *slog.Logger) (*graphclient.Client, error) {
	cfg := resolvedCfg

	opts := []graphclient.Option{
		graphclient.WithLogger(logger),
		graphclient.WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
		graphclient.WithSessionEndpoint(cfg.SessionEndpoint),
		graphclient.WithGraphQLEndpoint(cfg.GraphQLEndpoint),
	}

	if cfg.Insecure {
		opts = append(opts, graphclient.WithInsecure())
	}

	if cfg.Proxy != "" {
		proxy, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}

		opts = append(opts, graphclient.WithProxy(proxy))
	}

	if cfg.KeyFile != "" {
		opts = append(opts,
			graphclient.WithManageToken(cfg.ManageToken),
			graphclient.WithKeepToken(cfg.KeepToken),
		)

		return graphclient.New(ctx, cfg.KeyFile, opts...)
	}

	if cfg.BaseURL != "" {
		return graphclient.NewAnonymous(cfg.BaseURL, opts...)
	}

	return nil, errors.New("no key file or base URL configured (use --keyfile or --base-url)")
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
