package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coryo/plexdesk/internal/app"
	"github.com/coryo/plexdesk/internal/catalog"
)

type cli struct {
	cfg      app.Config
	log      *zap.Logger
	settings *app.Settings
	cloud    *catalog.Cloud
	jsonOut  bool
	timeout  time.Duration
}

func main() {
	root := &cobra.Command{
		Use:           "plexdesk",
		Short:         "Media server client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		configPath string
		serverURL  string
		token      string
		logLevel   string
		jsonOut    bool
		noColor    bool
	)

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	root.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "media server base URL")
	root.PersistentFlags().StringVar(&token, "token", "", "access token")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
	root.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if noColor {
			pterm.DisableColor()
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.Server.BaseURL = serverURL
		}
		if token != "" {
			cfg.Server.Token = token
		}
		if logLevel != "" {
			cfg.Server.LogLevel = logLevel
		}

		log, err := app.NewLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
		if err != nil {
			return err
		}

		settingsPath, err := app.DefaultSettingsPath()
		if err != nil {
			return err
		}
		settings, err := app.OpenSettings(settingsPath)
		if err != nil {
			return err
		}

		// Fall back to the persisted session when flags and config name
		// no server.
		if cfg.Server.BaseURL == "" || cfg.Server.Token == "" {
			server, _, sessionToken := settings.Session()
			if cfg.Server.BaseURL == "" {
				cfg.Server.BaseURL = server
			}
			if cfg.Server.Token == "" {
				cfg.Server.Token = sessionToken
			}
		}

		cloud := catalog.NewCloud(log, catalog.CloudConfig{BaseURL: cfg.Server.CloudURL})

		cmd.SetContext(context.WithValue(cmd.Context(), cliKey{}, &cli{
			cfg:      cfg,
			log:      log,
			settings: settings,
			cloud:    cloud,
			jsonOut:  jsonOut,
			timeout:  time.Duration(cfg.Server.TimeoutMS) * time.Millisecond,
		}))
		return nil
	}

	root.AddCommand(signinCommand())
	root.AddCommand(serversCommand())
	root.AddCommand(browseCommand())
	root.AddCommand(searchCommand())
	root.AddCommand(playCommand())
	root.AddCommand(watchedCommand())
	root.AddCommand(unwatchedCommand())
	root.AddCommand(shortcutCommand())

	if err := root.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(exitCode(err))
	}
}

type cliKey struct{}

func fromContext(cmd *cobra.Command) *cli {
	val := cmd.Context().Value(cliKey{})
	if val == nil {
		return nil
	}
	return val.(*cli)
}

func loadConfig(path string) (app.Config, error) {
	if path != "" {
		return app.LoadConfig(path)
	}
	defaultPath, err := app.DefaultConfigPath()
	if err != nil {
		return app.Config{}, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		// No config file is fine; everything can come from flags and
		// the persisted session.
		return app.DefaultConfig(), nil
	}
	return app.LoadConfig(defaultPath)
}

// client builds a catalog client for the configured server.
func (c *cli) client() (*catalog.Client, error) {
	if c.cfg.Server.BaseURL == "" {
		return nil, fmt.Errorf("no server configured (use --server, config, or signin)")
	}
	return catalog.NewClient(c.log, catalog.ClientConfig{
		BaseURL: c.cfg.Server.BaseURL,
		Token:   c.cfg.Server.Token,
		Timeout: c.timeout,
	})
}

func (c *cli) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, catalog.ErrAuthentication):
		return 3
	case errors.Is(err, catalog.ErrNotFound):
		return 4
	case errors.Is(err, catalog.ErrConnection):
		return 5
	default:
		return 1
	}
}
