package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"glowlink/pkg/config"
	"glowlink/pkg/logging"
	"glowlink/pkg/version"
)

// cli carries what the persistent pre-run resolves for every subcommand.
type cli struct {
	configPath string
	cfg        config.Config
	logger     *zap.Logger

	// flag overrides, applied only when the flag was set
	port     int
	domain   string
	dbDriver string
	dbPath   string
}

// Run executes the command line with the given arguments. Without a
// subcommand the HTTP server starts.
func Run(ctx context.Context, args []string) error {
	cmd := NewCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewCommand builds the root command and its subcommands.
func NewCommand() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "glowlink",
		Short:         "Booking and order forms for creators",
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = c.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to the YAML config file")
	root.PersistentFlags().StringVar(&c.dbDriver, "db-driver", "", "Database driver: memory, sqlite or postgres")
	root.PersistentFlags().StringVar(&c.dbPath, "db-path", "", "Snapshot file for memory, database file for sqlite")
	c.serveFlags(root)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	c.serveFlags(serve)

	root.AddCommand(serve, c.versionCmd(), c.exportCmd(), c.catalogCmd(), c.settingsCmd())
	return root
}

func (c *cli) serveFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&c.port, "port", 0, "Port for the HTTP server when not using --domain")
	cmd.Flags().StringVar(&c.domain, "domain", "", "Serve HTTPS on 443 with a self-signed certificate and redirect :80")
}

// setup loads the config, applies flag overrides and builds the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.HTTP.Port = c.port
	}
	if flags.Changed("domain") {
		cfg.HTTP.Domain = c.domain
	}
	if flags.Changed("db-driver") {
		cfg.Database.Driver = c.dbDriver
	}
	if flags.Changed("db-path") {
		cfg.Database.Path = c.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	return nil
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "glowlink version %s\n", version.Version())
			return err
		},
	}
}
