package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantmind-br/pkgjson-go/internal/app"
	"github.com/quantmind-br/pkgjson-go/internal/config"
	"github.com/quantmind-br/pkgjson-go/internal/utils"
	"github.com/quantmind-br/pkgjson-go/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errChecksFailed is returned when an audit or plan reports failures. The
// report itself has already been printed.
var errChecksFailed = errors.New("checks failed")

// rootOptions holds the persistent flags
type rootOptions struct {
	cfgFile string
	verbose bool
	noCache bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pkgjson",
		Short: "Inspect package.json manifests and resolve exports and imports",
		Long: `pkgjson reads package.json manifests and resolves requests the way
Node.js does: subpaths through "exports", '#' specifiers through "imports"
and self-references by package name, under a chosen set of conditions.

It can also audit every entry of a manifest and run batch resolution plans
in CI.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.cfgFile != "" {
				viper.SetConfigFile(opts.cfgFile)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ~/.pkgjson/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "Disable the persistent manifest cache")
	rootCmd.PersistentFlags().String("cache-dir", "", "Cache directory (default is ~/.pkgjson/cache)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: pretty or json")

	// Bind flags to viper
	_ = viper.BindPFlag("cache.directory", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(
		newResolveCmd(opts),
		newInspectCmd(opts),
		newDepsCmd(opts),
		newAuditCmd(opts),
		newCheckCmd(opts),
		newCacheCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration, applying flags that viper does not bind
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

// newService builds the resolver service for a command
func newService(cmd *cobra.Command, opts *rootOptions, showProgress bool) (*app.Service, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	svcOpts := app.ServiceOptions{
		Config:  cfg,
		Verbose: opts.verbose,
		NoCache: opts.noCache,
		Logger: utils.NewLogger(utils.LoggerOptions{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Output:  cmd.ErrOrStderr(),
			Verbose: opts.verbose,
		}),
	}
	if showProgress {
		svcOpts.Progress = cmd.ErrOrStderr()
	}

	svc, err := app.NewService(svcOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

// commandContext returns a context cancelled on SIGINT or SIGTERM
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), version.Get().JSON())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
