// Package cli wires configuration, logging and the query engine into the
// greetr commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"greetr/internal/eventbus"
	"greetr/internal/ui"
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	cfgFile     string
	endpoint    string
	timeout     string
	logLevel    string
	logFile     string
	metricsAddr string

	v *viper.Viper
}

// NewRootCmd builds the greetr command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "greetr [flags]",
		Short: "greetr - fetch a greeting for a name",
		Long: `greetr asks a greeting service to greet a name and shows the answer.

Type a name (or nothing) and press enter. Each distinct name is requested
once per session; submitting it again shows the stored answer.`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/greetr/config.toml)")
	flags.StringVar(&opts.endpoint, "endpoint", "", "base URL of the greeting service")
	flags.StringVar(&opts.timeout, "timeout", "", "per-request timeout, e.g. 5s")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.StringVar(&opts.logFile, "log-file", "", "log file path")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	// Bind flags to viper under the config file keys
	_ = opts.v.BindPFlag("endpoint", flags.Lookup("endpoint"))
	_ = opts.v.BindPFlag("request_timeout", flags.Lookup("timeout"))
	_ = opts.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = opts.v.BindPFlag("log_file", flags.Lookup("log-file"))
	_ = opts.v.BindPFlag("metrics_addr", flags.Lookup("metrics-addr"))

	cmd.AddCommand(newGetCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// initConfig reads .env and environment variables
func (o *rootOptions) initConfig() {
	_ = godotenv.Load()

	o.v.SetEnvPrefix("GREETR")
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	o.v.AutomaticEnv()

	if o.cfgFile == "" {
		o.cfgFile = o.v.GetString("config")
	}
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errGreetingFailed) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	model := ui.NewModel(a.engine, a.cfg, a.logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Bus handlers run on their own goroutines, so Send never blocks Update.
	unsubscribe := a.bus.Subscribe(eventbus.EventStateChanged, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.StateChangedEvent); ok {
			p.Send(ui.StateChangedMsg{State: event.State})
		}
	})
	defer unsubscribe()

	a.logger.Info().Msg("Starting UI...")
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			a.logger.Info().Msg("UI interrupted")
			return nil
		}
		a.logger.Error().Err(err).Msg("Error running program")
		return fmt.Errorf("running program: %w", err)
	}
	a.logger.Info().Msg("UI exited normally")
	return nil
}
