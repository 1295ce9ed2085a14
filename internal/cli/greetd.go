package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"greetr/internal/logging"
	"greetr/internal/server"
)

// NewServerCmd builds the greetd command
func NewServerCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "greetd [flags]",
		Short: "greetd - development greeting server",
		Long: `greetd serves GET /hello for greetr during development.

  /hello            -> "Hello from <origin>"
  /hello?name=Ann   -> "Hello Ann from <origin>"
  /healthz          -> "ok"`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			v.SetEnvPrefix("GREETD")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(v.GetString("log-level"))
			if err != nil {
				return err
			}
			srv := server.New(server.Config{
				Addr:      v.GetString("addr"),
				Origin:    v.GetString("origin"),
				Delay:     v.GetDuration("delay"),
				FailNames: v.GetStringSlice("fail-names"),
				Logger:    logging.Console(cmd.ErrOrStderr(), level),
			})
			return srv.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("origin", server.DefaultOrigin, "origin named in every greeting")
	flags.Duration("delay", 0, "artificial latency added to every /hello response")
	flags.StringSlice("fail-names", nil, "names that get a 500 response")
	flags.String("log-level", "info", "log level (debug, info, warn, error, disabled)")
	_ = v.BindPFlags(flags)

	return cmd
}

// ExecuteServer runs greetd and returns the process exit code
func ExecuteServer() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, NewServerCmd(), os.Args[1:], os.Stderr)
}
