package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"greetr/internal/domain"
)

// errGreetingFailed marks a Failure state; the reason is already printed
var errGreetingFailed = errors.New("greeting request failed")

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [name]",
		Short: "Fetch one greeting and print it",
		Long: `Fetch the greeting for name (or the anonymous greeting when name is
omitted) and print it. Exits non-zero and prints the reason when the
request fails.`,
		Example: `
  greetr get              # anonymous greeting
  greetr get Alice        # greeting for Alice
  greetr get "Jane Doe"   # names are URL-encoded`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runGet(cmd, opts, name)
		},
	}
}

func runGet(cmd *cobra.Command, opts *rootOptions, name string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	state, err := a.engine.Await(ctx, name)
	if err != nil {
		return fmt.Errorf("waiting for greeting: %w", err)
	}

	switch state.Status {
	case domain.StatusSuccess:
		fmt.Fprintln(cmd.OutOrStdout(), state.Data)
		return nil
	case domain.StatusFailure:
		fmt.Fprintln(cmd.ErrOrStderr(), "Error: "+state.Reason)
		return errGreetingFailed
	default:
		return fmt.Errorf("unexpected state %s", state.Status)
	}
}
