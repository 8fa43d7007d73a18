package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/citizen-portal/citizen_portal/internal/app"
	"github.com/citizen-portal/citizen_portal/internal/config"
	"github.com/citizen-portal/citizen_portal/internal/identity"
	"github.com/citizen-portal/citizen_portal/internal/logging"
	"github.com/citizen-portal/citizen_portal/internal/session"
)

type state struct {
	Authenticated bool               `json:"authenticated"`
	Identity      *identity.Identity `json:"identity"`
	Challenge     *session.Challenge `json:"challenge,omitempty"`
}

// NewRootCommand builds the portal command tree. Every subcommand opens the
// configured slot, restores it, runs one operation and prints the resulting
// state as JSON.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "portal",
		Short:         "Citizen portal session tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newStatusCommand(),
		newLoginCommand(),
		newSignupCommand(),
		newVerifyCommand(),
		newResendCommand(),
		newLogoutCommand(),
	)
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the restored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(context.Context, *session.Manager) error { return nil })
		},
	}
}

func newLoginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a built-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, mgr *session.Manager) error {
				_, err := mgr.Login(ctx, email, password)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login key")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func newSignupCommand() *cobra.Command {
	var in identity.ProfileInput
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new unverified identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, mgr *session.Manager) error {
				_, err := mgr.Signup(ctx, in)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.AadharNumber, "aadhar", "", "aadhaar number")
	return cmd
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Submit the 6-digit verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, mgr *session.Manager) error {
				_, err := mgr.VerifyOTP(ctx, args[0])
				return err
			})
		},
	}
}

func newResendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resend-otp",
		Short: "Re-issue the verification code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, mgr *session.Manager) error {
				_, err := mgr.ResendOTP(ctx)
				return err
			})
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, mgr *session.Manager) error {
				return mgr.Logout(ctx)
			})
		},
	}
}

func run(cmd *cobra.Command, op func(context.Context, *session.Manager) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	portal, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer portal.Close()

	if err := op(ctx, portal.Sessions); err != nil {
		return fmt.Errorf("%s: %w", session.ReasonOf(err), err)
	}
	return printState(cmd.OutOrStdout(), portal.Sessions)
}

func printState(w io.Writer, mgr *session.Manager) error {
	out := state{Authenticated: mgr.Authenticated()}
	if cur, ok := mgr.Current(); ok {
		out.Identity = &cur
	}
	if ch, ok := mgr.Challenge(); ok {
		out.Challenge = &ch
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
