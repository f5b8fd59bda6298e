package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eatlog/internal/identity"
)

type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "Account email (asked when omitted)")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password (asked when omitted)")
}

// fill asks for whatever the flags left empty.
func (f *credentialFlags) fill(cmd *cobra.Command) error {
	var err error
	if strings.TrimSpace(f.email) == "" {
		if f.email, err = ask(cmd, "Email", false); err != nil {
			return err
		}
	}
	if f.password == "" {
		if f.password, err = ask(cmd, "Password", true); err != nil {
			return err
		}
	}
	return nil
}

// signedIn saves the session and reports who is signed in.
func signedIn(cmd *cobra.Command, e *env, sess *identity.Session) error {
	if err := saveSession(e.cfg.DataDir, sess.Token); err != nil {
		return err
	}
	if err := saveSignInSettings(e.cfg.DataDir, signInSettings{Email: sess.User.Email}); err != nil {
		e.logger.Warn("failed to save sign-in settings", "error", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", describeUser(e, sess.User.Email, sess.User.DisplayName))
	return nil
}

func describeUser(e *env, email, name string) string {
	if name == "" {
		return email
	}
	s := fmt.Sprintf("%s <%s>", name, email)
	if _, ok := e.cfg.Diners.SlotFor(name); !ok {
		s += fmt.Sprintf(" (matches neither %s nor %s)", e.cfg.Diners.First, e.cfg.Diners.Second)
	}
	return s
}

func newSignUpCmd(opts *rootOptions) *cobra.Command {
	var creds credentialFlags
	var name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := creds.fill(cmd); err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") {
				if name, err = ask(cmd, fmt.Sprintf("Display name (%s or %s)", e.cfg.Diners.First, e.cfg.Diners.Second), false); err != nil {
					return err
				}
			}

			sess, err := e.identity.SignUp(cmd.Context(), identity.SignUpInput{Email: creds.email, Password: creds.password, DisplayName: name})
			if err != nil {
				return err
			}
			return signedIn(cmd, e, sess)
		},
	}
	creds.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "Display name; use one of the diner names")
	return cmd
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if creds.email == "" {
				if settings, err := loadSignInSettings(e.cfg.DataDir); err == nil && settings.Email != "" && !cmd.Flags().Changed("email") {
					fmt.Fprintf(cmd.ErrOrStderr(), "Email: %s\n", settings.Email)
					creds.email = settings.Email
				}
			}
			if err := creds.fill(cmd); err != nil {
				return err
			}

			sess, err := e.identity.SignIn(cmd.Context(), identity.SignInInput{Email: creds.email, Password: creds.password})
			if err != nil {
				return err
			}
			return signedIn(cmd, e, sess)
		},
	}
	creds.register(cmd)
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := clearSession(e.cfg.DataDir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoAmICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeUser(e, user.Email, user.DisplayName))
			return nil
		},
	}
}

func newSetNameCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-name <display-name>",
		Short: "Change the display name used to attribute entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			user, err = e.identity.UpdateDisplayName(cmd.Context(), user.ID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeUser(e, user.Email, user.DisplayName))
			return nil
		},
	}
}

func newResetPasswordCmd(opts *rootOptions) *cobra.Command {
	var email, token, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a reset token with --email, or use one with --token",
		Long: "With --email, issues a one-time password reset token and prints it. " +
			"With --token, sets a new password and signs in.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (email == "") == (token == "") {
				return fmt.Errorf("give exactly one of --email or --token")
			}

			e, err := openEnv(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if email != "" {
				raw, err := e.identity.RequestPasswordReset(cmd.Context(), email)
				if err != nil {
					return err
				}
				if raw == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "If that account exists, a reset token was issued.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset token (valid for %s):\n%s\n", e.cfg.Auth.ResetTokenTTL, raw)
				return nil
			}

			if password == "" {
				if password, err = ask(cmd, "New password", true); err != nil {
					return err
				}
			}
			sess, err := e.identity.ResetPassword(cmd.Context(), identity.ResetPasswordInput{Token: token, NewPassword: password})
			if err != nil {
				return err
			}
			return signedIn(cmd, e, sess)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the account to reset")
	cmd.Flags().StringVar(&token, "token", "", "Reset token printed by --email")
	cmd.Flags().StringVar(&password, "password", "", "New password (asked when omitted)")
	return cmd
}

func newUpdatePasswordCmd(opts *rootOptions) *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "update-password",
		Short: "Change the password of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			if current == "" {
				if current, err = ask(cmd, "Current password", true); err != nil {
					return err
				}
			}
			if next == "" {
				if next, err = ask(cmd, "New password", true); err != nil {
					return err
				}
			}

			if err := e.identity.UpdatePassword(cmd.Context(), user.ID, identity.UpdatePasswordInput{CurrentPassword: current, NewPassword: next}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "password", "", "Current password (asked when omitted)")
	cmd.Flags().StringVar(&next, "new-password", "", "New password (asked when omitted)")
	return cmd
}
