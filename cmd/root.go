package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"eatlog/internal/model"
	"eatlog/internal/search"
	"eatlog/internal/ui"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dataDir    string
	verbose    bool
}

// Execute runs the command line. Errors are printed before they are
// returned.
func Execute(version string) error {
	root := newRootCmd(version)
	err := root.Execute()
	if err != nil {
		printError(root.ErrOrStderr(), err)
	}
	return err
}

// printError lists every field of a validation error on its own line.
func printError(w io.Writer, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(w, "Error: invalid input")
		for _, fe := range verr.Errors {
			fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
		}
		return
	}
	fmt.Fprintln(w, "Error:", err)
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "eatlog",
		Short:         "A shared food journal for restaurants, home cooking and a wishlist",
		Long:          "eatlog keeps a journal of restaurant visits and home-cooked meals rated by two diners, plus a wishlist of places and recipes to try. Run without a command to open the journal.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config.yaml (or set EATLOG_CONFIG)")
	pf.StringVar(&opts.dataDir, "data-dir", "", "Data directory (default: ~/.eatlog)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr instead of the log file")

	root.AddCommand(
		newSignUpCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoAmICmd(opts),
		newSetNameCmd(opts),
		newResetPasswordCmd(opts),
		newUpdatePasswordCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newShowCmd(opts),
		newListCmd(opts),
		newHistoryCmd(opts),
		newPhotoCmd(opts),
		newConvertCmd(opts),
		newDeleteCmd(opts),
		newFavoriteCmd(opts),
		newPlacesCmd(opts),
	)
	return root
}

// runTUI opens the journal screen for the signed-in user, running the
// sign-in screen first when there is no valid session.
func runTUI(ctx context.Context, opts *rootOptions) error {
	env, err := openEnv(ctx, opts, true)
	if err != nil {
		return err
	}
	defer env.Close()

	user, err := env.currentUser(ctx)
	if errors.Is(err, model.ErrUnauthorized) {
		if !isInteractive() {
			return errNotSignedIn
		}
		user, err = runOnboarding(ctx, env)
	}
	if err != nil {
		return err
	}

	actor := env.journal.ActorFor(user)
	if actor.Diner == "" {
		env.logger.Warn("display name matches neither diner", "display_name", user.DisplayName)
	}

	m := ui.New(ui.Options{
		Journal:     env.journal,
		Photos:      env.blobs,
		Places:      search.NewPlaceSearch(env.store, user.ID, 0),
		Notices:     env.notices,
		Actor:       actor,
		User:        user,
		Diners:      env.cfg.Diners,
		Placeholder: env.cfg.Storage.PlaceholderURL,
		PrefsPath:   filepath.Join(env.cfg.DataDir, "ui_prefs.json"),
		Logger:      env.logger,
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
