package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Makepad-fr/dreams/internal/config"
	"github.com/Makepad-fr/dreams/internal/ui"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored Firestore API key",
		Args:  exactArgs(0, "dreams auth <login|logout|status>"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return errUsage("usage: dreams auth <login|logout|status>")
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Save a Firestore API key to ~/.dreams/credentials.json",
		Args:  exactArgs(0, "dreams auth login"),
		RunE: func(_ *cobra.Command, _ []string) error {
			key, err := app.readSecret("Paste your Firestore API key: ")
			if err != nil {
				return fmt.Errorf("read key: %w", err)
			}
			if strings.TrimSpace(key) == "" {
				return errUsage("empty key")
			}
			if err := config.SetAPIKey(key); err != nil {
				return fmt.Errorf("save key: %w", err)
			}
			ui.OK("logged in")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Delete the stored API key",
		Args:  exactArgs(0, "dreams auth logout"),
		RunE: func(_ *cobra.Command, _ []string) error {
			ki, err := config.GetAPIKey()
			if err != nil {
				// An unreadable file is still removed below.
				log.Debug().Err(err).Msg("read stored credentials")
			}
			if ki != nil && ki.Source == "env" {
				ui.OK("key is provided by " + config.APIKeyEnv + " (nothing to delete)")
				return nil
			}
			if err := config.DeleteAPIKey(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK("logged out")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where the API key comes from",
		Args:  exactArgs(0, "dreams auth status"),
		RunE: func(_ *cobra.Command, _ []string) error {
			ki, err := config.GetAPIKey()
			if err != nil {
				return err
			}
			t := ui.Current()
			if ki == nil {
				fmt.Fprintln(app.out, ui.C(t.Muted, "not logged in"))
				fmt.Fprintln(app.out, "Run: dreams auth login")
				return nil
			}
			fmt.Fprintf(app.out, "key: %s\n", config.MaskKey(ki.Key))
			fmt.Fprintf(app.out, "source: %s\n", ki.Source)
			if !ki.CreatedAt.IsZero() {
				fmt.Fprintf(app.out, "saved: %s\n", ki.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
			}
			fmt.Fprintf(app.out, "env override: %s\n", config.APIKeyEnv)
			return nil
		},
	})

	return cmd
}

// readSecret prompts on stdout and reads one line, without echo on a terminal.
func (app *App) readSecret(prompt string) (string, error) {
	fmt.Fprint(app.out, prompt)
	if f, ok := app.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(app.out)
		return string(b), err
	}
	line, err := bufio.NewReader(app.in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
