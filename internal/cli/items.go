package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/ui"
)

const listNameWidth = 60

func newListCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List dream entries",
		Args:    exactArgs(0, "dreams ls [--json]"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := app.openDiary(cmd.Context())
			if err != nil {
				return err
			}
			items, err := d.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if items == nil {
					items = []model.Item{}
				}
				enc := json.NewEncoder(app.out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			ui.Panel(listLines(items))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as a JSON array")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Record a new dream",
		Args:  minArgs(1, "dreams add <text...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.openDiary(cmd.Context())
			if err != nil {
				return err
			}
			it, err := d.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			ui.OK("added " + it.ID)
			return nil
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Replace the text of a dream",
		Args:  minArgs(2, "dreams edit <id> <text...>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.openDiary(cmd.Context())
			if err != nil {
				return err
			}
			if err := d.Update(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			ui.OK("updated")
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a dream",
		Args:    exactArgs(1, "dreams rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.openDiary(cmd.Context())
			if err != nil {
				return err
			}
			if err := d.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			ui.OK("removed")
			return nil
		},
	}
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one dream in full",
		Args:  exactArgs(1, "dreams show <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.openDiary(cmd.Context())
			if err != nil {
				return err
			}
			it, err := d.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(app.out, it.Name)
			return nil
		},
	}
}

// -------------- rendering helpers --------------

func listLines(items []model.Item) []string {
	t := ui.Current()
	noun := "dreams"
	if len(items) == 1 {
		noun = "dream"
	}
	lines := []string{
		fmt.Sprintf("%s  %s", ui.C(t.Title, "Dream Diary"), ui.C(t.Muted, fmt.Sprintf("%d %s", len(items), noun))),
		"",
	}
	if len(items) == 0 {
		lines = append(lines, ui.C(t.Muted, "no dreams yet"))
	}
	for _, it := range items {
		name := strings.SplitN(it.Name, "\n", 2)[0]
		lines = append(lines, fmt.Sprintf("%s %s  %s",
			ui.C(t.Accent, t.Bullet), ui.C(t.Muted, it.ID), ui.Truncate(name, listNameWidth)))
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `dreams add \"Flying over the ocean\"`"))
	return lines
}
