package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SimpleDioney/Amostras/internal/audit"
	"github.com/SimpleDioney/Amostras/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or edit the runtime settings stored in the database",
	Long: `Runtime settings are seeded from the defaults section of the config file on
first start; afterwards the database copy wins. A running bot picks up
changes when an admin chooses "Reload settings" in the chat.`,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runtime settings",
	RunE:  runSettingsList,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a runtime setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsListCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	database, store, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	values, err := store.All(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, k := range settings.Keys() {
		v := values[k]
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", k, v)
	}
	return w.Flush()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	database, store, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	previous, err := store.All(ctx)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, args[0], args[1]); err != nil {
		return err
	}
	recordCLI(ctx, audit.NewStore(database), audit.Entry{
		Action:        audit.ActionSettingChanged,
		SubjectID:     args[0],
		Summary:       "setting " + args[0] + " changed",
		PreviousValue: previous[args[0]],
		NewValue:      args[1],
	})
	fmt.Printf("%s = %s\n", args[0], args[1])
	return nil
}
