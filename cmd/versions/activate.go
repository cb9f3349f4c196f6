package versions

import (
	"context"

	"cursor-keeper/cmd/root"
	"cursor-keeper/internal/models"
	"cursor-keeper/internal/output"
	"cursor-keeper/services"

	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:     "activate <version>",
	Aliases: []string{"select", "use"},
	Short:   "Make a downloaded version the active one",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return activateVersion(cmd.Context(), services.GetUpdateManager(), args[0])
	},
}

func activateVersion(ctx context.Context, manager *services.UpdateManager, ver string) error {
	if err := manager.Select(ctx, ver); err != nil {
		return err
	}
	return output.Print(models.ActivateResponse{Status: "success", Version: ver}, func() {
		output.Success("%s is now active. Please restart Cursor to use the new version.", ver)
	})
}

func init() {
	root.RootCmd.AddCommand(activateCmd)
	activateCmd.Example = `  cursor-keeper activate 1.2.0`
}
