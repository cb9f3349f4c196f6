package versions

import (
	"context"

	"cursor-keeper/cmd/root"
	"cursor-keeper/internal/models"
	"cursor-keeper/internal/output"
	"cursor-keeper/services"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"upgrade"},
	Short:   "Download the latest version if needed and activate it",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateLatest(cmd.Context(), services.GetUpdateManager())
	},
}

/**
 * Update to the latest published version
 * @param {context.Context} ctx - Cancels network work
 * @returns {error} Failure of the first step that failed
 */
func updateLatest(ctx context.Context, manager *services.UpdateManager) error {
	progress := output.NewProgress("Downloading")
	ver, err := manager.Update(ctx, progress.Update)
	progress.Done()
	if err != nil {
		return err
	}
	return output.Print(models.ActivateResponse{Status: "success", Version: ver}, func() {
		output.Success("%s is now active. Please restart Cursor to use the new version.", ver)
	})
}

func init() {
	root.RootCmd.AddCommand(updateCmd)
	updateCmd.Example = `  cursor-keeper update`
}
