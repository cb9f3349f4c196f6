package versions

import (
	"context"

	"cursor-keeper/cmd/root"
	"cursor-keeper/internal/output"
	"cursor-keeper/services"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <version>",
	Short: "Download a version without activating it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return downloadVersion(cmd.Context(), services.GetUpdateManager(), args[0])
	},
}

func downloadVersion(ctx context.Context, manager *services.UpdateManager, ver string) error {
	progress := output.NewProgress("Downloading " + ver)
	err := manager.Fetch(ctx, ver, progress.Update)
	progress.Done()
	if err != nil {
		return err
	}
	return output.Print(map[string]string{"status": "success", "version": ver}, func() {
		output.Success("%s downloaded", ver)
	})
}

func init() {
	root.RootCmd.AddCommand(downloadCmd)
	downloadCmd.Example = `  cursor-keeper download 1.3.0`
}
