package versions

import (
	"context"
	"path/filepath"

	"cursor-keeper/cmd/root"
	"cursor-keeper/internal/models"
	"cursor-keeper/internal/output"
	"cursor-keeper/services"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show active, latest local and latest remote versions",
	Long:  "Show the active version, the newest downloaded version and the newest published version, followed by the launch configuration.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context(), services.GetUpdateManager())
	},
}

const labelWidth = 26

/**
 * Print version status, update advice and launch configuration
 * @param {context.Context} ctx - Cancels manifest and probe work
 * @param {*services.UpdateManager} manager - Manager answering the queries
 * @returns {error} Output encoding error only, missing versions are reported in the text
 */
func showStatus(ctx context.Context, manager *services.UpdateManager) error {
	st := manager.Status(ctx)
	launch := manager.LaunchInfo(ctx)
	advice := services.Advice(st)

	return output.Print(models.StatusResponse{Versions: st, Advice: advice, Launch: launch}, func() {
		output.Title("Cursor App Information")
		if st.LatestRemote == "" {
			output.Field("Latest remote version:", labelWidth, "(unavailable)")
		} else {
			output.Field("Latest remote version:", labelWidth, st.LatestRemote)
		}
		output.Field("Latest locally available:", labelWidth, orNone(st.LatestLocal))
		output.Field("Currently active:", labelWidth, orNone(st.Active))
		printAdvice(st, advice)
		printLaunchInfo(launch)
	})
}

func printAdvice(st models.VersionStatus, advice models.Advice) {
	switch advice {
	case models.AdviceNoActive:
		output.Warn("No active version. Run 'cursor-keeper update' to install %s", st.LatestRemote)
	case models.AdviceRemoteNewer:
		output.Warn("There is a newer version available for download: %s", st.LatestRemote)
		if st.LatestLocal != "" {
			output.Info("You have %s locally, run 'cursor-keeper update' to update", st.LatestLocal)
		}
	case models.AdviceLocalNewer:
		output.Warn("There is a newer version available locally: %s", st.LatestLocal)
	case models.AdviceUpToDate:
		output.Success("You are running the latest version")
	}
}

func printLaunchInfo(info models.LaunchInfo) {
	output.Title("Launch Configuration")
	output.Field("Running from:", labelWidth, orDefault(info.RunningFrom, "(not running)"))
	output.Field("Desktop launcher:", labelWidth, orDefault(info.LauncherExec, "(not found)"))

	pointer := info.PointerPath + " (does not exist)"
	if info.PointerExists {
		pointer = info.PointerPath + " (regular file)"
		if info.PointerIsLink {
			pointer = info.PointerTarget
		}
	}
	output.Field("Symlink:", labelWidth, pointer)
	inPath := "No"
	if info.BinDirInPath {
		inPath = "Yes"
	}
	output.Field(filepath.Dir(info.PointerPath)+" in PATH:", labelWidth, inPath)

	if info.RunningFrom != "" && info.LauncherExec != "" && !samePath(info.RunningFrom, info.LauncherExec) {
		output.Warn("Running instance and desktop launcher point to different locations")
		output.Info("Restart Cursor to use the version specified in the desktop launcher.")
	}
	if !info.BinDirInPath {
		output.Warn("Add %s to your PATH for command-line access", filepath.Dir(info.PointerPath))
	}
}

func samePath(a, b string) bool {
	if ra, err := filepath.EvalSymlinks(a); err == nil {
		a = ra
	}
	if rb, err := filepath.EvalSymlinks(b); err == nil {
		b = rb
	}
	return a == b
}

func orNone(v string) string {
	return orDefault(v, "None")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func init() {
	root.RootCmd.AddCommand(statusCmd)
	statusCmd.Example = `  cursor-keeper status
  cursor-keeper status --json`
}
