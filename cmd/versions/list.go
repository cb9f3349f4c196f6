package versions

import (
	"context"
	"fmt"

	"cursor-keeper/cmd/root"
	"cursor-keeper/internal/output"
	"cursor-keeper/internal/utils"
	"cursor-keeper/services"

	"github.com/iancoleman/orderedmap"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote and downloaded versions",
	Long:  "List every published version for this platform together with the downloaded ones, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listVersions(cmd.Context(), services.GetUpdateManager())
	},
}

/**
 *	Fields displayed in list format
 */
type Version_Columns struct {
	Version string `json:"version"`
	Remote  string `json:"remote"`
	Local   string `json:"local"`
	Active  string `json:"active"`
}

func listVersions(ctx context.Context, manager *services.UpdateManager) error {
	rows := manager.ListVersions(ctx)
	return output.Print(rows, func() {
		if len(rows) == 0 {
			fmt.Fprintln(output.Stdout, "No versions found")
			return
		}
		var dataList []*orderedmap.OrderedMap
		for _, r := range rows {
			row := Version_Columns{
				Version: r.Version,
				Remote:  mark(r.Remote),
				Local:   mark(r.Local),
				Active:  mark(r.Active),
			}
			recordMap, _ := utils.StructToOrderedMap(row)
			dataList = append(dataList, recordMap)
		}
		utils.FprintFormat(output.Stdout, dataList)
	})
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func init() {
	root.RootCmd.AddCommand(listCmd)
}
