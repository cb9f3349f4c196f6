package root

import (
	"fmt"

	"cursor-keeper/internal/config"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/output"

	"github.com/spf13/cobra"
)

var (
	optConfig   string
	optLogLevel string
)

var RootCmd = &cobra.Command{
	Use:           "cursor-keeper",
	Short:         "Cursor AppImage 版本管理器",
	Long:          `cursor-keeper 管理 Cursor AppImage 的下载、激活、桌面启动器同步和版本状态查询`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

/**
 * Load configuration and logger before any command runs
 * @description
 * - --config replaces the default search of ./config.yaml and ~/.cursor-keeper/config.yaml
 * - --log-level overrides log.level from the configuration
 */
func initConfig() error {
	if optConfig != "" {
		if err := config.SetConfigFile(optConfig); err != nil {
			return fmt.Errorf("load config '%s' failed: %w", optConfig, err)
		}
	}
	logCfg := config.Config.Log
	if optLogLevel != "" {
		logCfg.Level = optLogLevel
	}
	logger.InitLogger(&logCfg)
	return nil
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&optConfig, "config", "c", "", "配置文件路径")
	RootCmd.PersistentFlags().StringVar(&optLogLevel, "log-level", "", "日志级别 (debug/info/warn/error)")
	RootCmd.PersistentFlags().BoolVar(&output.JSONMode, "json", false, "以JSON格式输出")
}
