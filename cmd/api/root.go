package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/infrastructure/config"
	"github.com/xiebiao/mall/pkg/logger"
)

// configPath --config参数，为空时按config.Load的规则查找
var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "api",
		Short:         "商城以图搜图服务",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认./config/config.yaml）")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newAdminCmd(),
		newEventsCmd(),
	)
	return root
}

// bootstrap 加载配置并创建日志
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	zap.ReplaceGlobals(log)

	return cfg, log, nil
}
