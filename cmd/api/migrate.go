package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiebiao/mall/internal/infrastructure/persistence/mysql"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移（migrations目录已嵌入二进制）",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "回滚迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *mysql.Migrator, log *zap.Logger) error {
				return m.Down(steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "回滚的版本数")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "执行全部未应用的迁移",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(m *mysql.Migrator, log *zap.Logger) error {
					return m.Up()
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "查看当前版本",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(m *mysql.Migrator, log *zap.Logger) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrator(fn func(m *mysql.Migrator, log *zap.Logger) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, err := mysql.NewMigrator(cfg.Database.MigrateDSN(), log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	return fn(m, log)
}
