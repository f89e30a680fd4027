package mysql

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator 版本化迁移(golang-migrate)
// 迁移脚本编译进二进制,部署时不需要额外拷贝目录
type Migrator struct {
	m      *migrate.Migrate
	db     *sql.DB
	logger *zap.Logger
}

// NewMigrator 创建迁移器
// dsn需要开启multiStatements(见config.DatabaseConfig.MigrateDSN)
func NewMigrator(dsn string, logger *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移脚本失败: %w", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("创建迁移实例失败: %w", err)
	}

	return &Migrator{m: m, db: db, logger: logger}, nil
}

// Up 执行全部未应用的迁移
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("没有需要执行的迁移")
			return nil
		}
		return fmt.Errorf("执行迁移失败: %w", err)
	}
	mg.logger.Info("迁移执行完成")
	return nil
}

// Down 回滚steps个版本
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		steps = 1
	}
	if err := mg.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("回滚迁移失败: %w", err)
	}
	mg.logger.Info("迁移回滚完成", zap.Int("steps", steps))
	return nil
}

// Version 当前版本
// 尚未执行过迁移时返回0
func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close 释放连接
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
