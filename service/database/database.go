/*
 * @module service/database/database
 * @description 数据库连接管理，按配置打开 PostgreSQL 或 SQLite 连接
 * @architecture 数据访问层 - 连接管理
 * @documentReference DESIGN.md
 * @stateFlow 读取数据库配置 -> 打开连接 -> 确保 schema 存在 -> 返回 gorm.DB
 * @rules 连接参数全部来自配置；PostgreSQL 下自动创建配置的 schema
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs service/init.go, migrate.go
 */

package database

import (
	"fmt"
	"log/slog"

	"sales-quality-service/service/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 根据配置打开数据库连接
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	if cfg.Driver == "postgres" && cfg.URL == "" && cfg.Schema != "" && cfg.Schema != "public" {
		if err := EnsureSchema(db, cfg.Schema); err != nil {
			return nil, err
		}
	}

	slog.Info("数据库连接成功", "driver", cfg.Driver)
	return db, nil
}

// CheckSchemaExists 检查 schema 是否存在
func CheckSchemaExists(db *gorm.DB, schemaName string) bool {
	var count int64
	db.Raw("SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?", schemaName).Scan(&count)
	return count > 0
}

// EnsureSchema 不存在时创建 schema
func EnsureSchema(db *gorm.DB, schemaName string) error {
	if CheckSchemaExists(db, schemaName) {
		return nil
	}
	slog.Info("开始创建 schema", "schema", schemaName)
	// 使用双引号避免保留关键字问题
	if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS \"%s\";", schemaName)).Error; err != nil {
		return fmt.Errorf("创建 schema %s 失败: %w", schemaName, err)
	}
	return nil
}
