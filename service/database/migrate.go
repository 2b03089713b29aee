/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新订单表、清洗结果表与运行记录表
 * @architecture 数据访问层 - 迁移管理
 * @documentReference DESIGN.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致；表名来自配置
 * @dependencies sales-quality-service/service/models, gorm.io/gorm
 * @refs service/models/sales_record.go, service/models/quality_run.go
 */

package database

import (
	"fmt"
	"log/slog"

	"sales-quality-service/service/models"

	"gorm.io/gorm"
)

// Tables 业务表名
type Tables struct {
	Source  string
	Cleaned string
}

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB, tables Tables) error {
	slog.Info("开始数据库迁移...")

	if err := db.Table(tables.Source).AutoMigrate(&models.SalesRecord{}); err != nil {
		return fmt.Errorf("迁移订单表 %s 失败: %w", tables.Source, err)
	}
	if err := db.Table(tables.Cleaned).AutoMigrate(&models.CleanedSalesRecord{}); err != nil {
		return fmt.Errorf("迁移清洗结果表 %s 失败: %w", tables.Cleaned, err)
	}
	if err := db.AutoMigrate(&models.QualityRun{}); err != nil {
		return fmt.Errorf("迁移运行记录表失败: %w", err)
	}

	slog.Info("数据库表结构迁移完成", "source", tables.Source, "cleaned", tables.Cleaned)
	return nil
}
