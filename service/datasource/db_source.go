/*
 * @module service/datasource/db_source
 * @description 数据库订单记录源，从配置的订单表读取记录，按表结构识别实际存在的列
 * @architecture 数据访问层 - 记录源实现
 * @documentReference DESIGN.md
 * @stateFlow 检查表 -> 读取列信息 -> 选择已知列 -> 按行号顺序读取
 * @rules 表中缺失的列不报错，交由引擎将依赖它的规则标记为无法执行
 * @dependencies gorm.io/gorm
 * @refs interface.go, service/models/sales_record.go
 */

package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/models"

	"gorm.io/gorm"
)

const rowIDColumn = "row_id"

// GormSource 数据库订单记录源
type GormSource struct {
	db    *gorm.DB
	table string
}

// NewGormSource 创建数据库记录源
func NewGormSource(db *gorm.DB, table string) *GormSource {
	return &GormSource{db: db, table: table}
}

// GetType 获取记录源类型
func (s *GormSource) GetType() string {
	return SourceTypeDB
}

// Describe 记录源位置描述
func (s *GormSource) Describe() string {
	return "table:" + s.table
}

// Load 读取订单表全部记录
func (s *GormSource) Load(ctx context.Context) (*data_quality.Dataset, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(s.table) {
		return nil, fmt.Errorf("订单表 %s 不存在", s.table)
	}

	columnTypes, err := db.Migrator().ColumnTypes(s.table)
	if err != nil {
		return nil, fmt.Errorf("读取订单表结构失败: %w", err)
	}
	present := make(map[string]bool, len(columnTypes))
	for _, ct := range columnTypes {
		present[strings.ToLower(ct.Name())] = true
	}

	var columns []string
	for _, c := range models.SalesColumns {
		if present[c] {
			columns = append(columns, c)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("订单表 %s 中没有可识别的列", s.table)
	}
	if len(columns) < len(models.SalesColumns) {
		slog.Warn("订单表缺少部分列", "table", s.table, "columns", columns)
	}

	selected := columns
	query := db.Table(s.table)
	if present[rowIDColumn] {
		selected = append([]string{rowIDColumn}, columns...)
		query = query.Order(rowIDColumn)
	}

	var records []*models.SalesRecord
	if err := query.Select(selected).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("读取订单记录失败: %w", err)
	}

	slog.Info("订单记录读取完成", "table", s.table, "records", len(records))
	return data_quality.NewDataset(records, columns...), nil
}

// HealthCheck 健康检查，返回订单表记录数
func (s *GormSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	status := &HealthStatus{Status: "online", LastCheck: start}

	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(s.table) {
		status.Status = "offline"
		status.Message = fmt.Sprintf("订单表 %s 不存在", s.table)
		status.ResponseTime = time.Since(start)
		return status, nil
	}
	if err := db.Table(s.table).Count(&status.RecordCount).Error; err != nil {
		status.Status = "error"
		status.Message = err.Error()
		status.ResponseTime = time.Since(start)
		return status, fmt.Errorf("统计订单记录失败: %w", err)
	}
	status.ResponseTime = time.Since(start)
	return status, nil
}
