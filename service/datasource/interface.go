/*
 * @module service/datasource/interface
 * @description 订单记录源统一接口，屏蔽数据库表与 CSV 文件等不同来源
 * @architecture 接口隔离原则 - 定义记录源操作的标准接口
 * @documentReference DESIGN.md
 * @stateFlow 构造记录源 -> Load 读取完整记录集 -> 交给质量引擎
 * @rules 记录源只读；返回的记录集标明实际提供的列，缺失列由引擎降级处理
 * @dependencies context, service/data_quality
 * @refs db_source.go, csv_source.go
 */

package datasource

import (
	"context"
	"fmt"
	"time"

	"sales-quality-service/service/config"
	"sales-quality-service/service/data_quality"

	"gorm.io/gorm"
)

// 记录源类型
const (
	SourceTypeDB  = config.SourceTypeDB
	SourceTypeCSV = config.SourceTypeCSV
)

// RecordSource 订单记录源
type RecordSource interface {
	// Load 读取完整记录集
	Load(ctx context.Context) (*data_quality.Dataset, error)

	// HealthCheck 检查记录源是否可读，并返回当前记录数
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// GetType 获取记录源类型
	GetType() string

	// Describe 记录源位置描述，写入运行记录
	Describe() string
}

// HealthStatus 记录源健康状态
type HealthStatus struct {
	Status       string        `json:"status"` // online, offline, error
	Message      string        `json:"message,omitempty"`
	RecordCount  int64         `json:"record_count"`
	LastCheck    time.Time     `json:"last_check"`
	ResponseTime time.Duration `json:"response_time"`
}

// NewRecordSource 根据配置创建记录源
func NewRecordSource(cfg config.SourceConfig, db *gorm.DB) (RecordSource, error) {
	switch cfg.Type {
	case SourceTypeDB:
		if db == nil {
			return nil, fmt.Errorf("数据库记录源需要数据库连接")
		}
		return NewGormSource(db, cfg.Table), nil
	case SourceTypeCSV:
		return NewCSVSource(cfg.CSVPath, cfg.CSVEncoding), nil
	}
	return nil, fmt.Errorf("不支持的记录源类型: %s", cfg.Type)
}
