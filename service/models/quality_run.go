/*
 * @module service/models/quality_run
 * @description 数据质量运行记录模型，持久化每次质量检测与清洗的评分、日志与报告，用于审计
 * @architecture 数据模型层
 * @documentReference DESIGN.md
 * @stateFlow 运行开始 -> 检测评分 -> 清洗验证 -> 保存运行记录
 * @rules 运行记录只追加不修改；失败的运行同样保存，便于排查
 * @dependencies gorm.io/gorm, github.com/google/uuid, github.com/lib/pq
 * @refs service/sink, service/data_quality
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// 运行状态
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// 运行触发方式
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerOnce     = "once"
)

// QualityRun 质量运行记录
type QualityRun struct {
	ID             string           `gorm:"type:varchar(50);primaryKey" json:"id"`
	Source         string           `gorm:"type:varchar(255)" json:"source"`
	Trigger        string           `gorm:"type:varchar(20)" json:"trigger"`
	Status         string           `gorm:"type:varchar(20);not null;index" json:"status"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	DurationMs     int64            `json:"duration_ms"`
	RawCount       int              `json:"raw_count"`
	CleanedCount   int              `json:"cleaned_count"`
	RawScore       float64          `json:"raw_score"`
	RawGrade       string           `gorm:"type:varchar(20)" json:"raw_grade"`
	CleanedScore   float64          `json:"cleaned_score"`
	CleanedGrade   string           `gorm:"type:varchar(20)" json:"cleaned_grade"`
	AnomalyTotal   int              `json:"anomaly_total"`
	Dimensions     JSONB            `gorm:"type:jsonb" json:"dimensions"`
	Anomalies      JSONB            `gorm:"type:jsonb" json:"anomalies"`
	Verification   JSONB            `gorm:"type:jsonb" json:"verification"`
	RemediationLog JSONBStringArray `gorm:"type:jsonb" json:"remediation_log"`
	SkippedRules   pq.StringArray   `gorm:"type:text[]" json:"skipped_rules"`
	Report         string           `gorm:"type:text" json:"-"`
	ErrorMessage   string           `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// TableName 指定表名
func (QualityRun) TableName() string {
	return "quality_runs"
}

// BeforeCreate 创建前钩子
func (q *QualityRun) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}
