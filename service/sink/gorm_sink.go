/*
 * @module service/sink/gorm_sink
 * @description 运行结果输出，清洗后记录写入独立的清洗结果表，运行记录与报告持久化用于审计
 * @architecture 数据访问层 - 结果输出
 * @documentReference DESIGN.md
 * @stateFlow 开启事务 -> 替换清洗结果表 -> 保存运行记录 -> 提交 -> 写入报告文件
 * @rules 原始订单表不被修改；清洗结果表始终只保存最近一次成功运行的结果；失败的运行同样记录
 * @dependencies gorm.io/gorm
 * @refs run_record.go, excel_exporter.go, service/models/quality_run.go
 */

package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sales-quality-service/service/config"
	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/models"

	"gorm.io/gorm"
)

const insertBatchSize = 500

var (
	// ErrRunNotFound 运行记录不存在
	ErrRunNotFound = errors.New("运行记录不存在")
	// ErrCleanedSetReplaced 清洗结果已被后续运行覆盖
	ErrCleanedSetReplaced = errors.New("该运行的清洗结果已被后续运行覆盖")
)

// GormSink 基于数据库的结果输出
type GormSink struct {
	db           *gorm.DB
	cleanedTable string
	reportDir    string
}

// NewGormSink 创建结果输出
func NewGormSink(db *gorm.DB, cfg config.SinkConfig) *GormSink {
	return &GormSink{
		db:           db,
		cleanedTable: cfg.CleanedTable,
		reportDir:    cfg.ReportDir,
	}
}

// Save 在一个事务中替换清洗结果表并保存运行记录，提交后写入报告文件
func (s *GormSink) Save(ctx context.Context, run *models.QualityRun, cleaned *data_quality.Dataset) error {
	rows := make([]models.CleanedSalesRecord, 0, cleaned.Len())
	for _, r := range cleaned.Records {
		rows = append(rows, models.CleanedSalesRecord{SalesRecord: *r.Clone(), RunID: run.ID})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(s.cleanedTable).Where("1 = 1").Delete(&models.CleanedSalesRecord{}).Error; err != nil {
			return fmt.Errorf("清空清洗结果表失败: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.Table(s.cleanedTable).CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return fmt.Errorf("写入清洗结果失败: %w", err)
			}
		}
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("保存运行记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.writeReport(run); err != nil {
		slog.Error("写入报告文件失败", "run_id", run.ID, "error", err)
	}
	slog.Info("运行结果已保存", "run_id", run.ID, "cleaned_table", s.cleanedTable, "records", len(rows))
	return nil
}

// SaveFailedRun 保存失败的运行记录
func (s *GormSink) SaveFailedRun(ctx context.Context, run *models.QualityRun) error {
	run.Status = models.RunStatusFailed
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("保存失败运行记录失败: %w", err)
	}
	return nil
}

// GetRun 获取运行记录
func (s *GormSink) GetRun(ctx context.Context, id string) (*models.QualityRun, error) {
	var run models.QualityRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return &run, nil
}

// ListRuns 按开始时间倒序分页查询运行记录（不含报告正文）
func (s *GormSink) ListRuns(ctx context.Context, page, size int) ([]models.QualityRun, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	var total int64
	db := s.db.WithContext(ctx).Model(&models.QualityRun{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计运行记录失败: %w", err)
	}

	var runs []models.QualityRun
	err := db.Omit("report").Order("started_at DESC").Offset((page - 1) * size).Limit(size).Find(&runs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return runs, total, nil
}

// LoadCleaned 读取指定运行写入的清洗结果
func (s *GormSink) LoadCleaned(ctx context.Context, runID string) ([]*models.SalesRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	var rows []models.CleanedSalesRecord
	err := s.db.WithContext(ctx).Table(s.cleanedTable).Where("run_id = ?", runID).Order("row_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("读取清洗结果失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrCleanedSetReplaced
	}

	records := make([]*models.SalesRecord, len(rows))
	for i := range rows {
		records[i] = &rows[i].SalesRecord
	}
	return records, nil
}

// CountCleaned 清洗结果表记录数
func (s *GormSink) CountCleaned(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Table(s.cleanedTable).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计清洗结果失败: %w", err)
	}
	return n, nil
}

// DeleteRunsBefore 删除早于截止时间的运行记录及其报告文件
func (s *GormSink) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db := s.db.WithContext(ctx)

	var ids []string
	if err := db.Model(&models.QualityRun{}).Where("started_at < ?", cutoff).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("查询过期运行记录失败: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := db.Where("id IN ?", ids).Delete(&models.QualityRun{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除过期运行记录失败: %w", result.Error)
	}

	for _, id := range ids {
		if path := s.reportPath(id); path != "" {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Warn("删除报告文件失败", "path", path, "error", err)
			}
		}
	}
	return result.RowsAffected, nil
}

func (s *GormSink) reportPath(runID string) string {
	if s.reportDir == "" {
		return ""
	}
	return filepath.Join(s.reportDir, fmt.Sprintf("quality_report_%s.txt", runID))
}

func (s *GormSink) writeReport(run *models.QualityRun) error {
	path := s.reportPath(run.ID)
	if path == "" || run.Report == "" {
		return nil
	}
	if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(run.Report), 0o644)
}
