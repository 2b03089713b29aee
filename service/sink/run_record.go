package sink

import (
	"fmt"

	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/models"
)

// NewQualityRun 将一次运行结果转换为可持久化的运行记录
func NewQualityRun(result *data_quality.RunResult, source, trigger string) (*models.QualityRun, error) {
	dimensions, err := models.ToJSONB(map[string]interface{}{
		"raw":     result.RawScore,
		"cleaned": result.CleanedScore,
		"profile": result.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化评分失败: %w", err)
	}

	after := map[string]int{}
	if result.CleanedAnomalies != nil {
		after = result.CleanedAnomalies.Counts()
	}
	anomalies, err := models.ToJSONB(map[string]interface{}{
		"before": result.Anomalies.Counts(),
		"after":  after,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化异常统计失败: %w", err)
	}

	verification, err := models.ToJSONB(result.Verification)
	if err != nil {
		return nil, fmt.Errorf("序列化验证结果失败: %w", err)
	}

	return &models.QualityRun{
		ID:             result.RunID,
		Source:         source,
		Trigger:        trigger,
		Status:         models.RunStatusCompleted,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		DurationMs:     result.Duration().Milliseconds(),
		RawCount:       result.Raw.Len(),
		CleanedCount:   result.Cleaned.Len(),
		RawScore:       result.RawScore.Composite,
		RawGrade:       string(result.RawScore.Grade),
		CleanedScore:   result.CleanedScore.Composite,
		CleanedGrade:   string(result.CleanedScore.Grade),
		AnomalyTotal:   result.Anomalies.Total(),
		Dimensions:     dimensions,
		Anomalies:      anomalies,
		Verification:   verification,
		RemediationLog: models.JSONBStringArray(result.Log.Lines()),
		SkippedRules:   result.Anomalies.SkippedRules(),
		Report:         data_quality.RenderReport(result),
	}, nil
}
