/*
 * @module service/data_quality/quality_engine
 * @description 数据质量引擎，串联异常检测、质量评分、数据清洗与效果验证，完成一次批量质量运行
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 原始记录 -> 异常检测 -> 评分 -> 清洗 -> 验证 -> 清洗后评分 -> 运行结果
 * @rules 单线程同步执行；要么产出完整结果，要么返回错误且没有部分输出；规则目录只读共享
 * @dependencies github.com/google/uuid
 * @refs detector.go, scorer.go, cleanser.go, verifier.go, report.go
 */

package data_quality

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Options 引擎构造参数
type Options struct {
	// Catalog 规则目录，为空时使用默认目录
	Catalog *RuleCatalog
	// PriceStrategy 价格替换策略，为空时使用随机策略
	PriceStrategy PriceStrategy
}

// QualityEngine 数据质量引擎
type QualityEngine struct {
	catalog  *RuleCatalog
	detector *Detector
	scorer   *Scorer
	cleanser *Cleanser
	verifier *Verifier
}

// NewQualityEngine 创建数据质量引擎实例
func NewQualityEngine(opts Options) *QualityEngine {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = DefaultRuleCatalog()
	}
	return &QualityEngine{
		catalog:  catalog,
		detector: NewDetector(catalog),
		scorer:   NewScorer(catalog),
		cleanser: NewCleanser(catalog, opts.PriceStrategy),
		verifier: NewVerifier(catalog),
	}
}

// Catalog 引擎使用的规则目录
func (e *QualityEngine) Catalog() *RuleCatalog {
	return e.catalog
}

// Evaluation 只检测与评分、不清洗的结果
type Evaluation struct {
	Profile   Profile      `json:"profile"`
	Anomalies *Anomalies   `json:"anomalies"`
	Score     QualityScore `json:"score"`
}

// RunResult 一次完整质量运行的结果
type RunResult struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Profile      Profile
	Anomalies    *Anomalies
	RawScore     QualityScore
	CleanedScore QualityScore
	Log          *RemediationLog
	Verification *Verification
	Raw          *Dataset
	Cleaned      *Dataset

	// CleanedAnomalies 清洗后记录集的复检结果
	CleanedAnomalies *Anomalies
}

// Duration 运行耗时
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Evaluate 执行检测与评分
func (e *QualityEngine) Evaluate(ds *Dataset) (*Evaluation, error) {
	if ds.Len() == 0 {
		return nil, ErrEmptyInput
	}
	anomalies, err := e.detector.Detect(ds)
	if err != nil {
		return nil, fmt.Errorf("异常检测失败: %w", err)
	}
	score, err := e.scorer.Score(ds, anomalies)
	if err != nil {
		return nil, fmt.Errorf("质量评分失败: %w", err)
	}
	return &Evaluation{
		Profile:   ProfileDataset(ds),
		Anomalies: anomalies,
		Score:     score,
	}, nil
}

// Run 执行完整的检测、评分、清洗与验证
func (e *QualityEngine) Run(ds *Dataset) (*RunResult, error) {
	startTime := time.Now()
	runID := uuid.New().String()
	slog.Info("开始数据质量运行", "run_id", runID, "records", ds.Len())

	eval, err := e.Evaluate(ds)
	if err != nil {
		return nil, err
	}

	cleaned, log, err := e.cleanser.Remediate(ds, eval.Anomalies)
	if err != nil {
		return nil, fmt.Errorf("数据清洗失败: %w", err)
	}

	verification, err := e.verifier.Verify(ds, cleaned)
	if err != nil {
		return nil, fmt.Errorf("清洗验证失败: %w", err)
	}

	cleanedAnomalies, err := e.detector.Detect(cleaned)
	if err != nil {
		return nil, fmt.Errorf("清洗后检测失败: %w", err)
	}
	cleanedScore, err := e.scorer.Score(cleaned, cleanedAnomalies)
	if err != nil {
		return nil, fmt.Errorf("清洗后评分失败: %w", err)
	}

	result := &RunResult{
		RunID:            runID,
		StartedAt:        startTime,
		FinishedAt:       time.Now(),
		Profile:          eval.Profile,
		Anomalies:        eval.Anomalies,
		CleanedAnomalies: cleanedAnomalies,
		RawScore:         eval.Score,
		CleanedScore:     cleanedScore,
		Log:              log,
		Verification:     verification,
		Raw:              ds,
		Cleaned:          cleaned,
	}

	slog.Info("数据质量运行完成",
		"run_id", runID,
		"raw_score", result.RawScore.Composite,
		"cleaned_score", result.CleanedScore.Composite,
		"anomalies", result.Anomalies.Total(),
		"actions", log.Len(),
		"duration_ms", result.Duration().Milliseconds())
	return result, nil
}
