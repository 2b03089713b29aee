/*
 * @module api/controllers/quality_controller
 * @description 数据质量控制器，提供质量运行触发、在线评估与清洗、运行记录查询、报告与 Excel 导出
 * @architecture MVC架构 - 控制器层
 * @documentReference DESIGN.md
 * @stateFlow HTTP请求 -> 参数校验 -> 质量运行服务 -> 统一响应
 * @rules 业务错误按类型映射为 HTTP 状态码；在线评估与清洗不写库
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/quality_service.go
 */

package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sales-quality-service/service"
	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/distributed_lock"
	"sales-quality-service/service/models"
	"sales-quality-service/service/sink"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// QualityController 数据质量控制器
type QualityController struct {
	quality *service.QualityService
}

// NewQualityController 创建数据质量控制器实例
func NewQualityController(quality *service.QualityService) *QualityController {
	return &QualityController{quality: quality}
}

// RecordsRequest 在线评估/清洗请求
type RecordsRequest struct {
	// Columns 记录实际包含的列，为空时视为包含全部列
	Columns []string              `json:"columns,omitempty"`
	Records []*models.SalesRecord `json:"records"`
}

// EvaluateResponse 在线评估结果
type EvaluateResponse struct {
	Profile      data_quality.Profile      `json:"profile"`
	Score        data_quality.QualityScore `json:"score"`
	Anomalies    map[string]int            `json:"anomalies"`
	AnomalyTotal int                       `json:"anomaly_total"`
	SkippedRules []string                  `json:"skipped_rules,omitempty"`
}

// RemediateResponse 在线清洗结果
type RemediateResponse struct {
	RunID        string                     `json:"run_id"`
	RawScore     data_quality.QualityScore  `json:"raw_score"`
	CleanedScore data_quality.QualityScore  `json:"cleaned_score"`
	Log          []string                   `json:"log"`
	Verification *data_quality.Verification `json:"verification"`
	Records      []*models.SalesRecord      `json:"records"`
	Report       string                     `json:"report"`
}

// errorStatus 业务错误到 HTTP 状态码的映射
func errorStatus(err error) int {
	var schemaErr *data_quality.SchemaError
	switch {
	case errors.Is(err, distributed_lock.ErrLockHeld):
		return http.StatusConflict
	case errors.Is(err, sink.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, sink.ErrCleanedSetReplaced):
		return http.StatusGone
	case errors.Is(err, data_quality.ErrEmptyInput),
		errors.Is(err, data_quality.ErrNoEvaluableRule),
		errors.Is(err, data_quality.ErrScoreUndefined),
		errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// RunSweep 执行质量运行
// @Summary 执行质量运行
// @Description 对配置的记录源执行检测、评分、清洗与验证，保存清洗结果与运行记录
// @Tags 数据质量
// @Produce json
// @Success 200 {object} APIResponse{data=models.QualityRun}
// @Failure 409 {object} APIResponse "已有运行在执行"
// @Failure 422 {object} APIResponse "记录源为空或无法评估"
// @Failure 500 {object} APIResponse
// @Router /quality/runs [post]
func (c *QualityController) RunSweep(w http.ResponseWriter, r *http.Request) {
	run, err := c.quality.RunSweep(r.Context(), models.TriggerManual)
	if err != nil {
		renderError(w, r, errorStatus(err), "质量运行失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("质量运行完成", run))
}

// Evaluate 在线评估
// @Summary 在线评估记录质量
// @Description 对提交的记录执行异常检测与评分，不清洗、不保存
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body RecordsRequest true "订单记录"
// @Success 200 {object} APIResponse{data=EvaluateResponse}
// @Failure 400 {object} APIResponse
// @Failure 422 {object} APIResponse
// @Router /quality/evaluate [post]
func (c *QualityController) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "请求参数格式错误", err)
		return
	}

	eval, err := c.quality.Evaluate(req.Records, req.Columns)
	if err != nil {
		renderError(w, r, errorStatus(err), "质量评估失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("质量评估完成", EvaluateResponse{
		Profile:      eval.Profile,
		Score:        eval.Score,
		Anomalies:    eval.Anomalies.Counts(),
		AnomalyTotal: eval.Anomalies.Total(),
		SkippedRules: eval.Anomalies.SkippedRules(),
	}))
}

// Remediate 在线清洗
// @Summary 在线清洗记录
// @Description 对提交的记录执行完整质量运行，返回清洗后的记录、日志与报告，不保存
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body RecordsRequest true "订单记录"
// @Success 200 {object} APIResponse{data=RemediateResponse}
// @Failure 400 {object} APIResponse
// @Failure 422 {object} APIResponse
// @Router /quality/remediate [post]
func (c *QualityController) Remediate(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "请求参数格式错误", err)
		return
	}

	result, err := c.quality.Remediate(req.Records, req.Columns)
	if err != nil {
		renderError(w, r, errorStatus(err), "数据清洗失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("数据清洗完成", RemediateResponse{
		RunID:        result.RunID,
		RawScore:     result.RawScore,
		CleanedScore: result.CleanedScore,
		Log:          result.Log.Lines(),
		Verification: result.Verification,
		Records:      result.Cleaned.Records,
		Report:       data_quality.RenderReport(result),
	}))
}

// ListRuns 获取运行记录列表
// @Summary 获取运行记录列表
// @Description 按开始时间倒序分页获取质量运行记录
// @Tags 数据质量
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页大小" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.QualityRun}
// @Failure 500 {object} APIResponse
// @Router /quality/runs [get]
func (c *QualityController) ListRuns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 || size > 100 {
		size = 10
	}

	runs, total, err := c.quality.ListRuns(r.Context(), page, size)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, "获取运行记录失败", err)
		return
	}

	render.JSON(w, r, &PaginatedResponse{
		Status: 0,
		Msg:    "获取运行记录成功",
		Data:   runs,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetRun 获取运行记录详情
// @Summary 获取运行记录详情
// @Tags 数据质量
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=models.QualityRun}
// @Failure 404 {object} APIResponse
// @Router /quality/runs/{id} [get]
func (c *QualityController) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := c.quality.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, errorStatus(err), "获取运行记录失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("获取运行记录成功", run))
}

// GetReport 获取运行报告
// @Summary 获取运行报告
// @Description 返回运行生成的文本报告
// @Tags 数据质量
// @Produce plain
// @Param id path string true "运行ID"
// @Success 200 {string} string "报告正文"
// @Failure 404 {object} APIResponse
// @Router /quality/runs/{id}/report [get]
func (c *QualityController) GetReport(w http.ResponseWriter, r *http.Request) {
	run, err := c.quality.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, errorStatus(err), "获取运行报告失败", err)
		return
	}
	if run.Report == "" {
		msg := "该运行没有报告"
		if run.ErrorMessage != "" {
			msg = fmt.Sprintf("%s，运行失败原因: %s", msg, run.ErrorMessage)
		}
		renderError(w, r, http.StatusNotFound, msg, nil)
		return
	}
	render.PlainText(w, r, run.Report)
}

// GetAnalysis 获取运行的业务分析
// @Summary 获取业务分析
// @Description 对运行写入的清洗后记录计算核心指标、业绩排名与月度趋势；format=text 时返回文本
// @Tags 数据质量
// @Produce json,plain
// @Param id path string true "运行ID"
// @Param format query string false "输出格式 (json/text)"
// @Success 200 {object} APIResponse{data=data_quality.BusinessAnalysis}
// @Failure 404 {object} APIResponse
// @Failure 410 {object} APIResponse "清洗结果已被后续运行覆盖"
// @Router /quality/runs/{id}/analysis [get]
func (c *QualityController) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := c.quality.AnalyzeRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, errorStatus(err), "获取业务分析失败", err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		render.PlainText(w, r, data_quality.RenderAnalysis(analysis))
		return
	}
	render.JSON(w, r, SuccessResponse("获取业务分析成功", analysis))
}

// ExportRun 导出清洗结果
// @Summary 导出清洗结果
// @Description 将运行写入的清洗后记录与概况导出为 Excel
// @Tags 数据质量
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "运行ID"
// @Success 200 {file} file "Excel 文件"
// @Failure 404 {object} APIResponse
// @Failure 410 {object} APIResponse "清洗结果已被后续运行覆盖"
// @Router /quality/runs/{id}/export [get]
func (c *QualityController) ExportRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := c.quality.ExportRun(r.Context(), id, &buf); err != nil {
		renderError(w, r, errorStatus(err), "导出清洗结果失败", err)
		return
	}

	filename := fmt.Sprintf("sales_cleaned_%s_%s.xlsx", id, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetCatalog 获取规则目录
// @Summary 获取当前规则目录
// @Description 返回类别价格区间、数量规则、销售额容差与维度权重
// @Tags 数据质量
// @Produce json
// @Success 200 {object} APIResponse{data=data_quality.CatalogDefinition}
// @Router /quality/catalog [get]
func (c *QualityController) GetCatalog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取规则目录成功", c.quality.Catalog()))
}
