/*
 * @module service/data_quality/errors
 * @description 数据质量引擎的哨兵错误与列缺失错误
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 引擎错误 -> API 层 errors.Is/As -> HTTP 状态码
 * @rules 空输入、无可执行规则、评分无定义与列缺失在 API 层都映射为 422
 * @dependencies errors
 * @refs api/controllers/quality_controller.go
 */

package data_quality

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput 输入记录为空，逐条比例无法计算
	ErrEmptyInput = errors.New("输入记录为空")
	// ErrNoEvaluableRule 所有检测规则都因缺少字段而无法执行
	ErrNoEvaluableRule = errors.New("没有可执行的检测规则")
	// ErrScoreUndefined 所有评分维度都无法计算
	ErrScoreUndefined = errors.New("所有评分维度均无法计算")
)

// SchemaError 必需字段缺失，依赖该字段的规则被跳过
type SchemaError struct {
	Rule    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("规则 %s 无法执行，缺少字段: %s", e.Rule, strings.Join(e.Missing, ", "))
}

// missingColumns 返回数据集中缺失的列，全部存在时返回 nil
func missingColumns(ds *Dataset, columns ...string) []string {
	var missing []string
	for _, c := range columns {
		if !ds.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}
