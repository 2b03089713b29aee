/*
 * @module service/datasource/csv_source
 * @description CSV 订单记录源，支持英文列名与中文列名表头，支持 UTF-8 与 GBK 编码的导出文件
 * @architecture 数据访问层 - 记录源实现
 * @documentReference DESIGN.md
 * @stateFlow 打开文件 -> 编码转换 -> 解析表头 -> 逐行转换字段 -> 记录集
 * @rules 空字符串与 NULL/NaN 视为空值；无法解析的值按空值处理并记录告警
 * @dependencies golang.org/x/text/encoding/simplifiedchinese, github.com/spf13/cast
 * @refs interface.go
 */

package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/models"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// headerAliases 中文表头到列名的映射
var headerAliases = map[string]string{
	"订单ID":  models.ColumnOrderID,
	"订单号":   models.ColumnOrderID,
	"销售员ID": models.ColumnSalespersonID,
	"销售员姓名": models.ColumnSalespersonName,
	"产品类别":  models.ColumnCategory,
	"单价":    models.ColumnUnitPrice,
	"数量":    models.ColumnQuantity,
	"销售额":   models.ColumnRevenue,
	"订单日期":  models.ColumnOrderDate,
	"区域":    models.ColumnRegion,
	"客户类型":  models.ColumnCustomerType,
}

var dateLayouts = []string{"2006/01/02", "2006/1/2", "2006-1-2"}

// CSVSource CSV 文件记录源
type CSVSource struct {
	path     string
	encoding string
}

// NewCSVSource 创建 CSV 记录源，encoding 为 utf-8 或 gbk
func NewCSVSource(path, encoding string) *CSVSource {
	return &CSVSource{path: path, encoding: strings.ToLower(encoding)}
}

// GetType 获取记录源类型
func (s *CSVSource) GetType() string {
	return SourceTypeCSV
}

// Describe 记录源位置描述
func (s *CSVSource) Describe() string {
	return "csv:" + s.path
}

// Load 读取 CSV 文件全部记录
func (s *CSVSource) Load(ctx context.Context) (*data_quality.Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("打开CSV文件失败: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(s.decode(f))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV文件为空: %s", s.path)
		}
		return nil, fmt.Errorf("读取CSV表头失败: %w", err)
	}
	positions, columns := mapHeader(header)
	if len(columns) == 0 {
		return nil, fmt.Errorf("CSV表头中没有可识别的列: %v", header)
	}

	var records []*models.SalesRecord
	invalid := 0
	for line := 2; ; line++ {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析CSV第%d行失败: %w", line, err)
		}

		r := &models.SalesRecord{RowID: uint64(line - 1)}
		for idx, column := range positions {
			if idx >= len(row) {
				continue
			}
			if !setField(r, column, row[idx]) {
				invalid++
				slog.Debug("CSV字段无法解析，按空值处理", "line", line, "column", column, "value", row[idx])
			}
		}
		records = append(records, r)
	}

	if invalid > 0 {
		slog.Warn("CSV中存在无法解析的字段，已按空值处理", "path", s.path, "count", invalid)
	}
	slog.Info("CSV记录读取完成", "path", s.path, "records", len(records), "columns", columns)
	return data_quality.NewDataset(records, columns...), nil
}

// HealthCheck 检查文件是否可读并统计记录数
func (s *CSVSource) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	status := &HealthStatus{Status: "online", LastCheck: start}

	ds, err := s.Load(ctx)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.Status = "error"
		status.Message = err.Error()
		return status, err
	}
	status.RecordCount = int64(ds.Len())
	return status, nil
}

func (s *CSVSource) decode(r io.Reader) io.Reader {
	if s.encoding == "gbk" {
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	}
	return r
}

// mapHeader 返回 列下标->列名 的映射以及按标准顺序排列的列集合
func mapHeader(header []string) (map[int]string, []string) {
	positions := make(map[int]string)
	found := make(map[string]bool)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		column := strings.ToLower(h)
		if alias, ok := headerAliases[h]; ok {
			column = alias
		}
		if !isSalesColumn(column) || found[column] {
			continue
		}
		positions[i] = column
		found[column] = true
	}

	var columns []string
	for _, c := range models.SalesColumns {
		if found[c] {
			columns = append(columns, c)
		}
	}
	return positions, columns
}

func isSalesColumn(column string) bool {
	for _, c := range models.SalesColumns {
		if c == column {
			return true
		}
	}
	return false
}

func isNullValue(v string) bool {
	switch strings.ToLower(v) {
	case "", "null", "nan", "none", "na":
		return true
	}
	return false
}

// setField 写入字段值，空值返回 true，无法解析返回 false
func setField(r *models.SalesRecord, column, raw string) bool {
	v := strings.TrimSpace(raw)
	if isNullValue(v) {
		return true
	}

	switch column {
	case models.ColumnOrderID:
		r.OrderID = models.Ptr(v)
	case models.ColumnSalespersonName:
		r.SalespersonName = models.Ptr(v)
	case models.ColumnCategory:
		r.Category = models.Ptr(v)
	case models.ColumnRegion:
		r.Region = models.Ptr(v)
	case models.ColumnCustomerType:
		r.CustomerType = models.Ptr(v)
	case models.ColumnUnitPrice:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return false
		}
		r.UnitPrice = &f
	case models.ColumnRevenue:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return false
		}
		r.Revenue = &f
	case models.ColumnSalespersonID:
		n, ok := parseInteger(v)
		if !ok {
			return false
		}
		r.SalespersonID = &n
	case models.ColumnQuantity:
		n, ok := parseInteger(v)
		if !ok {
			return false
		}
		r.Quantity = &n
	case models.ColumnOrderDate:
		t, ok := parseDate(v)
		if !ok {
			return false
		}
		r.OrderDate = &t
	}
	return true
}

// parseInteger 接受 "3" 与 "3.0" 形式的整数
func parseInteger(v string) (int64, bool) {
	f, err := cast.ToFloat64E(v)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func parseDate(v string) (time.Time, bool) {
	if t, err := cast.ToTimeInDefaultLocationE(v, time.UTC); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
