/*
 * @module service/sink/excel_exporter
 * @description 将清洗后记录与运行概况导出为 Excel 工作簿
 * @architecture 数据访问层 - 结果输出
 * @documentReference DESIGN.md
 * @stateFlow 清洗后记录 + 运行记录 -> 工作簿 -> 写出
 * @rules 空值写为空单元格；表头使用中文列名
 * @dependencies github.com/xuri/excelize/v2
 * @refs gorm_sink.go
 */

package sink

import (
	"fmt"
	"io"

	"sales-quality-service/service/models"

	"github.com/xuri/excelize/v2"
)

// 工作表名称
const (
	SheetCleaned = "清洗后数据"
	SheetSummary = "质量概况"
)

var columnTitles = map[string]string{
	models.ColumnOrderID:         "订单ID",
	models.ColumnSalespersonID:   "销售员ID",
	models.ColumnSalespersonName: "销售员姓名",
	models.ColumnCategory:        "产品类别",
	models.ColumnUnitPrice:       "单价",
	models.ColumnQuantity:        "数量",
	models.ColumnRevenue:         "销售额",
	models.ColumnOrderDate:       "订单日期",
	models.ColumnRegion:          "区域",
	models.ColumnCustomerType:    "客户类型",
}

// ExportWorkbook 写出包含清洗后数据与质量概况两个工作表的工作簿
func ExportWorkbook(w io.Writer, run *models.QualityRun, records []*models.SalesRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCleaned); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}
	if err := writeRecords(f, records); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}
	if err := writeSummary(f, run); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写出工作簿失败: %w", err)
	}
	return nil
}

func writeRecords(f *excelize.File, records []*models.SalesRecord) error {
	header := make([]interface{}, len(models.SalesColumns))
	for i, c := range models.SalesColumns {
		header[i] = columnTitles[c]
	}
	if err := f.SetSheetRow(SheetCleaned, "A1", &header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := recordRow(r)
		if err := f.SetSheetRow(SheetCleaned, cell, &row); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+2, err)
		}
	}
	return nil
}

func recordRow(r *models.SalesRecord) []interface{} {
	row := []interface{}{
		deref(r.OrderID),
		deref(r.SalespersonID),
		deref(r.SalespersonName),
		deref(r.Category),
		deref(r.UnitPrice),
		deref(r.Quantity),
		deref(r.Revenue),
		nil,
		deref(r.Region),
		deref(r.CustomerType),
	}
	if r.OrderDate != nil {
		row[7] = r.OrderDate.Format("2006-01-02")
	}
	return row
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func writeSummary(f *excelize.File, run *models.QualityRun) error {
	rows := [][]interface{}{
		{"运行ID", run.ID},
		{"数据源", run.Source},
		{"开始时间", run.StartedAt.Format("2006-01-02 15:04:05")},
		{"原始记录数", run.RawCount},
		{"清洗后记录数", run.CleanedCount},
		{"清洗前评分", run.RawScore},
		{"清洗前等级", run.RawGrade},
		{"清洗后评分", run.CleanedScore},
		{"清洗后等级", run.CleanedGrade},
		{"异常总数", run.AnomalyTotal},
	}
	for i, line := range run.RemediationLog {
		label := ""
		if i == 0 {
			label = "清洗日志"
		}
		rows = append(rows, []interface{}{label, line})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("写入概况失败: %w", err)
		}
	}
	return f.SetColWidth(SheetSummary, "B", "B", 60)
}
