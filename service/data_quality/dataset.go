/*
 * @module service/data_quality/dataset
 * @description 记录集，保存记录源实际提供的列与有序记录
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 记录源 -> Dataset -> 检测 / 评分 / 清洗
 * @rules Clone 深拷贝记录，清洗在副本上进行；缺失的列只影响依赖它的规则
 * @dependencies service/models
 * @refs detector.go, cleanser.go
 */

package data_quality

import (
	"sales-quality-service/service/models"
)

// Dataset 一次质量运行处理的完整记录集
//
// Columns 记录记录源实际提供的列；缺失的列不会出现在其中，依赖它们的规则会被标记为无法执行。
type Dataset struct {
	Columns []string
	Records []*models.SalesRecord
	columns map[string]struct{}
}

// NewDataset 创建记录集，未指定列时视为提供完整列集合
func NewDataset(records []*models.SalesRecord, columns ...string) *Dataset {
	if len(columns) == 0 {
		columns = models.SalesColumns
	}
	return newDatasetWithColumns(records, columns)
}

func newDatasetWithColumns(records []*models.SalesRecord, columns []string) *Dataset {
	ds := &Dataset{
		Columns: append([]string(nil), columns...),
		Records: records,
		columns: make(map[string]struct{}, len(columns)),
	}
	for _, c := range columns {
		ds.columns[c] = struct{}{}
	}
	return ds
}

// Len 记录数
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// HasColumn 判断列是否存在
func (d *Dataset) HasColumn(column string) bool {
	if d.columns == nil {
		d.columns = make(map[string]struct{}, len(d.Columns))
		for _, c := range d.Columns {
			d.columns[c] = struct{}{}
		}
	}
	_, ok := d.columns[column]
	return ok
}

// Clone 深拷贝记录集
func (d *Dataset) Clone() *Dataset {
	records := make([]*models.SalesRecord, len(d.Records))
	for i, r := range d.Records {
		records[i] = r.Clone()
	}
	return newDatasetWithColumns(records, d.Columns)
}

// NullCount 统计指定列的空值数量
func (d *Dataset) NullCount(column string) int {
	n := 0
	for _, r := range d.Records {
		if r.IsNull(column) {
			n++
		}
	}
	return n
}
