/*
 * @module service/data_quality/profile
 * @description 记录集基础审查：记录数、时间范围、去重计数与各列空值统计
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 记录集 -> Profile
 * @rules 只读，不修改记录集
 * @dependencies service/models
 * @refs report.go, quality_engine.go
 */

package data_quality

import (
	"time"

	"sales-quality-service/service/models"
)

// ColumnProfile 单列空值统计
type ColumnProfile struct {
	Column    string  `json:"column"`
	NullCount int     `json:"null_count"`
	NullRatio float64 `json:"null_ratio"`
}

// Profile 记录集基础审查信息
type Profile struct {
	RecordCount int             `json:"record_count"`
	DateFrom    *time.Time      `json:"date_from,omitempty"`
	DateTo      *time.Time      `json:"date_to,omitempty"`
	Salespeople int             `json:"salespeople"`
	Categories  int             `json:"categories"`
	Regions     int             `json:"regions"`
	Columns     []ColumnProfile `json:"columns"`
}

// ProfileDataset 统计时间范围、去重计数与各列空值情况
func ProfileDataset(ds *Dataset) Profile {
	p := Profile{RecordCount: ds.Len()}
	salespeople := make(map[string]struct{})
	categories := make(map[string]struct{})
	regions := make(map[string]struct{})

	for _, r := range ds.Records {
		if r.OrderDate != nil {
			if p.DateFrom == nil || r.OrderDate.Before(*p.DateFrom) {
				p.DateFrom = models.Ptr(*r.OrderDate)
			}
			if p.DateTo == nil || r.OrderDate.After(*p.DateTo) {
				p.DateTo = models.Ptr(*r.OrderDate)
			}
		}
		if r.SalespersonName != nil {
			salespeople[*r.SalespersonName] = struct{}{}
		}
		if r.Category != nil {
			categories[*r.Category] = struct{}{}
		}
		if r.Region != nil {
			regions[*r.Region] = struct{}{}
		}
	}
	p.Salespeople = len(salespeople)
	p.Categories = len(categories)
	p.Regions = len(regions)

	for _, c := range ds.Columns {
		nulls := ds.NullCount(c)
		cp := ColumnProfile{Column: c, NullCount: nulls}
		if ds.Len() > 0 {
			cp.NullRatio = float64(nulls) / float64(ds.Len())
		}
		p.Columns = append(p.Columns, cp)
	}
	return p
}
