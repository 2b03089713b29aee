/*
 * @module service/models/sales_record
 * @description 销售订单记录模型，承载数据质量检测、评分与清洗流程的原始数据与清洗后数据
 * @architecture 数据模型层
 * @documentReference DESIGN.md
 * @stateFlow 记录源读取 -> 质量检测 -> 清洗修正 -> 写入清洗表
 * @rules 可为空的业务字段统一使用指针表示，nil 即空值
 * @dependencies gorm.io/gorm, time
 * @refs service/data_quality, service/datasource, service/sink
 */

package models

import (
	"time"
)

// 销售记录字段名（与数据库列名一致）
const (
	ColumnOrderID         = "order_id"
	ColumnSalespersonID   = "salesperson_id"
	ColumnSalespersonName = "salesperson_name"
	ColumnCategory        = "category"
	ColumnUnitPrice       = "unit_price"
	ColumnQuantity        = "quantity"
	ColumnRevenue         = "revenue"
	ColumnOrderDate       = "order_date"
	ColumnRegion          = "region"
	ColumnCustomerType    = "customer_type"
)

// SalesColumns 销售记录的完整列集合，顺序即报告与导出中的列顺序
var SalesColumns = []string{
	ColumnOrderID,
	ColumnSalespersonID,
	ColumnSalespersonName,
	ColumnCategory,
	ColumnUnitPrice,
	ColumnQuantity,
	ColumnRevenue,
	ColumnOrderDate,
	ColumnRegion,
	ColumnCustomerType,
}

// IsNumericColumn 判断列是否为数值列
func IsNumericColumn(column string) bool {
	switch column {
	case ColumnSalespersonID, ColumnUnitPrice, ColumnQuantity, ColumnRevenue:
		return true
	}
	return false
}

// SalesRecord 销售订单记录
type SalesRecord struct {
	RowID           uint64     `gorm:"column:row_id;primaryKey;autoIncrement" json:"row_id"`
	OrderID         *string    `gorm:"column:order_id;type:varchar(64);index" json:"order_id"`
	SalespersonID   *int64     `gorm:"column:salesperson_id" json:"salesperson_id"`
	SalespersonName *string    `gorm:"column:salesperson_name;type:varchar(64)" json:"salesperson_name"`
	Category        *string    `gorm:"column:category;type:varchar(64);index" json:"category"`
	UnitPrice       *float64   `gorm:"column:unit_price;type:decimal(12,2)" json:"unit_price"`
	Quantity        *int64     `gorm:"column:quantity" json:"quantity"`
	Revenue         *float64   `gorm:"column:revenue;type:decimal(14,2)" json:"revenue"`
	OrderDate       *time.Time `gorm:"column:order_date;type:date" json:"order_date"`
	Region          *string    `gorm:"column:region;type:varchar(32)" json:"region"`
	CustomerType    *string    `gorm:"column:customer_type;type:varchar(32)" json:"customer_type"`
}

// TableName 指定原始订单表名
func (SalesRecord) TableName() string {
	return "sales_orders"
}

// IsNull 判断指定列是否为空，未知列视为空
func (r *SalesRecord) IsNull(column string) bool {
	switch column {
	case ColumnOrderID:
		return r.OrderID == nil
	case ColumnSalespersonID:
		return r.SalespersonID == nil
	case ColumnSalespersonName:
		return r.SalespersonName == nil
	case ColumnCategory:
		return r.Category == nil
	case ColumnUnitPrice:
		return r.UnitPrice == nil
	case ColumnQuantity:
		return r.Quantity == nil
	case ColumnRevenue:
		return r.Revenue == nil
	case ColumnOrderDate:
		return r.OrderDate == nil
	case ColumnRegion:
		return r.Region == nil
	case ColumnCustomerType:
		return r.CustomerType == nil
	}
	return true
}

// Clone 深拷贝记录，修改副本不会影响原记录
func (r *SalesRecord) Clone() *SalesRecord {
	c := &SalesRecord{RowID: r.RowID}
	c.OrderID = cloneValue(r.OrderID)
	c.SalespersonID = cloneValue(r.SalespersonID)
	c.SalespersonName = cloneValue(r.SalespersonName)
	c.Category = cloneValue(r.Category)
	c.UnitPrice = cloneValue(r.UnitPrice)
	c.Quantity = cloneValue(r.Quantity)
	c.Revenue = cloneValue(r.Revenue)
	c.OrderDate = cloneValue(r.OrderDate)
	c.Region = cloneValue(r.Region)
	c.CustomerType = cloneValue(r.CustomerType)
	return c
}

// Equal 按业务字段逐一比较两条记录（不比较 RowID）
func (r *SalesRecord) Equal(o *SalesRecord) bool {
	if r == nil || o == nil {
		return r == o
	}
	return equalValue(r.OrderID, o.OrderID) &&
		equalValue(r.SalespersonID, o.SalespersonID) &&
		equalValue(r.SalespersonName, o.SalespersonName) &&
		equalValue(r.Category, o.Category) &&
		equalValue(r.UnitPrice, o.UnitPrice) &&
		equalValue(r.Quantity, o.Quantity) &&
		equalValue(r.Revenue, o.Revenue) &&
		equalTime(r.OrderDate, o.OrderDate) &&
		equalValue(r.Region, o.Region) &&
		equalValue(r.CustomerType, o.CustomerType)
}

// CleanedSalesRecord 清洗后订单记录，结构与原始表一致
type CleanedSalesRecord struct {
	SalesRecord
	RunID string `gorm:"column:run_id;type:varchar(50);index" json:"run_id"`
}

// TableName 指定清洗后订单表名
func (CleanedSalesRecord) TableName() string {
	return "sales_orders_cleaned"
}

// Ptr 返回值的指针，便于构造可空字段
func Ptr[T any](v T) *T {
	return &v
}

func cloneValue[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalValue[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
