package data_quality

import (
	"fmt"
	"time"

	"sales-quality-service/service/models"
)

var testOrderDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

var testCategories = []string{"智能手机", "笔记本电脑", "平板电脑", "智能手表", "耳机"}
var testPrices = []float64{4999, 8999, 3299, 1999, 899}

// newRecord 构造字段完整且销售额一致的记录
func newRecord(orderID, category string, price float64, qty int64) *models.SalesRecord {
	return &models.SalesRecord{
		OrderID:         models.Ptr(orderID),
		SalespersonID:   models.Ptr(int64(1001)),
		SalespersonName: models.Ptr("张伟"),
		Category:        models.Ptr(category),
		UnitPrice:       models.Ptr(price),
		Quantity:        models.Ptr(qty),
		Revenue:         models.Ptr(roundTo(price*float64(qty), 2)),
		OrderDate:       models.Ptr(testOrderDate),
		Region:          models.Ptr("华东"),
		CustomerType:    models.Ptr("企业客户"),
	}
}

// cleanRecords 生成 n 条没有任何异常的记录
func cleanRecords(n int) []*models.SalesRecord {
	out := make([]*models.SalesRecord, 0, n)
	for i := 0; i < n; i++ {
		c := i % len(testCategories)
		out = append(out, newRecord(fmt.Sprintf("ORD%05d", i+1), testCategories[c], testPrices[c], int64(i%3+1)))
	}
	return out
}

func setPrice(r *models.SalesRecord, price float64) {
	r.UnitPrice = models.Ptr(price)
	r.Revenue = models.Ptr(roundTo(price*float64(*r.Quantity), 2))
}

func setQuantity(r *models.SalesRecord, qty int64) {
	r.Quantity = models.Ptr(qty)
	r.Revenue = models.Ptr(roundTo(*r.UnitPrice*float64(qty), 2))
}

func snapshot(ds *Dataset) []*models.SalesRecord {
	return ds.Clone().Records
}
