/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference DESIGN.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models, service/database
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sales-quality-service/service/database"
	"sales-quality-service/service/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 测试使用的表名
const (
	SourceTable  = "sales_orders"
	CleanedTable = "sales_orders_cleaned"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 内存库每个连接相互独立，限制为单连接
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	err = database.AutoMigrate(db, database.Tables{Source: SourceTable, Cleaned: CleanedTable})
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	for _, table := range []string{SourceTable, CleanedTable, "quality_runs"} {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// SalesRecordOption 订单记录选项函数类型
type SalesRecordOption func(*models.SalesRecord)

// WithPrice 设置单价并保持销售额一致
func WithPrice(price float64) SalesRecordOption {
	return func(r *models.SalesRecord) {
		r.UnitPrice = models.Ptr(price)
		if r.Quantity != nil {
			r.Revenue = models.Ptr(price * float64(*r.Quantity))
		}
	}
}

// WithCategory 设置产品类别
func WithCategory(category string) SalesRecordOption {
	return func(r *models.SalesRecord) {
		r.Category = models.Ptr(category)
	}
}

// WithOrderID 设置订单号
func WithOrderID(id string) SalesRecordOption {
	return func(r *models.SalesRecord) {
		r.OrderID = models.Ptr(id)
	}
}

// NewSalesRecord 构造字段完整且没有异常的订单记录
func NewSalesRecord(opts ...SalesRecordOption) *models.SalesRecord {
	record := &models.SalesRecord{
		OrderID:         models.Ptr(generateID("ORD")),
		SalespersonID:   models.Ptr(int64(1001)),
		SalespersonName: models.Ptr("张伟"),
		Category:        models.Ptr("智能手机"),
		UnitPrice:       models.Ptr(4999.0),
		Quantity:        models.Ptr(int64(2)),
		Revenue:         models.Ptr(9998.0),
		OrderDate:       models.Ptr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		Region:          models.Ptr("华东"),
		CustomerType:    models.Ptr("企业客户"),
	}

	// 应用选项
	for _, opt := range opts {
		opt(record)
	}
	return record
}

// CreateSalesRecord 创建测试订单记录
func (f *TestDataFactory) CreateSalesRecord(opts ...SalesRecordOption) *models.SalesRecord {
	record := NewSalesRecord(opts...)

	err := f.DB.Table(SourceTable).Create(record).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test sales record: %v", err))
	}

	return record
}

// CreateSalesRecords 批量创建测试订单记录
func (f *TestDataFactory) CreateSalesRecords(n int, opts ...SalesRecordOption) []*models.SalesRecord {
	records := make([]*models.SalesRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, f.CreateSalesRecord(opts...))
	}
	return records
}

// QualityRunOption 运行记录选项函数类型
type QualityRunOption func(*models.QualityRun)

// CreateQualityRun 创建测试运行记录
func (f *TestDataFactory) CreateQualityRun(opts ...QualityRunOption) *models.QualityRun {
	now := time.Now()
	run := &models.QualityRun{
		Source:       "table:" + SourceTable,
		Trigger:      models.TriggerManual,
		Status:       models.RunStatusCompleted,
		StartedAt:    now,
		FinishedAt:   now,
		RawCount:     10,
		CleanedCount: 10,
		RawScore:     92.5,
		RawGrade:     "excellent",
		CleanedScore: 100,
		CleanedGrade: "excellent",
		Report:       "销售数据质量报告",
		CreatedAt:    now,
	}

	// 应用选项
	for _, opt := range opts {
		opt(run)
	}

	err := f.DB.Create(run).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test quality run: %v", err))
	}

	return run
}

// 辅助函数
func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), generateSuffix())
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// DecodeAPIResponse 解码统一响应结构中的 status 与 data
func (h *HTTPTestHelper) DecodeAPIResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, data interface{}) int {
	assert.Equal(t, expectedStatus, w.Code)

	var body struct {
		Status int             `json:"status"`
		Msg    string          `json:"msg"`
		Data   json.RawMessage `json:"data"`
	}
	if !assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)) {
		return -1
	}
	if data != nil && len(body.Data) > 0 {
		assert.NoError(t, json.Unmarshal(body.Data, data))
	}
	return body.Status
}
