package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"sales-quality-service/service/config"
	"sales-quality-service/service/data_quality"
	"sales-quality-service/service/datasource"
	"sales-quality-service/service/distributed_lock"
	"sales-quality-service/service/event"
	"sales-quality-service/service/models"
	"sales-quality-service/service/monitoring"
	"sales-quality-service/service/sink"
	"sales-quality-service/testutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
)

type recordingPublisher struct {
	events []event.RunEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e event.RunEvent) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type failingSource struct {
	datasource.RecordSource
}

func (failingSource) Load(context.Context) (*data_quality.Dataset, error) {
	return nil, errors.New("文件不存在")
}

func (failingSource) Describe() string { return "csv:/missing.csv" }

type QualityServiceTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDB
	factory   *testutil.TestDataFactory
	sink      *sink.GormSink
	publisher *recordingPublisher
	lock      *distributed_lock.LocalLock
	service   *QualityService
}

func (s *QualityServiceTestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.factory = testutil.NewTestDataFactory(s.testDB.DB)
	s.sink = sink.NewGormSink(s.testDB.DB, config.SinkConfig{CleanedTable: testutil.CleanedTable})
	s.publisher = &recordingPublisher{}
	s.lock = distributed_lock.NewLocalLock()
	s.service = s.newService(datasource.NewGormSource(s.testDB.DB, testutil.SourceTable))
}

func (s *QualityServiceTestSuite) newService(source datasource.RecordSource) *QualityService {
	return NewQualityService(QualityServiceDeps{
		Engine:    data_quality.NewQualityEngine(data_quality.Options{PriceStrategy: data_quality.MidpointPriceStrategy{}}),
		Source:    source,
		Sink:      s.sink,
		Lock:      s.lock,
		Publisher: s.publisher,
		Metrics:   monitoring.NewMetricsCollector(prometheus.NewRegistry()),
	})
}

func (s *QualityServiceTestSuite) TearDownTest() {
	s.testDB.Close()
}

func (s *QualityServiceTestSuite) TestRunSweep_Completed() {
	ctx := context.Background()
	s.factory.CreateSalesRecords(8)
	s.factory.CreateSalesRecord(testutil.WithPrice(99999))

	run, err := s.service.RunSweep(ctx, models.TriggerManual)
	s.Require().NoError(err)
	s.Equal(models.RunStatusCompleted, run.Status)
	s.Equal(9, run.RawCount)
	s.Equal(9, run.CleanedCount)
	s.Greater(run.CleanedScore, run.RawScore)
	s.Equal("table:"+testutil.SourceTable, run.Source)

	cleaned, err := s.sink.CountCleaned(ctx)
	s.NoError(err)
	s.Equal(int64(9), cleaned)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(event.TypeRunCompleted, s.publisher.events[0].Type)
	s.Equal(run.ID, s.publisher.events[0].RunID)

	locked, _ := s.lock.IsLocked(ctx, "sweep:table:"+testutil.SourceTable)
	s.False(locked)
}

func (s *QualityServiceTestSuite) TestRunSweep_EmptySourceRecordsFailure() {
	ctx := context.Background()

	_, err := s.service.RunSweep(ctx, models.TriggerSchedule)
	s.ErrorIs(err, data_quality.ErrEmptyInput)

	runs, total, err := s.sink.ListRuns(ctx, 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(models.RunStatusFailed, runs[0].Status)
	s.NotEmpty(runs[0].ErrorMessage)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(event.TypeRunFailed, s.publisher.events[0].Type)
}

func (s *QualityServiceTestSuite) TestRunSweep_SourceError() {
	svc := s.newService(failingSource{})

	_, err := svc.RunSweep(context.Background(), models.TriggerManual)
	s.Error(err)
	s.Contains(err.Error(), "读取记录源失败")

	runs, _, err := s.sink.ListRuns(context.Background(), 1, 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal("csv:/missing.csv", runs[0].Source)
}

func (s *QualityServiceTestSuite) TestRunSweep_LockHeld() {
	ctx := context.Background()
	s.factory.CreateSalesRecords(2)
	ok, _ := s.lock.TryLock(ctx, "sweep:table:"+testutil.SourceTable, time.Hour)
	s.Require().True(ok)

	_, err := s.service.RunSweep(ctx, models.TriggerManual)
	s.ErrorIs(err, distributed_lock.ErrLockHeld)
	s.Empty(s.publisher.events)
}

func (s *QualityServiceTestSuite) TestExportRun() {
	ctx := context.Background()
	s.factory.CreateSalesRecords(3)
	run, err := s.service.RunSweep(ctx, models.TriggerManual)
	s.Require().NoError(err)

	var buf bytes.Buffer
	s.Require().NoError(s.service.ExportRun(ctx, run.ID, &buf))

	f, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer f.Close()
	rows, err := f.GetRows(sink.SheetCleaned)
	s.Require().NoError(err)
	s.Len(rows, 4)

	s.ErrorIs(s.service.ExportRun(ctx, "missing", &buf), sink.ErrRunNotFound)
}

func (s *QualityServiceTestSuite) TestAnalyzeRun() {
	ctx := context.Background()
	s.factory.CreateSalesRecords(3)
	run, err := s.service.RunSweep(ctx, models.TriggerManual)
	s.Require().NoError(err)

	analysis, err := s.service.AnalyzeRun(ctx, run.ID)
	s.Require().NoError(err)
	s.Equal(3, analysis.Orders)
	s.Equal(29994.0, analysis.TotalRevenue)
	s.Require().Len(analysis.Categories, 1)
	s.Equal(100.0, analysis.Categories[0].RevenueShare)

	_, err = s.service.AnalyzeRun(ctx, "missing")
	s.ErrorIs(err, sink.ErrRunNotFound)

	_, err = s.service.RunSweep(ctx, models.TriggerManual)
	s.Require().NoError(err)
	_, err = s.service.AnalyzeRun(ctx, run.ID)
	s.ErrorIs(err, sink.ErrCleanedSetReplaced)
}

func (s *QualityServiceTestSuite) TestEvaluateAndRemediate() {
	records := []*models.SalesRecord{
		testutil.NewSalesRecord(testutil.WithOrderID("A1")),
		testutil.NewSalesRecord(testutil.WithOrderID("A2"), testutil.WithPrice(10)),
	}

	eval, err := s.service.Evaluate(records, nil)
	s.Require().NoError(err)
	s.Equal(1, eval.Anomalies.PriceAnomalyCount())

	result, err := s.service.Remediate(records, nil)
	s.Require().NoError(err)
	s.Equal(5500.0, *result.Cleaned.Records[1].UnitPrice)
	s.Equal(10.0, *records[1].UnitPrice)

	_, err = s.service.Evaluate(nil, nil)
	s.ErrorIs(err, data_quality.ErrEmptyInput)
}

func TestQualityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(QualityServiceTestSuite))
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(config.QualityConfig{PriceStrategy: config.PriceStrategyMidpoint})
	require.NoError(t, err)
	assert.Len(t, engine.Catalog().Categories(), 5)

	_, err = NewEngine(config.QualityConfig{PriceStrategy: config.PriceStrategyScript, PriceScript: "return min"})
	assert.NoError(t, err)

	_, err = NewEngine(config.QualityConfig{PriceStrategy: config.PriceStrategyScript, PriceScript: "this is not go"})
	assert.Error(t, err)

	_, err = NewEngine(config.QualityConfig{CatalogPath: "/nonexistent/catalog.yaml"})
	assert.Error(t, err)
}
