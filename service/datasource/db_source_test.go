package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-quality-service/service/config"
	"sales-quality-service/service/models"
	"sales-quality-service/testutil"
)

func TestGormSourceLoad(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)

	factory.CreateSalesRecord(testutil.WithOrderID("A1"))
	factory.CreateSalesRecord(testutil.WithOrderID("A2"), testutil.WithPrice(50000))
	third := testutil.NewSalesRecord(testutil.WithOrderID("A3"))
	third.Region = nil
	require.NoError(t, tdb.DB.Table(testutil.SourceTable).Create(third).Error)

	source := NewGormSource(tdb.DB, testutil.SourceTable)
	ds, err := source.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SalesColumns, ds.Columns)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "A1", *ds.Records[0].OrderID)
	assert.Equal(t, 50000.0, *ds.Records[1].UnitPrice)
	assert.Nil(t, ds.Records[2].Region)
	assert.Equal(t, 2024, ds.Records[0].OrderDate.Year())
	assert.Equal(t, "table:sales_orders", source.Describe())
	assert.Equal(t, SourceTypeDB, source.GetType())
}

func TestGormSourcePartialSchema(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	require.NoError(t, tdb.DB.Exec(`CREATE TABLE partial_orders (order_id TEXT, category TEXT, unit_price REAL, note TEXT)`).Error)
	require.NoError(t, tdb.DB.Exec(`INSERT INTO partial_orders VALUES ('P1', '耳机', 299, 'x'), ('P2', '耳机', 5, NULL)`).Error)

	ds, err := NewGormSource(tdb.DB, "partial_orders").Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{models.ColumnOrderID, models.ColumnCategory, models.ColumnUnitPrice}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 5.0, *ds.Records[1].UnitPrice)
	assert.Nil(t, ds.Records[0].Quantity)
}

func TestGormSourceMissingTable(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	source := NewGormSource(tdb.DB, "no_such_table")
	_, err := source.Load(context.Background())
	assert.Error(t, err)

	status, err := source.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "offline", status.Status)
}

func TestGormSourceHealthCheck(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	testutil.NewTestDataFactory(tdb.DB).CreateSalesRecords(4)

	status, err := NewGormSource(tdb.DB, testutil.SourceTable).HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "online", status.Status)
	assert.Equal(t, int64(4), status.RecordCount)
}

func TestNewRecordSource(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	s, err := NewRecordSource(config.SourceConfig{Type: SourceTypeDB, Table: "sales_orders"}, tdb.DB)
	require.NoError(t, err)
	assert.IsType(t, &GormSource{}, s)

	s, err = NewRecordSource(config.SourceConfig{Type: SourceTypeCSV, CSVPath: "a.csv"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, s)

	_, err = NewRecordSource(config.SourceConfig{Type: SourceTypeDB}, nil)
	assert.Error(t, err)

	_, err = NewRecordSource(config.SourceConfig{Type: "ftp"}, nil)
	assert.Error(t, err)
}
