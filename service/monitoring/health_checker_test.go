package monitoring

import (
	"context"
	"errors"
	"testing"

	"sales-quality-service/service/datasource"
	"sales-quality-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	n   int64
	err error
}

func (f fakeCounter) CountCleaned(context.Context) (int64, error) {
	return f.n, f.err
}

func TestHealthChecker_Healthy(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	testutil.NewTestDataFactory(tdb.DB).CreateSalesRecords(3)

	source := datasource.NewGormSource(tdb.DB, testutil.SourceTable)
	status := NewHealthChecker(tdb.DB, source, fakeCounter{n: 3}).Check(context.Background())

	assert.Equal(t, StatusHealthy, status.Overall)
	require.Contains(t, status.Components, "source")
	assert.Equal(t, int64(3), *status.Components["source"].RecordCount)
	assert.Equal(t, int64(3), *status.Components["cleaned"].RecordCount)
	assert.Equal(t, StatusHealthy, status.Components["database"].Status)
}

func TestHealthChecker_EmptySourceIsWarning(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	source := datasource.NewGormSource(tdb.DB, testutil.SourceTable)
	status := NewHealthChecker(tdb.DB, source, nil).Check(context.Background())

	assert.Equal(t, StatusWarning, status.Overall)
	assert.NotContains(t, status.Components, "cleaned")
}

func TestHealthChecker_Critical(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	missing := datasource.NewGormSource(tdb.DB, "no_such_table")
	status := NewHealthChecker(tdb.DB, missing, nil).Check(context.Background())
	assert.Equal(t, StatusCritical, status.Overall)
	assert.Contains(t, status.Components["source"].ErrorMessage, "no_such_table")

	status = NewHealthChecker(nil, nil, fakeCounter{err: errors.New("boom")}).Check(context.Background())
	assert.Equal(t, StatusCritical, status.Overall)
	assert.Equal(t, "boom", status.Components["cleaned"].ErrorMessage)
}
