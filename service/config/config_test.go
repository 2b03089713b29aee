package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, RunModeServe, cfg.RunMode)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, SourceTypeDB, cfg.Source.Type)
	assert.Equal(t, DefaultSourceTable, cfg.Source.Table)
	assert.Equal(t, DefaultCleanedTable, cfg.Sink.CleanedTable)
	assert.Equal(t, PriceStrategyRandom, cfg.Quality.PriceStrategy)
	assert.Equal(t, EventTypeNone, cfg.Event.Type)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, DefaultLockTTL, cfg.Schedule.LockTTL)
	assert.Empty(t, cfg.Schedule.SweepCron)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, DefaultRateLimitClient, cfg.RateLimit.ClientMax)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("RUN_MODE", "ONCE")
	t.Setenv("LISTEN_PORT", "8080")
	t.Setenv("SOURCE_TYPE", "csv")
	t.Setenv("SOURCE_CSV_PATH", "/data/sales.csv")
	t.Setenv("SOURCE_CSV_ENCODING", "GBK")
	t.Setenv("QUALITY_PRICE_STRATEGY", "midpoint")
	t.Setenv("QUALITY_RANDOM_SEED", "42")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("EVENT_TYPE", "kafka")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("LOCK_TTL", "90s")
	t.Setenv("RUN_RETENTION_DAYS", "7")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, RunModeOnce, cfg.RunMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gbk", cfg.Source.CSVEncoding)
	assert.Equal(t, int64(42), cfg.Quality.RandomSeed)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Event.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.Schedule.LockTTL)
	assert.Equal(t, 7, cfg.Schedule.RunRetentionDays)
}

func TestFromEnvValidation(t *testing.T) {
	testCases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"未知运行模式", map[string]string{"RUN_MODE": "daemon"}, "运行模式"},
		{"CSV缺少路径", map[string]string{"SOURCE_TYPE": "csv"}, "SOURCE_CSV_PATH"},
		{"脚本策略缺少脚本", map[string]string{"QUALITY_PRICE_STRATEGY": "script"}, "QUALITY_PRICE_SCRIPT"},
		{"MQTT缺少地址", map[string]string{"EVENT_TYPE": "mqtt"}, "MQTT_BROKER"},
		{"清洗表与原始表相同", map[string]string{"SINK_CLEANED_TABLE": "sales_orders"}, "不能与原始表相同"},
		{"不支持的驱动", map[string]string{"DB_DRIVER": "mysql"}, "数据库驱动"},
		{"限流未开启Redis", map[string]string{"RATE_LIMIT_ENABLED": "true"}, "REDIS_ENABLED"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SINK_REPORT_DIR=/tmp/quality-reports\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SINK_REPORT_DIR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/quality-reports", cfg.Sink.ReportDir)
}

func TestDatabaseDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "sales", SSLMode: "disable", Schema: "public"}
	assert.Contains(t, pg.DSN(), "host=db")
	assert.Contains(t, pg.DSN(), "dbname=sales")

	pg.URL = "postgres://u:p@db/sales"
	assert.Equal(t, "postgres://u:p@db/sales", pg.DSN())

	lite := DatabaseConfig{Driver: "sqlite", Name: "file::memory:"}
	assert.Equal(t, "file::memory:", lite.DSN())
}
