package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/questx-lab/lottery/config"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/testutil"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMigrationsTempDir(t *testing.T) {
	dir, err := MigrationsTempDir()
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	require.NoError(t, err)
	require.Len(t, files, 2)

	content, err := os.ReadFile(filepath.Join(dir, "000001_init.up.sql"))
	require.NoError(t, err)
	require.Contains(t, string(content), "idx_sessions_active_slot")
}

func TestAutoMigrate(t *testing.T) {
	ctx := testutil.MockContext()
	require.NoError(t, Migrators["auto"](ctx))
	require.True(t, xcontext.DB(ctx).Migrator().HasTable(&entity.ScheduledEvent{}))
}

func TestMigrate_MySQL(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TEST") == "" {
		t.Skip("set RUN_INTEGRATION_TEST to run against a MySQL container")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.Run("mysql", "8.0", []string{
		"MYSQL_ROOT_PASSWORD=secret",
		"MYSQL_DATABASE=lottery",
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, pool.Purge(resource)) }()

	cfg := testutil.MockConfigs()
	cfg.Database = config.DatabaseConfigs{
		Host:     "localhost",
		Port:     resource.GetPort("3306/tcp"),
		Database: "lottery",
		User:     "root",
		Password: "secret",
	}

	var db *gorm.DB
	require.NoError(t, pool.Retry(func() error {
		var err error
		db, err = gorm.Open(gormmysql.Open(cfg.Database.ConnectionString()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}))

	ctx := xcontext.WithDB(xcontext.WithConfigs(testutil.MockContext(), cfg), db)
	require.NoError(t, Migrate(ctx))

	// Running twice is a no-op.
	require.NoError(t, Migrate(ctx))

	for _, table := range []string{"users", "transactions", "sessions", "bets", "scheduled_events"} {
		require.True(t, db.Migrator().HasTable(table), fmt.Sprintf("missing table %s", table))
	}
}
