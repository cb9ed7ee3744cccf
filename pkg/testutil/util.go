package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/lottery/config"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/logger"
	"github.com/questx-lab/lottery/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func MockConfigs() config.Configs {
	return config.Configs{
		Env: "test",
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
		},
		Redis: config.RedisConfigs{
			ResultTTL: time.Hour,
		},
		Storage: config.S3Configs{
			Bucket: "lottery-results",
		},
		Lottery: config.LotteryConfigs{
			Consumer:            "test-worker",
			EventBatchLimit:     100,
			LeaseTTL:            time.Minute,
			MaxRetries:          0,
			RetryBackoff:        time.Millisecond,
			RetryMaxDelay:       time.Millisecond,
			MaxAttempts:         3,
			SettlementBatchSize: 2,
			StuckThreshold:      5 * time.Minute,
			Concurrency:         1,
			NodeID:              1,
		},
	}.WithCatalog(config.DefaultCatalog())
}

// MockContext returns a context carrying test configs, a silent logger and a
// fresh in-memory database with every table migrated.
func MockContext() context.Context {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, MockConfigs())
	ctx = xcontext.WithLogger(ctx, logger.NewNopLogger())
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}

// WithFixedClock makes xcontext.Now(ctx) return t.
func WithFixedClock(ctx context.Context, t time.Time) context.Context {
	return xcontext.WithClock(ctx, func() time.Time { return t })
}
