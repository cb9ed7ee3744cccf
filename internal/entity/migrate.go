package entity

import (
	"context"

	"github.com/questx-lab/lottery/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Transaction{},
		&Session{},
		&Bet{},
		&ScheduledEvent{},
	)
}
