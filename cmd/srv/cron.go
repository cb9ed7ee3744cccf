package main

import (
	"github.com/questx-lab/lottery/internal/domain/cron"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadPublisher("lottery-worker")
	s.loadRepos()
	s.loadEngines()

	cfg := xcontext.Configs(s.ctx).Lottery
	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewEnsureSessionsCronJob(s.watchdog))
	cronJobManager.Register(cron.NewProcessEventsCronJob(s.eventProcessor, cfg.PollInterval))
	cronJobManager.Register(cron.NewWatchdogCronJob(s.watchdog, cfg.WatchdogInterval))

	// Start returns after a termination signal once the running jobs finished.
	cronJobManager.Start(s.ctx)
	return nil
}
