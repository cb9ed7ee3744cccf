package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/lottery/internal/middleware"
	"github.com/questx-lab/lottery/pkg/prometheus"
	"github.com/questx-lab/lottery/pkg/router"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher("lottery-api")
	s.loadAccessTokenEngine()
	s.loadRepos()
	s.loadEngines()
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx)
	httpSrv := &http.Server{
		Addr:    cfg.ApiServer.Address(),
		Handler: s.router.Handler(cfg.ApiServer),
	}

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot shutdown api server: %v", err)
		}
	}()

	xcontext.Logger(s.ctx).Infof("Starting api server on %s", cfg.ApiServer.Address())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Api server stopped")
	return nil
}

func (s *srv) loadRouter() {
	cfg := xcontext.Configs(s.ctx)
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = router.New(s.ctx)
	s.router.Before(middleware.WithStartTime())
	s.router.AddCloser(middleware.Logger(cfg.Env))
	s.router.AddCloser(middleware.Prometheus())
	s.router.Handle("/metrics", prometheus.NewHandler())

	// Public results.
	publicRouter := s.router.Branch()
	{
		router.GET(publicRouter, "/getSession", s.sessionDomain.Get)
		router.GET(publicRouter, "/getActiveSession", s.sessionDomain.GetActive)
		router.GET(publicRouter, "/getSessions", s.sessionDomain.GetList)
		router.GET(publicRouter, "/getLatestResult", s.sessionDomain.GetLatestResult)
		router.GET(publicRouter, "/getRecentResults", s.sessionDomain.GetRecentResults)
	}

	// These following APIs need an access token.
	userRouter := s.router.Branch()
	userRouter.Before(middleware.NewAuthVerifier().WithAccessToken(s.accessTokenEngine).Middleware())
	{
		router.POST(userRouter, "/placeBet", s.betDomain.Place)
		router.GET(userRouter, "/getSessionBets", s.betDomain.GetSessionBets)
		router.GET(userRouter, "/getMyBets", s.betDomain.GetMyBets)
		router.GET(userRouter, "/getBalance", s.walletDomain.GetBalance)
		router.GET(userRouter, "/getTransactions", s.walletDomain.GetTransactions)
	}

	// External schedulers trigger event processing with the trigger key.
	triggerRouter := s.router.Branch()
	triggerRouter.Before(middleware.NewAuthVerifier().
		WithAccessToken(s.accessTokenEngine).
		WithTriggerKey(cfg.Auth.TriggerKeyHash).
		Middleware())
	{
		router.POST(triggerRouter, "/processEvents", s.eventDomain.ProcessEvents)
	}

	adminRouter := s.router.Branch()
	adminRouter.Before(middleware.NewAuthVerifier().WithAccessToken(s.accessTokenEngine).Middleware())
	adminRouter.Before(middleware.NewOnlyAdmin(s.userRepo).Middleware())
	{
		router.POST(adminRouter, "/admin/ensureSession", s.sessionDomain.Ensure)
		router.POST(adminRouter, "/admin/draw", s.sessionDomain.Draw)
		router.POST(adminRouter, "/admin/resettle", s.sessionDomain.Settle)
		router.POST(adminRouter, "/admin/recover", s.eventDomain.Recover)
		router.POST(adminRouter, "/admin/retryEvent", s.eventDomain.Retry)
		router.GET(adminRouter, "/admin/getEvents", s.eventDomain.GetEvents)
		router.POST(adminRouter, "/admin/deposit", s.walletDomain.Deposit)
		router.POST(adminRouter, "/admin/withdraw", s.walletDomain.Withdraw)
		router.GET(adminRouter, "/admin/verifyBalance", s.walletDomain.VerifyBalance)
	}
}
