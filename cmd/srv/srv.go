package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cenkalti/backoff/v4"
	"github.com/questx-lab/lottery/config"
	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/domain"
	"github.com/questx-lab/lottery/internal/domain/betrule"
	"github.com/questx-lab/lottery/internal/domain/drawing"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/migration"
	"github.com/questx-lab/lottery/pkg/authenticator"
	"github.com/questx-lab/lottery/pkg/kafka"
	"github.com/questx-lab/lottery/pkg/logger"
	"github.com/questx-lab/lottery/pkg/pubsub"
	"github.com/questx-lab/lottery/pkg/router"
	"github.com/questx-lab/lottery/pkg/storage"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/questx-lab/lottery/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app  *cli.App
	ctx  context.Context
	stop context.CancelFunc

	userRepo        repository.UserRepository
	transactionRepo repository.TransactionRepository
	sessionRepo     repository.SessionRepository
	betRepo         repository.BetRepository
	eventRepo       repository.ScheduledEventRepository

	redisClient xredis.Client
	publisher   pubsub.Publisher
	storage     storage.Storage

	globalRoleVerifier *common.GlobalRoleVerifier
	accessTokenEngine  authenticator.TokenEngine[model.AccessToken]
	evaluator          *betrule.Evaluator

	eventQueue       domain.EventQueue
	ledger           domain.Ledger
	scheduler        domain.SessionScheduler
	drawEngine       domain.DrawEngine
	settlementEngine domain.SettlementEngine
	eventProcessor   domain.EventProcessor
	watchdog         domain.Watchdog

	sessionDomain domain.SessionDomain
	betDomain     domain.BetDomain
	walletDomain  domain.WalletDomain
	eventDomain   domain.EventDomain

	router *router.Router
}

// before loads the configs and the logger of every command.
func (s *srv) before(*cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s.ctx, s.stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewZapLogger(cfg.LogLevel, cfg.LogJSON))
	return nil
}

func (s *srv) shutdown() {
	if s.stop != nil {
		s.stop()
	}
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Error
	}
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database

	var db *gorm.DB
	err := backoff.RetryNotify(
		func() error {
			var err error
			db, err = gorm.Open(mysql.Open(cfg.ConnectionString()), &gorm.Config{
				Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
			})
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), s.ctx),
		func(err error, next time.Duration) {
			xcontext.Logger(s.ctx).Warnf("Cannot connect to database, retry in %s: %v", next, err)
		},
	)
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.transactionRepo = repository.NewTransactionRepository()
	s.sessionRepo = repository.NewSessionRepository()
	s.betRepo = repository.NewBetRepository()
	s.eventRepo = repository.NewScheduledEventRepository()
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadPublisher(clientID string) {
	var err error
	s.publisher, err = kafka.NewPublisher(clientID, []string{xcontext.Configs(s.ctx).Kafka.Addr})
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadStorage() {
	var err error
	s.storage, err = storage.NewS3Storage(xcontext.Configs(s.ctx).Storage)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadAccessTokenEngine() {
	cfg := xcontext.Configs(s.ctx).Auth
	s.accessTokenEngine = authenticator.NewTokenEngine[model.AccessToken](cfg.TokenSecret, cfg.AccessToken)
}

// loadEngines builds the event pipeline. It needs the repositories and the
// publisher.
func (s *srv) loadEngines() {
	cfg := xcontext.Configs(s.ctx)

	node, err := snowflake.NewNode(cfg.Lottery.NodeID)
	if err != nil {
		panic(err)
	}

	notifier := domain.NewSessionNotifier(s.publisher)
	s.evaluator = betrule.NewEvaluator(cfg.Catalog())
	s.eventQueue = domain.NewEventQueue(s.eventRepo)
	s.ledger = domain.NewLedger(s.userRepo, s.transactionRepo, node)
	s.scheduler = domain.NewSessionScheduler(s.sessionRepo, s.eventQueue, notifier)
	s.drawEngine = domain.NewDrawEngine(s.sessionRepo, s.eventQueue, drawing.NewGenerator(nil), notifier)
	s.settlementEngine = domain.NewSettlementEngine(
		s.sessionRepo, s.betRepo, s.ledger, s.eventQueue, s.evaluator, notifier)
	s.eventProcessor = domain.NewEventProcessor(s.eventQueue,
		domain.DefaultEventHandlers(s.scheduler, s.drawEngine, s.settlementEngine))
	s.watchdog = domain.NewWatchdog(s.sessionRepo, s.eventRepo, s.eventQueue, s.scheduler)
}

// loadDomains builds the api facades on top of the engines.
func (s *srv) loadDomains() {
	s.globalRoleVerifier = common.NewGlobalRoleVerifier(s.userRepo)
	s.sessionDomain = domain.NewSessionDomain(s.sessionRepo, s.scheduler, s.drawEngine,
		s.settlementEngine, s.globalRoleVerifier, s.redisClient)
	s.betDomain = domain.NewBetDomain(s.betRepo, s.sessionRepo, s.ledger, s.evaluator, s.globalRoleVerifier)
	s.walletDomain = domain.NewWalletDomain(s.userRepo, s.transactionRepo, s.ledger, s.globalRoleVerifier)
	s.eventDomain = domain.NewEventDomain(s.eventRepo, s.eventProcessor, s.watchdog, s.globalRoleVerifier)
}
