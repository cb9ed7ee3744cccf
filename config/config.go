package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

type Configs struct {
	Env      string `env:"ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"true"`

	Database  DatabaseConfigs `envPrefix:"DB_"`
	ApiServer ServerConfigs   `envPrefix:"API_"`
	Auth      AuthConfigs     `envPrefix:"AUTH_"`
	Redis     RedisConfigs    `envPrefix:"REDIS_"`
	Kafka     KafkaConfigs    `envPrefix:"KAFKA_"`
	Storage   S3Configs       `envPrefix:"STORAGE_"`
	Lottery   LotteryConfigs  `envPrefix:"LOTTERY_"`

	catalog Catalog
}

// Catalog returns the game catalog, falling back to DefaultCatalog if none was
// attached.
func (c Configs) Catalog() Catalog {
	if len(c.catalog.GameTypes) == 0 {
		return DefaultCatalog()
	}

	return c.catalog
}

func (c Configs) WithCatalog(catalog Catalog) Configs {
	c.catalog = catalog
	return c
}

type DatabaseConfigs struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"3306"`
	Database string `env:"DATABASE" envDefault:"lottery"`
	User     string `env:"USER" envDefault:"mysql"`
	Password string `env:"PASSWORD" envDefault:"mysql"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"error"`
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host           string   `env:"HOST" envDefault:"localhost"`
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*"`
}

func (s ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type AuthConfigs struct {
	TokenSecret string       `env:"TOKEN_SECRET"`
	AccessToken TokenConfigs `envPrefix:"ACCESS_TOKEN_"`

	// TriggerKeyHash is the bcrypt hash of the key which external schedulers
	// present to trigger event processing.
	TriggerKeyHash string `env:"TRIGGER_KEY_HASH"`
}

type TokenConfigs struct {
	Name       string        `env:"NAME" envDefault:"access_token"`
	Expiration time.Duration `env:"EXPIRATION" envDefault:"24h"`
}

type RedisConfigs struct {
	Addr      string        `env:"ADDR" envDefault:"localhost:6379"`
	ResultTTL time.Duration `env:"RESULT_TTL" envDefault:"24h"`
}

type KafkaConfigs struct {
	Addr          string `env:"ADDR" envDefault:"localhost:9092"`
	ConsumerGroup string `env:"CONSUMER_GROUP" envDefault:"lottery-results"`
}

type S3Configs struct {
	Region         string `env:"REGION" envDefault:"auto"`
	Endpoint       string `env:"ENDPOINT"`
	PublicEndpoint string `env:"PUBLIC_ENDPOINT"`
	AccessKey      string `env:"ACCESS_KEY"`
	SecretKey      string `env:"SECRET_KEY"`
	SSLDisabled    bool   `env:"SSL_DISABLED"`
	Bucket         string `env:"BUCKET" envDefault:"lottery-results"`
}

type LotteryConfigs struct {
	CatalogFile string `env:"CATALOG_FILE"`
	Timezone    string `env:"TIMEZONE" envDefault:"Asia/Ho_Chi_Minh"`
	NodeID      int64  `env:"NODE_ID" envDefault:"1"`

	// Consumer identifies this worker as the lease owner of claimed events.
	// It defaults to the hostname followed by a random suffix.
	Consumer        string        `env:"CONSUMER"`
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	EventBatchLimit int           `env:"EVENT_BATCH_LIMIT" envDefault:"100"`
	LeaseTTL        time.Duration `env:"LEASE_TTL" envDefault:"2m"`

	MaxRetries       uint64        `env:"MAX_RETRIES" envDefault:"3"`
	RetryBackoff     time.Duration `env:"RETRY_BACKOFF" envDefault:"200ms"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY" envDefault:"5s"`
	RequeueOnFailure bool          `env:"REQUEUE_ON_FAILURE" envDefault:"false"`
	MaxAttempts      int           `env:"MAX_ATTEMPTS" envDefault:"5"`

	SettlementBatchSize int           `env:"SETTLEMENT_BATCH_SIZE" envDefault:"500"`
	WatchdogInterval    time.Duration `env:"WATCHDOG_INTERVAL" envDefault:"1m"`
	StuckThreshold      time.Duration `env:"STUCK_THRESHOLD" envDefault:"5m"`
	Concurrency         int           `env:"CONCURRENCY" envDefault:"3"`
}

// Load reads Configs from the environment and attaches the game catalog.
func Load() (Configs, error) {
	var cfg Configs
	if err := env.Parse(&cfg); err != nil {
		return Configs{}, err
	}

	catalog := DefaultCatalog()
	if cfg.Lottery.CatalogFile != "" {
		var err error
		catalog, err = LoadCatalog(cfg.Lottery.CatalogFile)
		if err != nil {
			return Configs{}, err
		}
	}

	if cfg.Lottery.Consumer == "" {
		cfg.Lottery.Consumer = defaultConsumer()
	}

	return cfg.WithCatalog(catalog), nil
}

func defaultConsumer() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "lottery-worker"
	}

	return fmt.Sprintf("%s-%s", host, strings.SplitN(uuid.NewString(), "-", 2)[0])
}
