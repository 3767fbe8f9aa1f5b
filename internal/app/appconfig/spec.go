package appconfig

import (
	"time"

	"github.com/pulsepoll/backend/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address the server would listen on for serving service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9030"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// DevMode to indicate development mode. When true, the program would spin up utilities for debugging and
	// provide a more contextual message when encountered a panic.
	DevMode bool `split_words:"true"`

	// infrastructure components connection instructions

	// PostgresDSN is the data source name for the PostgreSQL database. See
	// https://bun.uptrace.dev/postgres/#pgdriver for more details on how to construct a PostgreSQL DSN.
	PostgresDSN string `required:"true" split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// NatsURL is the URL of the NATS server. See https://pkg.go.dev/github.com/nats-io/nats.go#Connect
	// for more information on how to construct a NATS URL.
	NatsURL string `required:"true" split_words:"true" default:"nats://127.0.0.1:4222"`

	// RedisURL is the URL of the Redis server, and by default uses redis db 1, to avoid potential collision
	// with other locally running services. See https://pkg.go.dev/github.com/redis/go-redis/v9#ParseURL
	// for more information on how to construct a Redis URL.
	RedisURL string `required:"true" split_words:"true" default:"redis://127.0.0.1:6379/1"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`

	// WorkerEnabled is a flag to indicate whether to enable the batch consumer workers.
	WorkerEnabled bool `split_words:"true" default:"true"`

	// WorkerCount is the number of batch consumer workers to spawn. Zero means one worker per CPU.
	WorkerCount int `split_words:"true"`

	// WorkerAckWait describes how long a delivered batch may stay unacknowledged before redelivery.
	WorkerAckWait time.Duration `split_words:"true" default:"10s"`

	// WorkerTimeout describes the timeout for a single batch to be consumed.
	WorkerTimeout time.Duration `split_words:"true" default:"10s"`

	// MaxBasisSplits caps the Cartesian product of grouping question response groups
	// a single session may declare. Session creation fails beyond this ceiling.
	MaxBasisSplits int `split_words:"true" default:"4096"`

	// RehydrateBatchSize is the number of respondents replayed per engine update
	// during session rehydration.
	RehydrateBatchSize int `split_words:"true" default:"500"`

	// SnapshotInterval is the interval in-between periodic statistics snapshot
	// persistence for loaded sessions. Zero disables the periodic snapshots;
	// sessions are still snapshotted on close.
	SnapshotInterval time.Duration `split_words:"true" default:"5m"`

	// LiveHeartbeatInterval is the interval in-between SSE keep-alive comments.
	LiveHeartbeatInterval time.Duration `split_words:"true" default:"15s"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
