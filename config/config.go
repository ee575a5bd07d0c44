package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"uaf-auto-api"`
	Port                          int      `env:"PORT" env-default:"3005"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	APIKey                        string   `env:"API_KEY" env-default:""`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"60"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" env-default:"localhost:4318"`
	TracingInsecure bool   `env:"TRACING_INSECURE" env-default:"true"`

	// Sage 100 automation host
	SageServerPath        string        `env:"SAGE_SERVER_PATH" env-default:""`
	SageCompany           string        `env:"SAGE_COMPANY" env-default:"ABC"`
	SageUsername          string        `env:"SAGE_USERNAME" env-default:""`
	SagePassword          string        `env:"SAGE_PASSWORD" env-default:""`
	SageModule            string        `env:"SAGE_MODULE" env-default:"S/O"`
	SessionPoolSize       int           `env:"SAGE_SESSION_POOL_SIZE" env-default:"3"`
	SessionAcquireTimeout time.Duration `env:"SAGE_SESSION_ACQUIRE_TIMEOUT" env-default:"30s"`
	SessionWarmOnStartup  bool          `env:"SAGE_SESSION_WARM_ON_STARTUP" env-default:"true"`

	// Customer search / resolution
	CustomerScanLimit    int     `env:"CUSTOMER_SCAN_LIMIT" env-default:"500"`
	ShipToScanLimit      int     `env:"SHIPTO_SCAN_LIMIT" env-default:"1000"`
	ShipToCollectLimit   int     `env:"SHIPTO_COLLECT_LIMIT" env-default:"30"`
	ResolutionShortlist  int     `env:"RESOLUTION_SHORTLIST" env-default:"5"`
	ResolutionSearchSize int     `env:"RESOLUTION_SEARCH_SIZE" env-default:"20"`
	MinConfidenceDefault float64 `env:"MIN_CONFIDENCE_DEFAULT" env-default:"0.8"`

	// Redis (order queue)
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Order queue worker
	QueueEnabled       bool          `env:"QUEUE_ENABLED" env-default:"true"`
	QueueMaxRetries    int           `env:"QUEUE_MAX_RETRIES" env-default:"3"`
	QueuePollInterval  time.Duration `env:"QUEUE_POLL_INTERVAL" env-default:"2s"`
	QueueRetryBaseWait time.Duration `env:"QUEUE_RETRY_BASE_WAIT" env-default:"5s"`
	QueueJobTTL        time.Duration `env:"QUEUE_JOB_TTL" env-default:"168h"`
	QueueWorkerCount   int           `env:"QUEUE_WORKER_COUNT" env-default:"2"`
}
