package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	DBMaxConns         int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMigrate          bool   `envconfig:"DB_MIGRATE" default:"true"`

	// JWTSecret may be left empty when JWTSecretResource points at a Secret Manager version.
	JWTSecret         string        `envconfig:"JWT_SECRET"`
	JWTSecretResource string        `envconfig:"JWT_SECRET_RESOURCE"`
	JWTTTL            time.Duration `envconfig:"JWT_TTL" default:"1h"`
	CookieSecure      bool          `envconfig:"COOKIE_SECURE" default:"false"`

	// Object storage: s3, gcs or memory
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"s3"`
	S3URL         string `envconfig:"S3_URL"`
	S3Bucket      string `envconfig:"S3_BUCKET"`
	S3Region      string `envconfig:"S3_REGION" default:"ap-south-1"`
	S3AccessKey   string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey   string `envconfig:"S3_SECRET_KEY"`
	S3PublicURL   string `envconfig:"S3_PUBLIC_URL"`
	GCSBucket     string `envconfig:"GCS_BUCKET"`

	// Google Cloud
	GCPProjectID            string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile      string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	PubSubEmulatorHost      string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubPaymentsTopic     string `envconfig:"PUBSUB_PAYMENTS_TOPIC" default:"payments"`
	PubSubNotificationTopic string `envconfig:"PUBSUB_NOTIFICATIONS_TOPIC" default:"notifications"`

	// Redis backs the auth rate limiter; empty disables it.
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB          int           `envconfig:"REDIS_DB" default:"0"`
	AuthRateLimit    int           `envconfig:"AUTH_RATE_LIMIT" default:"10"`
	AuthRateWindow   time.Duration `envconfig:"AUTH_RATE_WINDOW" default:"15m"`
	TrustProxy       bool          `envconfig:"TRUST_PROXY" default:"false"`
	MaxUploadBytes   int64         `envconfig:"MAX_UPLOAD_BYTES" default:"209715200"`
	CORSAllowOrigins []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs with local defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
