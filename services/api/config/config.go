package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the api service.
type Config struct {
	LogLevel    string
	HTTPPort    string
	MetricsAddr string

	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string
	OTelEndpoint string

	SweepSchedule string
	SweepOnStart  bool

	DepartmentName   string
	CountPerExecutor bool

	RateLimit       int
	RateLimitWindow time.Duration
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:    v.GetString("log_level"),
		HTTPPort:    v.GetString("http_port"),
		MetricsAddr: v.GetString("metrics_addr"),

		PostgresDSN:  v.GetString("postgres_dsn"),
		RedisAddr:    v.GetString("redis_addr"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		OTelEndpoint: v.GetString("otel_endpoint"),

		SweepSchedule: v.GetString("sweep_schedule"),
		SweepOnStart:  v.GetBool("sweep_on_start"),

		DepartmentName:   v.GetString("department_name"),
		CountPerExecutor: v.GetBool("score_count_per_executor"),

		RateLimit:       v.GetInt("rate_limit"),
		RateLimitWindow: v.GetDuration("rate_limit_window"),
	}
}
