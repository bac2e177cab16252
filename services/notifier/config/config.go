package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the notifier service.
type Config struct {
	LogLevel     string
	KafkaBrokers string
	Channels     []string
	MaxRetries   int
	Timeout      time.Duration
	WebhookURL   string
	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPTo       []string
	SMTPUsername string
	SMTPPassword string
	MetricsAddr  string
	OTelEndpoint string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		Channels:     v.GetStringSlice("channels"),
		MaxRetries:   v.GetInt("max_retries"),
		Timeout:      v.GetDuration("delivery_timeout"),
		WebhookURL:   v.GetString("webhook_url"),
		SMTPHost:     v.GetString("smtp_host"),
		SMTPPort:     v.GetInt("smtp_port"),
		SMTPFrom:     v.GetString("smtp_from"),
		SMTPTo:       v.GetStringSlice("smtp_to"),
		SMTPUsername: v.GetString("smtp_username"),
		SMTPPassword: v.GetString("smtp_password"),
		MetricsAddr:  v.GetString("metrics_addr"),
		OTelEndpoint: v.GetString("otel_endpoint"),
	}
}
