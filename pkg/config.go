package pkg

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR,default=:8080"`
	MetricsAddr string `env:"METRICS_ADDR,default=:8081"`

	MaxClients       int           `env:"MAX_CLIENTS,default=64"`
	HeartbeatTimeout time.Duration `env:"HEARTBEAT_TIMEOUT,default=30s"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	SendBufferSize   int           `env:"SEND_BUFFER_SIZE,default=256"`
	MaxFrameSize     int64         `env:"MAX_FRAME_SIZE,default=4096"`

	ChatHistoryLimit int `env:"CHAT_HISTORY_LIMIT,default=500"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.MaxClients < 1 {
		return nil, fmt.Errorf("MAX_CLIENTS must be at least 1, got %d", cfg.MaxClients)
	}
	if cfg.HeartbeatTimeout <= 0 {
		return nil, fmt.Errorf("HEARTBEAT_TIMEOUT must be positive, got %s", cfg.HeartbeatTimeout)
	}

	return &cfg, nil
}

// PingPeriod is the interval between server-side protocol pings. It must
// fire before the peer's read deadline expires.
func (c *Config) PingPeriod() time.Duration {
	return (c.HeartbeatTimeout * 9) / 10
}

func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warn("Unknown log level, defaulting to info: ", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
