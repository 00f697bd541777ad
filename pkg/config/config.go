package config

import (
	"log"
	"os"
	"time"

	"SwasthyaWatch/pkg/logger"
	"SwasthyaWatch/pkg/notification"
	"SwasthyaWatch/pkg/util"
)

// config/config.go
type Config struct {
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	Log       logger.LogConfig
	Mail      notification.MailConfig
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`

	CacheType string `env:"CACHE_TYPE"`
	RedisAddr string `env:"REDIS_ADDR"`

	// 扫描周期，秒
	EscalationSweepSec int64  `env:"ESCALATION_SWEEP_SEC"`
	DNDReleaseSweepSec int64  `env:"DND_RELEASE_SWEEP_SEC"`
	ArchiveSweepCron   string `env:"ARCHIVE_SWEEP_CRON"`

	SendTimeoutSec int64 `env:"SEND_TIMEOUT_SEC"`

	MonitorPrefix string `env:"MONITOR_PREFIX"`
	RateLimit     string `env:"RATE_LIMIT"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnv("MODE"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			Port:     util.GetIntEnv("MAIL_PORT"),
			From:     util.GetEnv("MAIL_FROM"),
		},
		CacheType:          util.GetEnvDefault("CACHE_TYPE", "local"),
		RedisAddr:          util.GetEnv("REDIS_ADDR"),
		EscalationSweepSec: util.GetIntEnv("ESCALATION_SWEEP_SEC"),
		DNDReleaseSweepSec: util.GetIntEnv("DND_RELEASE_SWEEP_SEC"),
		ArchiveSweepCron:   util.GetEnvDefault("ARCHIVE_SWEEP_CRON", "@every 10m"),
		SendTimeoutSec:     util.GetIntEnv("SEND_TIMEOUT_SEC"),
		MonitorPrefix:      util.GetEnvDefault("MONITOR_PREFIX", "/monitor"),
		RateLimit:          util.GetEnvDefault("RATE_LIMIT", "100-S"),
	}
	return nil
}

// EscalationSweepInterval 升级扫描周期，默认一分钟
func (c *Config) EscalationSweepInterval() time.Duration {
	if c.EscalationSweepSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.EscalationSweepSec) * time.Second
}

// DNDReleaseInterval 免打扰放行扫描周期，默认五分钟
func (c *Config) DNDReleaseInterval() time.Duration {
	if c.DNDReleaseSweepSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.DNDReleaseSweepSec) * time.Second
}

// SendTimeout 单次通道发送超时，默认十秒
func (c *Config) SendTimeout() time.Duration {
	if c.SendTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.SendTimeoutSec) * time.Second
}
