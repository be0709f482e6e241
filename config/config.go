package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppName  string `mapstructure:"APP_NAME"`
	HTTPPort int    `mapstructure:"HTTP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// MySQL configuration
	MySQLDSN string `mapstructure:"MYSQL_DSN"`

	// Redis configuration
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPoolSize int    `mapstructure:"REDIS_POOL_SIZE"`

	// Purchase lock tuning. Both are changeable per deployment without a
	// code change.
	LockTTLMillis  int `mapstructure:"LOCK_TTL_MS"`
	LockWaitMillis int `mapstructure:"LOCK_WAIT_MS"`

	// Shared secret required to register administrator accounts.
	AdminSecret string `mapstructure:"ADMIN_SECRET"`
}

func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMillis) * time.Millisecond
}

func (c Config) LockWait() time.Duration {
	return time.Duration(c.LockWaitMillis) * time.Millisecond
}

func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "order-management")
	viper.SetDefault("HTTP_PORT", 8080)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/orders?parseTime=true")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	viper.SetDefault("LOCK_TTL_MS", 30000)
	viper.SetDefault("LOCK_WAIT_MS", 10000)

	viper.SetDefault("ADMIN_SECRET", "")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Info().Msg("No config file found, using environment variables and defaults.")
			err = nil
		} else {
			log.Error().Err(err).Msg("Error reading config file")
			return
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	err = viper.Unmarshal(&config)
	return
}
