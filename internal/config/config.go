package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/TymekV/simple-chat/pkg/log"
)

type Config struct {
	Server  ServerConfig
	Socket  SocketConfig
	Client  ClientConfig
	Storage StorageConfig
	Log     log.Config
}

type ServerConfig struct {
	URL string
}

type SocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type ClientConfig struct {
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	TypingExpiry      time.Duration `mapstructure:"typing_expiry"`
	GroupWindow       time.Duration `mapstructure:"group_window"`
}

type StorageConfig struct {
	Path string
}

// Load reads configuration from ./config/config.yaml (if present) and
// environment variables, falling back to defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetDefault("server.url", "ws://localhost:3002/socket")
	v.SetDefault("socket.ping_interval", "30s")
	v.SetDefault("socket.pong_wait", "60s")
	v.SetDefault("socket.write_wait", "10s")
	v.SetDefault("socket.max_message_size", 65536)
	v.SetDefault("client.reconnect_attempts", 5)
	v.SetDefault("client.reconnect_delay", "1s")
	v.SetDefault("client.typing_expiry", "3s")
	v.SetDefault("client.group_window", "5m")
	v.SetDefault("storage.path", "simple-chat.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.BindEnv("server.url", "CHAT_SERVER_URL")
	v.BindEnv("storage.path", "CHAT_STORAGE_PATH")
	v.BindEnv("log.level", "CHAT_LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Socket.PingInterval = parseDuration(v, "socket.ping_interval", 30*time.Second)
	cfg.Socket.PongWait = parseDuration(v, "socket.pong_wait", 60*time.Second)
	cfg.Socket.WriteWait = parseDuration(v, "socket.write_wait", 10*time.Second)
	cfg.Client.ReconnectDelay = parseDuration(v, "client.reconnect_delay", time.Second)
	cfg.Client.TypingExpiry = parseDuration(v, "client.typing_expiry", 3*time.Second)
	cfg.Client.GroupWindow = parseDuration(v, "client.group_window", 5*time.Minute)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}
