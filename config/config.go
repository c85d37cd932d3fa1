package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/oculomed/glauco-api/internal/email"
	"github.com/oculomed/glauco-api/internal/push"
	"github.com/oculomed/glauco-api/internal/repository/postgres"
	"github.com/oculomed/glauco-api/internal/scheduler"
	"github.com/oculomed/glauco-api/internal/service/document"
	"github.com/oculomed/glauco-api/pkg/auth"
	"github.com/oculomed/glauco-api/pkg/messaging/redis"
)

type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" mapstructure:"max_header_bytes"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Name     string `yaml:"name" mapstructure:"name"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret        string        `yaml:"secret" mapstructure:"secret"`
	RefreshSecret string        `yaml:"refresh_secret" mapstructure:"refresh_secret"`
	Expiry        time.Duration `yaml:"expiry" mapstructure:"expiry"`
	RefreshExpiry time.Duration `yaml:"refresh_expiry" mapstructure:"refresh_expiry"`
}

type RedisConfig struct {
	URL          string        `yaml:"url" mapstructure:"url"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}

type PushConfig struct {
	VAPIDPublicKey  string        `yaml:"vapid_public_key" mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string        `yaml:"vapid_private_key" mapstructure:"vapid_private_key"`
	Subscriber      string        `yaml:"subscriber" mapstructure:"subscriber"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type EmailConfig struct {
	Host        string `yaml:"host" mapstructure:"host"`
	Port        int    `yaml:"port" mapstructure:"port"`
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	FromAddress string `yaml:"from_address" mapstructure:"from_address"`
	FromName    string `yaml:"from_name" mapstructure:"from_name"`
	ResetURL    string `yaml:"reset_url" mapstructure:"reset_url"`
}

type StorageConfig struct {
	CloudName string `yaml:"cloud_name" mapstructure:"cloud_name"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	APISecret string `yaml:"api_secret" mapstructure:"api_secret"`
	Folder    string `yaml:"folder" mapstructure:"folder"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type Config struct {
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
	Database  DatabaseConfig   `yaml:"database" mapstructure:"database"`
	JWT       JWTConfig        `yaml:"jwt" mapstructure:"jwt"`
	Redis     RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Push      PushConfig       `yaml:"push" mapstructure:"push"`
	Email     EmailConfig      `yaml:"email" mapstructure:"email"`
	Storage   StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Scheduler scheduler.Config `yaml:"scheduler" mapstructure:"scheduler"`
	RateLimit RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Security  SecurityConfig   `yaml:"security" mapstructure:"security"`
}

// Secrets are never committed to the YAML file; they arrive through the
// environment and override whatever the file says.
type secretOverrides struct {
	DBPassword       string `envconfig:"DB_PASSWORD"`
	JWTSecret        string `envconfig:"JWT_SECRET"`
	JWTRefreshSecret string `envconfig:"JWT_REFRESH_SECRET"`
	VAPIDPublicKey   string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey  string `envconfig:"VAPID_PRIVATE_KEY"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
	CloudinaryKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinarySecret string `envconfig:"CLOUDINARY_API_SECRET"`
	RedisURL         string `envconfig:"REDIS_URL"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets secretOverrides
	if err := envconfig.Process("", &secrets); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}
	config.applySecrets(&secrets)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applySecrets(s *secretOverrides) {
	if s.DBPassword != "" {
		c.Database.Password = s.DBPassword
	}
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.JWTRefreshSecret != "" {
		c.JWT.RefreshSecret = s.JWTRefreshSecret
	}
	if s.VAPIDPublicKey != "" {
		c.Push.VAPIDPublicKey = s.VAPIDPublicKey
	}
	if s.VAPIDPrivateKey != "" {
		c.Push.VAPIDPrivateKey = s.VAPIDPrivateKey
	}
	if s.SMTPPassword != "" {
		c.Email.Password = s.SMTPPassword
	}
	if s.CloudinaryKey != "" {
		c.Storage.APIKey = s.CloudinaryKey
	}
	if s.CloudinarySecret != "" {
		c.Storage.APISecret = s.CloudinarySecret
	}
	if s.RedisURL != "" {
		c.Redis.URL = s.RedisURL
	}
}

func (c *DatabaseConfig) ToDatabaseConfig() postgres.DatabaseConfig {
	return postgres.DatabaseConfig{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		SSLMode:  c.SSLMode,
	}
}

func (c *JWTConfig) ToJWTConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:        c.Secret,
		RefreshSecret: c.RefreshSecret,
		Expiry:        c.Expiry,
		RefreshExpiry: c.RefreshExpiry,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *PushConfig) ToGatewayConfig() push.Config {
	return push.Config{
		VAPIDPublicKey:  c.VAPIDPublicKey,
		VAPIDPrivateKey: c.VAPIDPrivateKey,
		Subscriber:      c.Subscriber,
		TTL:             c.TTL,
	}
}

func (c *EmailConfig) ToEmailConfig() email.Config {
	return email.Config{
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
		FromAddress: c.FromAddress,
		FromName:    c.FromName,
		ResetURL:    c.ResetURL,
	}
}

func (c *StorageConfig) ToStorageConfig() document.Config {
	return document.Config{
		CloudName: c.CloudName,
		APIKey:    c.APIKey,
		APISecret: c.APISecret,
		Folder:    c.Folder,
	}
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	return nil
}
