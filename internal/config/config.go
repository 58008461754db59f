package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting read from the environment (and an optional
// config.yaml). Pricing and payment settings live in the database instead.
type Config struct {
	AppEnv  string `mapstructure:"app_env"`
	Port    string `mapstructure:"port"`
	BaseURL string `mapstructure:"public_base_url"`

	SecretKey   string `mapstructure:"secret_key"`
	AdminAPIKey string `mapstructure:"admin_api_key"`
	UploadMaxMB int64  `mapstructure:"upload_max_mb"`

	Database struct {
		// Driver is "postgres" or "memory".
		Driver   string `mapstructure:"driver"`
		DSN      string `mapstructure:"dsn"`
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`

	Xendit struct {
		SecretKey     string `mapstructure:"secret_key"`
		CallbackToken string `mapstructure:"callback_token"`
		BaseURL       string `mapstructure:"base_url"`
	} `mapstructure:"xendit"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"pass"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`
	AdminNotifyEmail string `mapstructure:"admin_notify_email"`

	WhatsApp struct {
		APIURL  string `mapstructure:"api_url"`
		Token   string `mapstructure:"token"`
		AdminTo string `mapstructure:"admin_to"`
	} `mapstructure:"whatsapp"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`

	// RateLimit values are requests per minute per client IP; 0 disables.
	RateLimit struct {
		Global    int `mapstructure:"global"`
		Calculate int `mapstructure:"calculate"`
		Orders    int `mapstructure:"orders"`
	} `mapstructure:"rate_limit"`
}

// Load reads .env (if present), config.yaml (if present) and the process
// environment, in increasing priority. Nested keys map to env vars with
// underscores: db.host is DB_HOST, xendit.secret_key is XENDIT_SECRET_KEY.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("secret_key", "dev")
	v.SetDefault("admin_api_key", "")
	v.SetDefault("upload_max_mb", 20)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "floodbar")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("xendit.secret_key", "")
	v.SetDefault("xendit.callback_token", "")
	v.SetDefault("xendit.base_url", "https://api.xendit.co")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.pass", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("admin_notify_email", "")
	v.SetDefault("whatsapp.api_url", "https://api.fonnte.com/send")
	v.SetDefault("whatsapp.token", "")
	v.SetDefault("whatsapp.admin_to", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "floodbar-orders")
	v.SetDefault("rate_limit.global", 120)
	v.SetDefault("rate_limit.calculate", 60)
	v.SetDefault("rate_limit.orders", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("baca config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// KAFKA_BROKERS=a:9092,b:9092 arrives as one comma separated string.
	cfg.Kafka.Brokers = splitList(strings.Join(cfg.Kafka.Brokers, ","))
	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DSN returns db.dsn when set, else builds a keyword DSN from the parts.
func (c *Config) DSN() string {
	if strings.TrimSpace(c.Database.DSN) != "" {
		return c.Database.DSN
	}
	d := c.Database
	return "host=" + d.Host + " user=" + d.User + " password=" + d.Password + " dbname=" + d.Name + " port=" + d.Port + " sslmode=" + d.SSLMode
}

func (c *Config) InMemory() bool {
	return strings.EqualFold(c.Database.Driver, "memory")
}

func (c *Config) IsProduction() bool {
	e := strings.ToLower(c.AppEnv)
	return e == "production" || e == "prod"
}
