package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"GO_ENV"`
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Media storage: "local" keeps files under UploadDir, "r2" pushes them to the bucket
	StorageDriver  string `mapstructure:"STORAGE_DRIVER"`
	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	PublicMediaURL string `mapstructure:"PUBLIC_MEDIA_URL"`
	MaxUploadMB    int64  `mapstructure:"MAX_UPLOAD_MB"`

	// R2 / S3
	R2AccountID       string `mapstructure:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `mapstructure:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `mapstructure:"R2_BUCKET_NAME"`
	R2PublicURL       string `mapstructure:"R2_PUBLIC_URL"` // Custom domain

	// WhatsApp Business webhook
	WhatsAppVerifyToken  string        `mapstructure:"WHATSAPP_VERIFY_TOKEN"`
	WhatsAppToken        string        `mapstructure:"WHATSAPP_TOKEN"`
	WhatsAppAppSecret    string        `mapstructure:"WHATSAPP_APP_SECRET"`
	WhatsAppGraphURL     string        `mapstructure:"WHATSAPP_GRAPH_URL"`
	WhatsAppMediaTimeout time.Duration `mapstructure:"WHATSAPP_MEDIA_TIMEOUT"`
}

var AppConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("PUBLIC_MEDIA_URL", "")
	v.SetDefault("MAX_UPLOAD_MB", 50)
	v.SetDefault("R2_ACCOUNT_ID", "")
	v.SetDefault("R2_ACCESS_KEY_ID", "")
	v.SetDefault("R2_SECRET_ACCESS_KEY", "")
	v.SetDefault("R2_BUCKET_NAME", "")
	v.SetDefault("R2_PUBLIC_URL", "")
	v.SetDefault("WHATSAPP_VERIFY_TOKEN", "")
	v.SetDefault("WHATSAPP_TOKEN", "")
	v.SetDefault("WHATSAPP_APP_SECRET", "")
	v.SetDefault("WHATSAPP_GRAPH_URL", "https://graph.facebook.com/v19.0")
	v.SetDefault("WHATSAPP_MEDIA_TIMEOUT", "15s")
}

// Load reads the .env file (if any) and the environment into a Config.
// Every key has a default so AutomaticEnv can see it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig() {
	cfg, err := Load(".env")
	if err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	AppConfig = cfg
}

// MaxUploadBytes is the attachment size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 50 << 20
	}
	return c.MaxUploadMB << 20
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
