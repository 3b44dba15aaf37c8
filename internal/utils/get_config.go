package utils

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Application
	AppPort     string `yaml:"APP_PORT"`
	AppTimezone string `yaml:"APP_TIMEZONE"`
	CORSOrigins string `yaml:"CORS_ORIGINS"`
	LogLevel    string `yaml:"LOG_LEVEL"`
	LogFile     string `yaml:"LOG_FILE"`

	// Database configuration
	DBDriver   string `yaml:"DB_DRIVER"`
	DBPath     string `yaml:"DB_PATH"`
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`
	NotifyEmail      string `yaml:"NOTIFY_EMAIL"`

	// Notification scheduler
	NotifyInterval    string `yaml:"NOTIFY_INTERVAL"`
	NotifyPassTimeout string `yaml:"NOTIFY_PASS_TIMEOUT"`

	// AWS S3 configuration
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// Receipt recognition
	AnthropicAPIKey string `yaml:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `yaml:"ANTHROPIC_MODEL"`
	OCRProxyURL     string `yaml:"OCR_PROXY_URL"`
	ScanSessionTTL  string `yaml:"SCAN_SESSION_TTL"`
}

var defaults = map[string]string{
	"APP_PORT":            "3001",
	"APP_TIMEZONE":        "Asia/Tokyo",
	"CORS_ORIGINS":        "*",
	"LOG_LEVEL":           "info",
	"LOG_FILE":            "./logs/app.log",
	"DB_DRIVER":           "sqlite",
	"DB_PATH":             "./data/expiry-tracker.db",
	"SMTP_PORT":           "587",
	"SMTP_SENDER_NAME":    "もったいないアラーム",
	"NOTIFY_INTERVAL":     "1h",
	"NOTIFY_PASS_TIMEOUT": "5m",
	"ANTHROPIC_MODEL":     "claude-sonnet-4-5-20250929",
	"SCAN_SESSION_TTL":    "2h",
}

var config Config

func LoadConfig() {
	LoadConfigFile("config.yaml")
}

// LoadConfigFile reads path into the package config. A missing file is not
// fatal; environment variables and defaults still apply.
func LoadConfigFile(path string) {
	config = Config{}

	file, err := os.ReadFile(path)
	if err != nil {
		log.Warnw("config file not loaded, using environment", "path", path, "error", err)
		return
	}

	if err := yaml.Unmarshal(file, &config); err != nil {
		log.Errorw("error parsing config file", "path", path, "error", err)
		return
	}
}

// GetConfig resolves key from the environment, then config.yaml, then the
// built-in default.
func GetConfig(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := fromFile(key); v != "" {
		return v
	}
	return defaults[key]
}

// GetDuration parses a duration-valued key, falling back to def.
func GetDuration(key string, def time.Duration) time.Duration {
	raw := GetConfig(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warnw("invalid duration in config", "key", key, "value", raw)
		return def
	}
	return d
}

// GetLocation loads the installation time zone used for calendar dates.
func GetLocation() *time.Location {
	name := GetConfig("APP_TIMEZONE")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warnw("unknown time zone, using local", "timezone", name, "error", err)
		return time.Local
	}
	return loc
}

func fromFile(key string) string {
	switch key {
	case "APP_PORT":
		return config.AppPort
	case "APP_TIMEZONE":
		return config.AppTimezone
	case "CORS_ORIGINS":
		return config.CORSOrigins
	case "LOG_LEVEL":
		return config.LogLevel
	case "LOG_FILE":
		return config.LogFile
	case "DB_DRIVER":
		return config.DBDriver
	case "DB_PATH":
		return config.DBPath
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "NOTIFY_EMAIL":
		return config.NotifyEmail
	case "NOTIFY_INTERVAL":
		return config.NotifyInterval
	case "NOTIFY_PASS_TIMEOUT":
		return config.NotifyPassTimeout
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "ANTHROPIC_API_KEY":
		return config.AnthropicAPIKey
	case "ANTHROPIC_MODEL":
		return config.AnthropicModel
	case "OCR_PROXY_URL":
		return config.OCRProxyURL
	case "SCAN_SESSION_TTL":
		return config.ScanSessionTTL
	default:
		return ""
	}
}
