package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage providers
const (
	StorageS3    = "s3"
	StorageDrive = "drive"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	AWS       AWSConfig       `yaml:"aws"`
	Drive     DriveConfig     `yaml:"drive"`
	JWT       JWTConfig       `yaml:"jwt"`
	Session   SessionConfig   `yaml:"session"`
	Access    AccessConfig    `yaml:"access"`
	Upload    UploadConfig    `yaml:"upload"`
	Email     EmailConfig     `yaml:"email"`
	Admin     AdminConfig     `yaml:"admin"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port      int    `yaml:"port"`
	Host      string `yaml:"host"`
	PublicURL string `yaml:"public_url"` // base URL used in access links
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// StorageConfig selects the external storage backend
type StorageConfig struct {
	Provider     string `yaml:"provider"`
	RootFolderID string `yaml:"root_folder_id"`
}

// AWSConfig holds S3 configuration
type AWSConfig struct {
	Region       string `yaml:"region"`
	S3Bucket     string `yaml:"s3_bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// DriveConfig holds Google Drive OAuth configuration
type DriveConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	RefreshToken string `yaml:"refresh_token"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// SessionConfig controls the credential issued after a link is verified
type SessionConfig struct {
	Require bool          `yaml:"require"`
	TTL     time.Duration `yaml:"ttl"`
}

// AccessConfig holds access link configuration
type AccessConfig struct {
	TokenTTL    time.Duration `yaml:"token_ttl"`
	AlbumWindow time.Duration `yaml:"album_window"`
	// ExposeTokenOnNotifyFailure returns the raw token when the link could not be delivered.
	// Debug only.
	ExposeTokenOnNotifyFailure bool          `yaml:"expose_token_on_notify_failure"`
	NotifyTimeout              time.Duration `yaml:"notify_timeout"`
}

// UploadConfig holds upload relay limits
type UploadConfig struct {
	MaxBytes    int64 `yaml:"max_bytes"`
	MemoryBytes int64 `yaml:"memory_bytes"`
}

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost    string `yaml:"smtp_host"`
	SMTPPort    int    `yaml:"smtp_port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	FromAddress string `yaml:"from_address"`
	FromName    string `yaml:"from_name"`
	Encryption  string `yaml:"encryption"` // NONE | STARTTLS | SSL/TLS
}

// AdminConfig holds admin credentials
type AdminConfig struct {
	PasswordHash string        `yaml:"password_hash"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Rate limit defaults. The address limit is loose because a shelter's volunteers
// usually share one public IP.
const (
	DefaultRateLimitRequests   = 5
	DefaultRateLimitIPRequests = 200
	DefaultRateLimitWindow     = 15 * time.Minute
)

// RateLimitConfig holds access request rate limiting.
// Requests applies per phone number and to admin logins, IPRequests per client address.
// A negative value disables that limit.
type RateLimitConfig struct {
	Requests   int           `yaml:"requests"`
	IPRequests int           `yaml:"ip_requests"`
	Window     time.Duration `yaml:"window"`
	RedisURL   string        `yaml:"redis_url"`
}

// CORSConfig holds allowed origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file, then applies environment overrides and defaults.
// A .env file next to the binary is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fields absent from the file keep these values
	cfg := Config{Session: SessionConfig{Require: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv overrides secrets and deployment specific values from the environment
func (c *Config) applyEnv() {
	setString(&c.Database.Password, "DATABASE_PASSWORD")
	setString(&c.Database.Host, "DATABASE_HOST")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.AWS.AccessKey, "AWS_ACCESS_KEY_ID")
	setString(&c.AWS.SecretKey, "AWS_SECRET_ACCESS_KEY")
	setString(&c.Email.Password, "SMTP_PASSWORD")
	setString(&c.Drive.ClientSecret, "DRIVE_CLIENT_SECRET")
	setString(&c.Drive.RefreshToken, "DRIVE_REFRESH_TOKEN")
	setString(&c.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&c.RateLimit.RedisURL, "REDIS_URL")
	setString(&c.Server.PublicURL, "APP_URL")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = StorageS3
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Access.TokenTTL <= 0 {
		c.Access.TokenTTL = 24 * time.Hour
	}
	if c.Access.AlbumWindow <= 0 {
		c.Access.AlbumWindow = 24 * time.Hour
	}
	if c.Access.NotifyTimeout <= 0 {
		c.Access.NotifyTimeout = 15 * time.Second
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 100 << 20
	}
	if c.Upload.MemoryBytes <= 0 {
		c.Upload.MemoryBytes = 32 << 20
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.Encryption == "" {
		c.Email.Encryption = "STARTTLS"
	}
	if c.Admin.TokenTTL <= 0 {
		c.Admin.TokenTTL = 12 * time.Hour
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = DefaultRateLimitRequests
	}
	if c.RateLimit.IPRequests == 0 {
		c.RateLimit.IPRequests = DefaultRateLimitIPRequests
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = DefaultRateLimitWindow
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Storage.Provider {
	case StorageS3:
		if c.AWS.S3Bucket == "" {
			return errors.New("aws.s3_bucket is required for the s3 storage provider")
		}
	case StorageDrive:
		if c.Drive.ClientID == "" || c.Drive.RefreshToken == "" {
			return errors.New("drive.client_id and drive.refresh_token are required for the drive storage provider")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", c.MaxConns)
	}
	return dsn
}
