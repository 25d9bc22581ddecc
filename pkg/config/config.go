package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Ingest     IngestConfig
	Clustering ClusteringConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	APIKey          string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration. An empty Host selects the
// in-memory repositories, which is the default for local runs and tests.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration. An empty Host selects the
// in-process cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig holds MinIO configuration for out-of-band meeting notes.
// An empty Endpoint disables object storage; file and upload sources
// are then rejected.
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// IngestConfig holds the ingestion worker pool settings
type IngestConfig struct {
	WorkerCount int
	QueueSize   int
}

// ClusteringConfig holds the clustering and theming knobs
type ClusteringConfig struct {
	AttachThreshold     float64
	ThemeThreshold      float64
	RepeatCustomerDecay float64
	TopK                int

	// CategoryRules overrides the built-in extraction rules when set.
	// Format: "category:trigger,trigger;category:trigger"
	CategoryRules string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			APIKey:          getEnv("API_KEY", ""),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "painpoint"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "painpoint-notes"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
		Ingest: IngestConfig{
			WorkerCount: getEnvAsInt("INGEST_WORKERS", 4),
			QueueSize:   getEnvAsInt("INGEST_QUEUE_SIZE", 100),
		},
		Clustering: ClusteringConfig{
			AttachThreshold:     getEnvAsFloat("ATTACH_THRESHOLD", 0.55),
			ThemeThreshold:      getEnvAsFloat("THEME_THRESHOLD", 0.30),
			RepeatCustomerDecay: getEnvAsFloat("REPEAT_CUSTOMER_DECAY", 0.5),
			TopK:                getEnvAsInt("CLUSTER_TOP_K", 5),
			CategoryRules:       getEnv("CATEGORY_RULES", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Clustering.AttachThreshold <= 0 || c.Clustering.AttachThreshold > 1 {
		return fmt.Errorf("ATTACH_THRESHOLD must be in (0, 1]")
	}
	if c.Clustering.ThemeThreshold <= 0 || c.Clustering.ThemeThreshold > 1 {
		return fmt.Errorf("THEME_THRESHOLD must be in (0, 1]")
	}
	if c.Clustering.RepeatCustomerDecay <= 0 || c.Clustering.RepeatCustomerDecay > 1 {
		return fmt.Errorf("REPEAT_CUSTOMER_DECAY must be in (0, 1]")
	}
	if c.Ingest.WorkerCount <= 0 {
		return fmt.Errorf("INGEST_WORKERS must be positive")
	}
	return nil
}

// UseDatabase reports whether a PostgreSQL connection is configured
func (c *Config) UseDatabase() bool {
	return c.Database.Host != ""
}

// UseRedis reports whether Redis is configured
func (c *Config) UseRedis() bool {
	return c.Redis.Host != ""
}

// UseStorage reports whether MinIO object storage is configured
func (c *Config) UseStorage() bool {
	return c.Storage.Endpoint != ""
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
