package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	VectorDB  VectorDBConfig  `yaml:"vector_db"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// gin mode: debug, release, test
	Mode string `yaml:"mode"`
	// largest accepted upload, in bytes
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	// postgres or sqlite
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig selects the model used for both chunk and query vectors.
type EmbeddingConfig struct {
	// ollama or openai
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// VectorDBConfig selects the vector index backend.
type VectorDBConfig struct {
	// chromem or pgvector
	Type          string `yaml:"type"`
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	InMemory      bool   `yaml:"in_memory"`
	EncryptionKey string `yaml:"encryption_key"`
	// pgvector only; falls back to database.dsn when empty
	DSN string `yaml:"dsn"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	VectorDBChromem  = "chromem"
	VectorDBPgvector = "pgvector"

	DefaultDimension = 384

	DefaultMaxUploadBytes = 32 << 20
)

// LoadConfig reads the yaml file at path, applies .env and environment
// overrides, then fills defaults. A missing file yields a config built from
// defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"DATABASE_URL":       &cfg.Database.DSN,
		"REDIS_URL":          &cfg.Redis.URL,
		"EMBEDDING_BASE_URL": &cfg.Embedding.BaseURL,
		"EMBEDDING_API_KEY":  &cfg.Embedding.APIKey,
		"VECTOR_DB_TYPE":     &cfg.VectorDB.Type,
		"HTTP_ADDR":          &cfg.Server.Addr,
	}
	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Driver == "" {
		if strings.HasPrefix(cfg.Database.DSN, "postgres") {
			cfg.Database.Driver = DriverPostgres
		} else {
			cfg.Database.Driver = DriverSQLite
		}
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = "file:rag.db?_pragma=foreign_keys(1)"
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOllama
	}
	if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider == ProviderOllama {
		cfg.Embedding.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "all-minilm"
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = DefaultDimension
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 512
	}
	if cfg.VectorDB.Type == "" {
		cfg.VectorDB.Type = VectorDBChromem
	}
	if cfg.VectorDB.Path == "" {
		cfg.VectorDB.Path = "./chromemdb"
	}
	if cfg.VectorDB.Collection == "" {
		cfg.VectorDB.Collection = "rag-project"
	}
	if cfg.VectorDB.DSN == "" {
		cfg.VectorDB.DSN = cfg.Database.DSN
	}
}

// Validate rejects unknown enum values and impossible sizes.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported embedding provider: %q", c.Embedding.Provider)
	}
	switch c.VectorDB.Type {
	case VectorDBChromem:
	case VectorDBPgvector:
		if !strings.HasPrefix(c.VectorDB.DSN, "postgres") {
			return fmt.Errorf("pgvector index requires a postgres dsn")
		}
	default:
		return fmt.Errorf("unsupported vector db type: %q", c.VectorDB.Type)
	}
	if c.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("max upload bytes must not be negative, got %d", c.Server.MaxUploadBytes)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Embedding.Dimension)
	}
	return nil
}
