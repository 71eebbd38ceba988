// Package config reads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/kgraph/internal/util"

	"github.com/go-playground/validator"
)

type AIConfig struct {
	Adapter          string `validate:"oneof=openai ollama"`
	ChatURL          string `validate:"omitempty,url"`
	ChatKey          string
	ExtractModel     string `validate:"required"`
	ParallelRequests int    `validate:"min=1"`
}

type StoreConfig struct {
	Adapter       string `validate:"oneof=neo4j postgres memory"`
	Neo4jURL      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string
	DatabaseURL   string
}

type GraphConfig struct {
	Instructions   string
	ChunkMode      string `validate:"oneof=chars tokens"`
	MaxChunkSize   int    `validate:"min=1"`
	TokenEncoder   string `validate:"required"`
	MaxChunkTokens int    `validate:"min=1"`
	ParallelFiles  int    `validate:"min=1"`
	ParallelChunks int    `validate:"min=1"`
	MaxRetries     int    `validate:"min=1"`
	ExtractTimeout time.Duration
	IncludeSource  bool
}

type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

type QueueConfig struct {
	User     string
	Password string
	Host     string
	Port     string
}

// URL returns the AMQP connection URL.
func (q QueueConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", q.User, q.Password, q.Host, q.Port)
}

type ServerConfig struct {
	Port         string `validate:"numeric"`
	AuthURL      string `validate:"omitempty,url"`
	MasterAPIKey string
}

// Config is the complete process configuration. The pipeline itself only
// sees the parts handed to it by internal/setup.
type Config struct {
	Debug  bool
	AI     AIConfig
	Store  StoreConfig
	Graph  GraphConfig
	S3     S3Config
	Queue  QueueConfig
	Server ServerConfig
}

var validate = validator.New()

// Load reads the configuration from the environment and validates it.
// LoadEnv should run first when a .env file is to be honored.
func Load() (*Config, error) {
	cfg := &Config{
		Debug: util.GetEnvBool("DEBUG", false),
		AI: AIConfig{
			Adapter:          util.GetEnvString("AI_ADAPTER", "openai"),
			ChatURL:          util.GetEnv("AI_CHAT_URL"),
			ChatKey:          util.GetEnv("AI_CHAT_KEY"),
			ExtractModel:     util.GetEnvString("AI_CHAT_EXTRACT_MODEL", "gpt-4o"),
			ParallelRequests: util.GetEnvInt("AI_PARALLEL_REQ", 4),
		},
		Store: StoreConfig{
			Adapter:       util.GetEnvString("STORE_ADAPTER", "neo4j"),
			Neo4jURL:      util.GetEnv("NEO4J_URL"),
			Neo4jUsername: util.GetEnv("NEO4J_USERNAME"),
			Neo4jPassword: util.GetEnv("NEO4J_PASSWORD"),
			Neo4jDatabase: util.GetEnv("NEO4J_DATABASE"),
			DatabaseURL:   util.GetEnv("DATABASE_URL"),
		},
		Graph: GraphConfig{
			Instructions:   util.GetEnv("GRAPH_INSTRUCTIONS"),
			ChunkMode:      util.GetEnvString("GRAPH_CHUNK_MODE", "chars"),
			MaxChunkSize:   util.GetEnvInt("GRAPH_MAX_CHUNK_SIZE", 12000),
			TokenEncoder:   util.GetEnvString("GRAPH_TOKEN_ENCODER", "o200k_base"),
			MaxChunkTokens: util.GetEnvInt("GRAPH_MAX_CHUNK_TOKENS", 4000),
			ParallelFiles:  util.GetEnvInt("GRAPH_PARALLEL_FILES", 1),
			ParallelChunks: util.GetEnvInt("GRAPH_PARALLEL_CHUNKS", 1),
			MaxRetries:     util.GetEnvInt("GRAPH_MAX_RETRIES", 3),
			ExtractTimeout: util.GetEnvDuration("GRAPH_EXTRACT_TIMEOUT", 2*time.Minute),
			IncludeSource:  util.GetEnvBool("GRAPH_INCLUDE_SOURCE", true),
		},
		S3: S3Config{
			Region:    util.GetEnv("AWS_REGION"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
			Bucket:    util.GetEnv("AWS_BUCKET"),
		},
		Queue: QueueConfig{
			User:     util.GetEnv("RABBITMQ_USER"),
			Password: util.GetEnv("RABBITMQ_PASSWORD"),
			Host:     util.GetEnvString("RABBITMQ_HOST", "localhost"),
			Port:     util.GetEnvString("RABBITMQ_PORT", "5672"),
		},
		Server: ServerConfig{
			Port:         util.GetEnvString("PORT", "8080"),
			AuthURL:      util.GetEnv("AUTH_URL"),
			MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the settings each store adapter
// requires.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Store.Adapter {
	case "neo4j":
		if c.Store.Neo4jURL == "" {
			return errors.New("invalid configuration: NEO4J_URL is required for the neo4j store")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return errors.New("invalid configuration: DATABASE_URL is required for the postgres store")
		}
	}
	return nil
}

// RequireS3 reports an error unless a bucket is configured.
func (c *Config) RequireS3() error {
	if c.S3.Bucket == "" {
		return errors.New("invalid configuration: AWS_BUCKET is required")
	}
	return nil
}
