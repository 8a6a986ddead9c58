package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the RAG engine.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Clients    ClientsConfig    `yaml:"clients"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Logging    LoggingConfig    `yaml:"logging"`
	Heuristics HeuristicsConfig `yaml:"heuristics"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ServerConfig controls the HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups external backend integrations.
type ClientsConfig struct {
	Completion CompletionConfig   `yaml:"completion"`
	Weaviate   WeaviateConfig     `yaml:"weaviate"`
	Messages   MessageStoreConfig `yaml:"messages"`
}

// CompletionConfig configures the chat-completion backend.
type CompletionConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	APIKey      string        `yaml:"apiKey"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"maxTokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// WeaviateConfig configures the semantic search cluster.
type WeaviateConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"apiKey"`
	ForumClass     string        `yaml:"forumClass"`
	MessagingClass string        `yaml:"messagingClass"`
	Timeout        time.Duration `yaml:"timeout"`
}

// MessageStoreConfig configures the Postgres customer-message store.
type MessageStoreConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RetrievalConfig carries the fixed retrieval and grounding constants.
type RetrievalConfig struct {
	TopK                int           `yaml:"topK"`
	SimilarityThreshold float64       `yaml:"similarityThreshold"`
	ContextTokenBudget  int           `yaml:"contextTokenBudget"`
	ExcerptLength       int           `yaml:"excerptLength"`
	SearchTimeout       time.Duration `yaml:"searchTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HeuristicsConfig controls keyword-pack loading for the classifier and optimizer.
type HeuristicsConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls Redis-backed caching of static schema lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	SchemaTTL    time.Duration `yaml:"schemaTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("LUMEN_RAG_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Clients: ClientsConfig{
			Completion: CompletionConfig{
				Model:       "gpt-4o-mini",
				MaxTokens:   1024,
				Temperature: 0.2,
				Timeout:     30 * time.Second,
			},
			Weaviate: WeaviateConfig{
				ForumClass:     "ForumPost",
				MessagingClass: "CustomerMessage",
				Timeout:        5 * time.Second,
			},
			Messages: MessageStoreConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Retrieval: RetrievalConfig{
			TopK:                8,
			SimilarityThreshold: 0.55,
			ContextTokenBudget:  3200,
			ExcerptLength:       240,
			SearchTimeout:       5 * time.Second,
		},
		Logging:    LoggingConfig{Level: "info", JSON: false},
		Heuristics: HeuristicsConfig{Path: "configs/heuristics/default.yaml"},
		Cache: CacheConfig{
			Enabled:      false,
			SchemaTTL:    10 * time.Minute,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LUMEN_RAG_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("LUMEN_RAG_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("LUMEN_RAG_COMPLETION_BASE_URL"); v != "" {
		cfg.Clients.Completion.BaseURL = v
	}
	if v := os.Getenv("LUMEN_RAG_COMPLETION_API_KEY"); v != "" {
		cfg.Clients.Completion.APIKey = v
	}
	if v := os.Getenv("LUMEN_RAG_COMPLETION_MODEL"); v != "" {
		cfg.Clients.Completion.Model = v
	}
	if v := os.Getenv("LUMEN_RAG_WEAVIATE_URL"); v != "" {
		cfg.Clients.Weaviate.Endpoint = v
	}
	if v := os.Getenv("LUMEN_RAG_WEAVIATE_API_KEY"); v != "" {
		cfg.Clients.Weaviate.APIKey = v
	}
	if v := os.Getenv("LUMEN_RAG_PG_HOST"); v != "" {
		cfg.Clients.Messages.Host = v
	}
	if v := os.Getenv("LUMEN_RAG_PG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Clients.Messages.Port = port
		}
	}
	if v := os.Getenv("LUMEN_RAG_PG_USER"); v != "" {
		cfg.Clients.Messages.User = v
	}
	if v := os.Getenv("LUMEN_RAG_PG_PASSWORD"); v != "" {
		cfg.Clients.Messages.Password = v
	}
	if v := os.Getenv("LUMEN_RAG_PG_DBNAME"); v != "" {
		cfg.Clients.Messages.DBName = v
	}
	if v := os.Getenv("LUMEN_RAG_PG_SSLMODE"); v != "" {
		cfg.Clients.Messages.SSLMode = v
	}
	if v := os.Getenv("LUMEN_RAG_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			cfg.Retrieval.TopK = k
		}
	}
	if v := os.Getenv("LUMEN_RAG_SIMILARITY_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Retrieval.SimilarityThreshold = threshold
		}
	}
	if v := os.Getenv("LUMEN_RAG_CONTEXT_TOKEN_BUDGET"); v != "" {
		if budget, err := strconv.Atoi(v); err == nil && budget > 0 {
			cfg.Retrieval.ContextTokenBudget = budget
		}
	}
	if v := os.Getenv("LUMEN_RAG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LUMEN_RAG_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("LUMEN_RAG_HEURISTICS_PATH"); v != "" {
		cfg.Heuristics.Path = v
	}
	if v := os.Getenv("LUMEN_RAG_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("LUMEN_RAG_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("LUMEN_RAG_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("LUMEN_RAG_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("LUMEN_RAG_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("LUMEN_RAG_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("LUMEN_RAG_CACHE_SCHEMA_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SchemaTTL = d
		}
	}
}
