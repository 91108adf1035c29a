// Package config assembles AppConfig from an optional JSON/YAML file
// followed by environment-variable overrides, following the teacher's
// load-then-override pattern (internal/config/app.go, env_config.go).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// DatabaseConfig holds relational-store connection settings.
type DatabaseConfig struct {
	DSN                string `json:"dsn" yaml:"dsn"`
	MaxConnections     int    `json:"maxConnections" yaml:"maxConnections"`
	MaxIdleConnections int    `json:"maxIdleConnections" yaml:"maxIdleConnections"`
}

// VectorStoreConfig holds the external vector-DB client settings.
type VectorStoreConfig struct {
	URL        string        `json:"url" yaml:"url"`
	APIKey     string        `json:"apiKey" yaml:"apiKey"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	NormalizeEmbeddings bool  `json:"normalizeEmbeddings" yaml:"normalizeEmbeddings"`
}

// LLMConfig holds the external LLM chat-completion client settings.
type LLMConfig struct {
	BackendURL  string        `json:"backendUrl" yaml:"backendUrl"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Concurrency int           `json:"concurrency" yaml:"concurrency"`
}

// AuditConfig holds AuditOrchestrator sufficiency thresholds.
type AuditConfig struct {
	MinClientArticles     int `json:"minClientArticles" yaml:"minClientArticles"`
	MinCompetitorArticles int `json:"minCompetitorArticles" yaml:"minCompetitorArticles"`
}

// TracingConfig holds OpenTelemetry exporter endpoints.
type TracingConfig struct {
	JaegerEndpoint string `json:"jaegerEndpoint" yaml:"jaegerEndpoint"`
	ZipkinEndpoint string `json:"zipkinEndpoint" yaml:"zipkinEndpoint"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
}

// AdminAuthConfig holds the static admin-key boundary settings.
type AdminAuthConfig struct {
	APIKeyHash string `json:"apiKeyHash" yaml:"apiKeyHash"`
}

// WorkerConfig sizes the CPU-bound compute pool.
type WorkerConfig struct {
	PoolSize int `json:"poolSize" yaml:"poolSize"` // 0 = auto (physical cores)
}

// AppConfig aggregates every configuration surface of the service.
type AppConfig struct {
	Server      ServerConfig       `json:"server" yaml:"server"`
	Database    DatabaseConfig     `json:"database" yaml:"database"`
	VectorStore VectorStoreConfig  `json:"vectorStore" yaml:"vectorStore"`
	LLM         LLMConfig          `json:"llm" yaml:"llm"`
	Audit       AuditConfig        `json:"audit" yaml:"audit"`
	Tracing     TracingConfig      `json:"tracing" yaml:"tracing"`
	AdminAuth   AdminAuthConfig    `json:"adminAuth" yaml:"adminAuth"`
	Worker      WorkerConfig       `json:"worker" yaml:"worker"`
}

// Defaults returns an AppConfig populated with the system's documented
// defaults (spec.md §5, §6).
func Defaults() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConnections:     20,
			MaxIdleConnections: 5,
		},
		VectorStore: VectorStoreConfig{
			Timeout:             10 * time.Second,
			NormalizeEmbeddings: true,
		},
		LLM: LLMConfig{
			Timeout:     60 * time.Second,
			Concurrency: 1,
		},
		Audit: AuditConfig{
			MinClientArticles:     5,
			MinCompetitorArticles: 10,
		},
		Tracing: TracingConfig{
			ServiceName: "auditengine",
		},
		Worker: WorkerConfig{
			PoolSize: 0,
		},
	}
}

// Load reads an optional JSON or YAML config file (by extension) into a
// fresh AppConfig seeded with Defaults(). A missing path is not an error.
func Load(path string) (*AppConfig, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml %s: %w", path, err)
		}
	} else if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse json %s: %w", path, err)
	}
	return cfg, nil
}

func isYAMLPath(path string) bool {
	n := len(path)
	return n >= 5 && (path[n-5:] == ".yaml" || path[n-4:] == ".yml")
}

// LoadWithEnv loads the optional config file then applies environment
// overrides, mirroring the teacher's LoadWithEnv(mainConfigPath).
func LoadWithEnv(path string) (*AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("VECTOR_STORE_URL"); v != "" {
		cfg.VectorStore.URL = v
	}
	if v := os.Getenv("VECTOR_STORE_API_KEY"); v != "" {
		cfg.VectorStore.APIKey = v
	}
	if v := os.Getenv("LLM_BACKEND_URL"); v != "" {
		cfg.LLM.BackendURL = v
	}
	if v := os.Getenv("LLM_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLM.Concurrency = n
		}
	}
	if v := os.Getenv("MIN_CLIENT_ARTICLES_FOR_AUDIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Audit.MinClientArticles = n
		}
	}
	if v := os.Getenv("MIN_COMPETITOR_ARTICLES_FOR_AUDIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Audit.MinCompetitorArticles = n
		}
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Tracing.JaegerEndpoint = v
	}
	if v := os.Getenv("ZIPKIN_ENDPOINT"); v != "" {
		cfg.Tracing.ZipkinEndpoint = v
	}
	if v := os.Getenv("ADMIN_API_KEY_HASH"); v != "" {
		cfg.AdminAuth.APIKeyHash = v
	}
	if v := os.Getenv("WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.PoolSize = n
		}
	}
}
