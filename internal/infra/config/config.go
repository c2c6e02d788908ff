package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env    string
	Server ServerConfig
	DB     DBConfig
	Augur  AugurConfig
	RAG    RAGConfig
	Cache  CacheConfig
	Worker WorkerConfig
	State  StateConfig
}

type ServerConfig struct {
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int32
	MinConns int32
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// AugurConfig points at the inference backends: an Ollama-compatible
// server for embeddings and generation, and a cross-encoder reranker.
type AugurConfig struct {
	URL            string
	Model          string
	VisionModel    string
	EmbeddingModel string
	RerankerURL    string
	RerankerModel  string
}

type RAGConfig struct {
	TopK            int
	TopN            int
	MaxTokens       int
	MaxPromptTokens int
}

type CacheConfig struct {
	Size int
	// TTL is in minutes.
	TTL int
}

type WorkerConfig struct {
	PollIntervalSeconds int
	JobsPerMinute       int
}

// StateConfig locates the JSON files holding conversation history and
// the filename-to-category map.
type StateConfig struct {
	HistoryPath string
	FileMapPath string
}

func Load() *Config {
	return &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port: getEnv("PORT", "9010"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "knowledge-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "knowledge_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "knowledge_password"),
			Name:     getEnv("DB_NAME", "knowledge_db"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
		},
		Augur: AugurConfig{
			URL:            getEnv("AUGUR_URL", "http://augur:11434"),
			Model:          getEnv("AUGUR_MODEL", "llama3.1:8b"),
			VisionModel:    getEnv("AUGUR_VISION_MODEL", "llava:13b"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			RerankerURL:    getEnv("RERANKER_URL", "http://reranker:8787"),
			RerankerModel:  getEnv("RERANKER_MODEL", "bge-reranker-v2-m3"),
		},
		RAG: RAGConfig{
			TopK:            getEnvInt("RAG_TOP_K", 10),
			TopN:            getEnvInt("RAG_TOP_N", 3),
			MaxTokens:       getEnvInt("RAG_DEFAULT_MAX_TOKENS", 2048),
			MaxPromptTokens: getEnvInt("RAG_MAX_PROMPT_TOKENS", 6000),
		},
		Cache: CacheConfig{
			Size: getEnvInt("RAG_CACHE_SIZE", 256),
			TTL:  getEnvInt("RAG_CACHE_TTL_MINUTES", 10),
		},
		Worker: WorkerConfig{
			PollIntervalSeconds: getEnvInt("WORKER_POLL_INTERVAL_SECONDS", 5),
			JobsPerMinute:       getEnvInt("WORKER_JOBS_PER_MINUTE", 6),
		},
		State: StateConfig{
			HistoryPath: getEnv("STATE_HISTORY_PATH", "data/history.json"),
			FileMapPath: getEnv("STATE_FILE_MAP_PATH", "data/file_map.json"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
