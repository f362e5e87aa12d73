package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent winter configuration stored as config.toml
// in the .winter/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version      int                `toml:"version"`
	Storage      StorageConfig      `toml:"storage"`
	VectorStore  VectorStoreConfig  `toml:"vector_store"`
	Embedding    EmbeddingConfig    `toml:"embedding"`
	LLM          LLMConfig          `toml:"llm"`
	Memory       MemoryConfig       `toml:"memory"`
	Retrieval    RetrievalConfig    `toml:"retrieval"`
	Conversation ConversationConfig `toml:"conversation"`
	Events       EventsConfig       `toml:"events"`
	API          APIConfig          `toml:"api"`
}

// StorageConfig selects and locates the conversation store.
// Provider is one of "sqlite", "postgres", "jsonl" or "memory". The vector
// backed providers fall back to the jsonl log when they cannot initialize.
type StorageConfig struct {
	Provider     string `toml:"provider,omitempty"`
	SQLitePath   string `toml:"sqlite_path,omitempty"`
	PostgresDSN  string `toml:"postgres_dsn,omitempty"`
	FallbackPath string `toml:"fallback_path,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// LLMConfig holds generation backend settings.
type LLMConfig struct {
	Provider      string  `toml:"provider,omitempty"`
	Target        string  `toml:"target,omitempty"`
	Model         string  `toml:"model,omitempty"`
	Temperature   float64 `toml:"temperature,omitempty"`
	ContextWindow uint    `toml:"context_window,omitempty"`
}

// MemoryConfig locates the user and system fact resources. Empty paths
// resolve to memory/memory.txt and memory/system.txt under .winter/.
type MemoryConfig struct {
	UserFacts   string `toml:"user_facts,omitempty"`
	SystemFacts string `toml:"system_facts,omitempty"`
}

// RetrievalConfig bounds the context window handed to generation.
type RetrievalConfig struct {
	Limit uint `toml:"limit,omitempty"`
}

// ConversationConfig holds conversation and prompt settings.
type ConversationConfig struct {
	AssistantName string `toml:"assistant_name,omitempty"`
	HistoryTurns  uint   `toml:"history_turns,omitempty"`
	TitleLength   uint   `toml:"title_length,omitempty"`
	Project       string `toml:"project,omitempty"`
}

// EventsConfig holds turn event publishing settings.
// Provider is "nop" or "kafka".
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":      stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":   stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn":  stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"storage.fallback_path": stringKey(func(c *Config) *string { return &c.Storage.FallbackPath }),

	"vector_store.provider": stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":   stringKey(func(c *Config) *string { return &c.VectorStore.Target }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),

	"llm.provider": stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.target":   stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.model":    stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.temperature": {
		get: func(c *Config) string {
			if c.LLM.Temperature == 0 {
				return ""
			}
			return strconv.FormatFloat(c.LLM.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for llm.temperature: %w", err)
			}
			if f < 0 || f > 2 {
				return fmt.Errorf("invalid value for llm.temperature: %v is outside [0, 2]", f)
			}
			c.LLM.Temperature = f
			return nil
		},
	},
	"llm.context_window": uintKey("llm.context_window", func(c *Config) *uint { return &c.LLM.ContextWindow }),

	"memory.user_facts":   stringKey(func(c *Config) *string { return &c.Memory.UserFacts }),
	"memory.system_facts": stringKey(func(c *Config) *string { return &c.Memory.SystemFacts }),

	"retrieval.limit": uintKey("retrieval.limit", func(c *Config) *uint { return &c.Retrieval.Limit }),

	"conversation.assistant_name": stringKey(func(c *Config) *string { return &c.Conversation.AssistantName }),
	"conversation.history_turns":  uintKey("conversation.history_turns", func(c *Config) *uint { return &c.Conversation.HistoryTurns }),
	"conversation.title_length":   uintKey("conversation.title_length", func(c *Config) *uint { return &c.Conversation.TitleLength }),
	"conversation.project":        stringKey(func(c *Config) *string { return &c.Conversation.Project }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for _, b := range strings.Split(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Events.Brokers = append(c.Events.Brokers, b)
				}
			}
			return nil
		},
	},
	"events.topic": stringKey(func(c *Config) *string { return &c.Events.Topic }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
}

// orderedKeys is the stable listing order, matching the TOML section layout.
var orderedKeys = []string{
	"storage.provider",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"storage.fallback_path",
	"vector_store.provider",
	"vector_store.target",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"llm.provider",
	"llm.target",
	"llm.model",
	"llm.temperature",
	"llm.context_window",
	"memory.user_facts",
	"memory.system_facts",
	"retrieval.limit",
	"conversation.assistant_name",
	"conversation.history_turns",
	"conversation.title_length",
	"conversation.project",
	"events.provider",
	"events.brokers",
	"events.topic",
	"api.listen",
}
