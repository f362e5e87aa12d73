package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/winter/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the WINTER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (WINTER_LLM_MODEL, WINTER_STORAGE_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
		v.Set("dir", target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("WINTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from the viper precedence chain and
// resolves empty file locations under the config directory.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:     v.GetString("storage.provider"),
			SQLitePath:   v.GetString("storage.sqlite_path"),
			PostgresDSN:  v.GetString("storage.postgres_dsn"),
			FallbackPath: v.GetString("storage.fallback_path"),
		},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Target:   v.GetString("vector_store.target"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		LLM: LLMConfig{
			Provider:      v.GetString("llm.provider"),
			Target:        v.GetString("llm.target"),
			Model:         v.GetString("llm.model"),
			Temperature:   v.GetFloat64("llm.temperature"),
			ContextWindow: v.GetUint("llm.context_window"),
		},
		Memory: MemoryConfig{
			UserFacts:   v.GetString("memory.user_facts"),
			SystemFacts: v.GetString("memory.system_facts"),
		},
		Retrieval: RetrievalConfig{
			Limit: v.GetUint("retrieval.limit"),
		},
		Conversation: ConversationConfig{
			AssistantName: v.GetString("conversation.assistant_name"),
			HistoryTurns:  v.GetUint("conversation.history_turns"),
			TitleLength:   v.GetUint("conversation.title_length"),
			Project:       v.GetString("conversation.project"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetStringSlice("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
	}

	applyDefaults(cfg)
	if dir := v.GetString("dir"); dir != "" {
		ResolvePaths(cfg, dir)
	}

	return cfg
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.fallback_path", d.Storage.FallbackPath)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.target", d.LLM.Target)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.context_window", d.LLM.ContextWindow)

	v.SetDefault("memory.user_facts", d.Memory.UserFacts)
	v.SetDefault("memory.system_facts", d.Memory.SystemFacts)

	v.SetDefault("retrieval.limit", d.Retrieval.Limit)

	v.SetDefault("conversation.assistant_name", d.Conversation.AssistantName)
	v.SetDefault("conversation.history_turns", d.Conversation.HistoryTurns)
	v.SetDefault("conversation.title_length", d.Conversation.TitleLength)
	v.SetDefault("conversation.project", d.Conversation.Project)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	v.SetDefault("api.listen", d.API.Listen)
}
