package config

const (
	defaultOllamaTarget = "http://localhost:11434"

	defaultStorageProvider = "sqlite"
	defaultVectorProvider  = "sqlite"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultLLMProvider      = "ollama"
	defaultLLMModel         = "deepseek-r1:8b"
	defaultLLMTemperature   = 0.7
	defaultLLMContextWindow = 4096

	defaultRetrievalLimit = 6

	defaultAssistantName = "agentWinter"
	defaultHistoryTurns  = 5
	defaultTitleLength   = 50

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "winter.turns"

	defaultAPIListen = ":8082"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultOllamaTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:      defaultLLMProvider,
			Target:        defaultOllamaTarget,
			Model:         defaultLLMModel,
			Temperature:   defaultLLMTemperature,
			ContextWindow: defaultLLMContextWindow,
		},
		Retrieval: RetrievalConfig{
			Limit: defaultRetrievalLimit,
		},
		Conversation: ConversationConfig{
			AssistantName: defaultAssistantName,
			HistoryTurns:  defaultHistoryTurns,
			TitleLength:   defaultTitleLength,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
