package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/winter/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[storage]
provider = "jsonl"

[llm]
model = "llama3.2"
temperature = 0.2

[conversation]
assistant_name = "Frost"
`
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Provider).To(Equal("jsonl"))
			Expect(cfg.LLM.Model).To(Equal("llama3.2"))
			Expect(cfg.LLM.Temperature).To(Equal(0.2))
			Expect(cfg.Conversation.AssistantName).To(Equal("Frost"))

			// Unset fields are filled from defaults.
			Expect(cfg.Retrieval.Limit).To(Equal(uint(6)))
			Expect(cfg.Conversation.HistoryTurns).To(Equal(uint(5)))
			Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
		})

		It("returns error for malformed TOML", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[[[bad"), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
		})

		It("returns error for unsupported config version", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 9\n"), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Events.Brokers = []string{"localhost:9092"}
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(HaveOccurred())
		})
	})

	Describe("SetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets a string config key", func() {
			Expect(c.SetConfigValue("llm.model", "qwen3:4b")).To(Succeed())

			v, err := c.GetConfigValue("llm.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("qwen3:4b"))
		})

		It("sets a uint config key", func() {
			Expect(c.SetConfigValue("retrieval.limit", "10")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Retrieval.Limit).To(Equal(uint(10)))
		})

		It("sets a float config key within range", func() {
			Expect(c.SetConfigValue("llm.temperature", "1.1")).To(Succeed())

			v, err := c.GetConfigValue("llm.temperature")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("1.1"))
		})

		It("rejects an out of range temperature", func() {
			Expect(c.SetConfigValue("llm.temperature", "3")).To(HaveOccurred())
		})

		It("splits broker lists", func() {
			Expect(c.SetConfigValue("events.brokers", "a:9092, b:9092,")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Events.Brokers).To(Equal([]string{"a:9092", "b:9092"}))
		})

		It("returns error for unknown key", func() {
			err := c.SetConfigValue("proxy.upstream", "x")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("returns error for invalid uint value", func() {
			Expect(c.SetConfigValue("conversation.history_turns", "many")).To(HaveOccurred())
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("conversation.project", "winter")).To(Succeed())
			Expect(c.SetConfigValue("llm.model", "phi4")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Conversation.Project).To(Equal("winter"))
			Expect(cfg.LLM.Model).To(Equal("phi4"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			v, err := c.GetConfigValue("conversation.assistant_name")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("agentWinter"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			v, err := c.GetConfigValue("storage.postgres_dsn")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeEmpty())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns keys in stable order with storage first", func() {
			keys := config.ValidConfigKeys()
			Expect(keys[0]).To(Equal("storage.provider"))
			Expect(keys).To(ContainElements("llm.model", "retrieval.limit", "events.topic", "api.listen"))
			Expect(config.ValidConfigKeys()).To(Equal(keys))
		})
	})

	Describe("IsValidConfigKey", func() {
		It("distinguishes valid and invalid keys", func() {
			Expect(config.IsValidConfigKey("memory.user_facts")).To(BeTrue())
			Expect(config.IsValidConfigKey("memory.enabled")).To(BeFalse())
		})
	})

	Describe("Dir", func() {
		It("returns the directory holding config.toml", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			abs, err := filepath.Abs(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Dir()).To(Equal(abs))
		})
	})
})

var _ = Describe("PresetConfig", func() {
	It("returns the local preset as defaults", func() {
		cfg, err := config.PresetConfig("local")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("points the qdrant preset at the gRPC port", func() {
		cfg, err := config.PresetConfig("QDRANT")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))
	})

	It("shares the DSN between rows and vectors in the postgres preset", func() {
		cfg, err := config.PresetConfig("postgres")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Provider).To(Equal("postgres"))
		Expect(cfg.VectorStore.Provider).To(Equal("pgvector"))
		Expect(cfg.VectorStore.Target).To(Equal(cfg.Storage.PostgresDSN))
	})

	It("returns error for unknown preset", func() {
		_, err := config.PresetConfig("openai")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ResolvePaths", func() {
	It("places empty paths under the directory", func() {
		cfg := config.NewDefaultConfig()
		config.ResolvePaths(cfg, "/data/.winter")

		Expect(cfg.Storage.SQLitePath).To(Equal("/data/.winter/conversations.db"))
		Expect(cfg.Storage.FallbackPath).To(Equal("/data/.winter/conversations_fallback/all_conversations.jsonl"))
		Expect(cfg.Memory.UserFacts).To(Equal("/data/.winter/memory/memory.txt"))
		Expect(cfg.Memory.SystemFacts).To(Equal("/data/.winter/memory/system.txt"))
		Expect(cfg.VectorStore.Target).To(Equal("/data/.winter/vectors.db"))
	})

	It("keeps explicit paths", func() {
		cfg := config.NewDefaultConfig()
		cfg.Memory.UserFacts = "/etc/winter/facts.txt"
		cfg.VectorStore = config.VectorStoreConfig{Provider: "chroma", Target: ""}
		config.ResolvePaths(cfg, "/data/.winter")

		Expect(cfg.Memory.UserFacts).To(Equal("/etc/winter/facts.txt"))
		Expect(cfg.VectorStore.Target).To(BeEmpty())
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("parses valid TOML into a Config", func() {
		cfg, err := config.ParseConfigTOML([]byte("[events]\nprovider = \"kafka\"\nbrokers = [\"k:9092\"]\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Events.Provider).To(Equal("kafka"))
		Expect(cfg.Events.Brokers).To(Equal([]string{"k:9092"}))
	})

	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Provider).To(BeEmpty())
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("llm.model")).To(Equal(defaults.LLM.Model))
		Expect(v.GetUint("retrieval.limit")).To(Equal(defaults.Retrieval.Limit))
	})

	It("reads config file values over defaults", func() {
		data := "[llm]\nmodel = \"gemma3\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("llm.model")).To(Equal("gemma3"))
		Expect(v.GetString("llm.target")).To(Equal(config.NewDefaultConfig().LLM.Target))
	})

	It("env vars take precedence over config file values", func() {
		data := "[storage]\nprovider = \"sqlite\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		os.Setenv("WINTER_STORAGE_PROVIDER", "jsonl")
		defer os.Unsetenv("WINTER_STORAGE_PROVIDER")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("storage.provider")).To(Equal("jsonl"))
	})

	It("materializes a resolved Config", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		abs, err := filepath.Abs(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.SQLitePath).To(Equal(filepath.Join(abs, "conversations.db")))
		Expect(cfg.LLM.Temperature).To(Equal(0.7))
		Expect(cfg.Conversation.AssistantName).To(Equal("agentWinter"))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.AddFlags(cmd, config.StandardFlags, []string{config.FlagLLMModel})
		Expect(cmd.Flags().Set("model", "mistral")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.StandardFlags, []string{config.FlagLLMModel})
		Expect(v.GetString("llm.model")).To(Equal("mistral"))
	})

	It("falls through to config when flag not set", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[api]\nlisten = \":5555\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.AddFlags(cmd, config.StandardFlags, []string{config.FlagAPIListen})
		config.BindRegisteredFlags(v, cmd, config.StandardFlags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("registers uint flags with their defaults", func() {
		cmd := &cobra.Command{Use: "test"}
		config.AddFlags(cmd, config.StandardFlags, []string{config.FlagRetrievalLimit, config.FlagEmbeddingDims})

		f := cmd.Flags().Lookup("retrieval-limit")
		Expect(f).NotTo(BeNil())
		Expect(f.Value.Type()).To(Equal("uint"))
		Expect(f.DefValue).To(Equal("6"))
	})

	It("pulls name, shorthand, and description from the FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var model string
		config.AddStringFlag(cmd, config.StandardFlags, config.FlagLLMModel, &model)

		f := cmd.Flags().Lookup("model")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("m"))
		Expect(f.Usage).To(Equal("Generation model name"))
		Expect(f.DefValue).To(Equal("deepseek-r1:8b"))
	})

	It("skips unknown registry keys", func() {
		cmd := &cobra.Command{Use: "test"}
		config.AddFlags(cmd, config.StandardFlags, []string{"nonexistent"})
		Expect(cmd.Flags().HasFlags()).To(BeFalse())
	})
})
