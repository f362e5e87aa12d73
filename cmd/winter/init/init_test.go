package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/winter/cmd/winter/init"
	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/memory"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "winter-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates a .winter directory in the current directory", func() {
		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".winter"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("creates a config.toml with default values", func() {
		Expect(run()).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Storage.Provider).To(Equal("sqlite"))
		Expect(cfg.LLM.Target).To(Equal("http://localhost:11434"))
		Expect(cfg.API.Listen).To(Equal(":8082"))
	})

	It("seeds fact files that load as empty namespaces", func() {
		Expect(run()).To(Succeed())

		facts, err := memory.Load(memory.Paths{
			User:   filepath.Join(tmpDir, ".winter", "memory", "memory.txt"),
			System: filepath.Join(tmpDir, ".winter", "memory", "system.txt"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(facts.Len()).To(Equal(0))
	})

	It("does not overwrite existing contents when already initialized", func() {
		memDir := filepath.Join(tmpDir, ".winter", "memory")
		Expect(os.MkdirAll(memDir, 0o755)).To(Succeed())

		factsFile := filepath.Join(memDir, "memory.txt")
		Expect(os.WriteFile(factsFile, []byte("vessel 1: USER_NAME = Alex\n"), 0o600)).To(Succeed())

		configFile := filepath.Join(tmpDir, ".winter", "config.toml")
		Expect(os.WriteFile(configFile, []byte("[llm]\nmodel = \"llama3.2\"\n"), 0o600)).To(Succeed())

		Expect(run()).To(Succeed())

		data, err := os.ReadFile(factsFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("vessel 1: USER_NAME = Alex\n"))
		Expect(loadConfig(tmpDir).LLM.Model).To(Equal("llama3.2"))
	})

	Describe("--preset with named presets", func() {
		It("creates config.toml with the postgres preset", func() {
			Expect(run("--preset", "postgres")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Storage.Provider).To(Equal("postgres"))
			Expect(cfg.Storage.PostgresDSN).To(ContainSubstring("postgres://"))
			Expect(cfg.VectorStore.Provider).To(Equal("pgvector"))
		})

		It("creates config.toml with the qdrant preset", func() {
			Expect(run("--preset", "qdrant")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))
		})

		It("rejects unknown preset names without creating anything", func() {
			err := run("--preset", "invalid-preset")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown preset"))

			_, statErr := os.Stat(filepath.Join(tmpDir, ".winter"))
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("overwrites config.toml when re-run with a different preset", func() {
			Expect(run("--preset", "qdrant")).To(Succeed())
			Expect(loadConfig(tmpDir).VectorStore.Provider).To(Equal("qdrant"))

			Expect(run("--preset", "postgres")).To(Succeed())
			Expect(loadConfig(tmpDir).VectorStore.Provider).To(Equal("pgvector"))
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[llm]
model = "llama3.2"

[embedding]
model = "mxbai-embed-large"
dimensions = 1024
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(run("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.Model).To(Equal("llama3.2"))
			Expect(cfg.Embedding.Model).To(Equal("mxbai-embed-large"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(1024)))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("HTTP 404"))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing"))
		})

		It("returns error for unreachable URL", func() {
			err := run("--preset", "http://127.0.0.1:1")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fetching remote config"))
		})
	})
})

// loadConfig reads and parses the config.toml from the .winter directory
// within the given base directory.
func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".winter", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg, err := config.ParseConfigTOML(data)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return cfg
}
