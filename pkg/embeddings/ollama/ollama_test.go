package ollama_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/embeddings/ollama"
	"github.com/papercomputeco/winter/pkg/vector"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		lastBody map[string]any
		status   int
		payload  string
	)

	BeforeEach(func() {
		status = http.StatusOK
		payload = `{"model":"nomic-embed-text","embeddings":[[0.25,0.5,1]]}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/embed"))
			Expect(json.NewDecoder(r.Body).Decode(&lastBody)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(payload))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the configured model and returns the first embedding", func(ctx SpecContext) {
		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL, Model: "all-minilm"})
		Expect(err).NotTo(HaveOccurred())
		defer embedder.Close()

		v, err := embedder.Embed(ctx, "user: hi | assistant: hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]float32{0.25, 0.5, 1}))
		Expect(lastBody["model"]).To(Equal("all-minilm"))
		Expect(lastBody["input"]).To(Equal("user: hi | assistant: hello"))
	})

	It("defaults the model", func(ctx SpecContext) {
		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, "text")
		Expect(err).NotTo(HaveOccurred())
		Expect(lastBody["model"]).To(Equal(ollama.DefaultEmbeddingModel))
	})

	It("wraps server failures as embedding errors", func(ctx SpecContext) {
		status = http.StatusInternalServerError
		payload = `{"error":"model not loaded"}`

		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, "text")
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})

	It("fails when no embeddings come back", func(ctx SpecContext) {
		payload = `{"model":"nomic-embed-text","embeddings":[]}`

		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = embedder.Embed(ctx, "text")
		Expect(err).To(MatchError(vector.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("no embeddings returned"))
	})
})
