package llm_test

import (
	"errors"
	"iter"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/winter/pkg/llm"
	testutils "github.com/papercomputeco/winter/pkg/utils/test"
)

func fragments(parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func strip(parts ...string) string {
	GinkgoHelper()
	out, err := testutils.Collect(llm.StripThinking(fragments(parts...)))
	Expect(err).NotTo(HaveOccurred())
	return out
}

var _ = Describe("StripThinking", func() {
	It("passes plain text through", func() {
		Expect(strip("Hello", ", ", "world")).To(Equal("Hello, world"))
	})

	It("removes a think span and the blank after it", func() {
		Expect(strip("<think>\nreasoning\n</think>\n\nThe answer is 4.")).To(Equal("The answer is 4."))
	})

	It("handles markers split across fragments", func() {
		Expect(strip("<th", "ink>hidden</thi", "nk>", "\n", "Visible")).To(Equal("Visible"))
	})

	It("removes Thinking... spans", func() {
		Expect(strip("Thinking...\nhmm\n...done thinking.\n\nSure.")).To(Equal("Sure."))
	})

	It("keeps text before a span", func() {
		Expect(strip("Before <think>x</think> after")).To(Equal("Before after"))
	})

	It("holds back a possible marker prefix until it resolves", func() {
		Expect(strip("a <", "b")).To(Equal("a <b"))
		Expect(strip("The", "ory")).To(Equal("Theory"))
	})

	It("drops an unterminated span", func() {
		Expect(strip("ok <think>never closed")).To(Equal("ok "))
	})

	It("forwards errors", func() {
		boom := errors.New("boom")
		seq := func(yield func(string, error) bool) {
			if !yield("<think>x</think>hi", nil) {
				return
			}
			yield("", boom)
		}

		var got []string
		var gotErr error
		for f, err := range llm.StripThinking(seq) {
			if err != nil {
				gotErr = err
				break
			}
			got = append(got, f)
		}
		Expect(got).To(Equal([]string{"hi"}))
		Expect(gotErr).To(MatchError(boom))
	})

	It("stops when the consumer stops", func() {
		count := 0
		for range llm.StripThinking(fragments("a", "b", "c")) {
			count++
			break
		}
		Expect(count).To(Equal(1))
	})
})
