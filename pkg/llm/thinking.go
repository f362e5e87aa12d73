package llm

import (
	"iter"
	"strings"
)

// thinkingSpan is a pair of markers delimiting model reasoning.
type thinkingSpan struct {
	open, close string
}

var thinkingSpans = []thinkingSpan{
	{open: "<think>", close: "</think>"},
	{open: "Thinking...", close: "...done thinking."},
}

// StripThinking removes reasoning spans from seq, along with the blank
// space that follows a span. Markers may be split across fragments. An
// unterminated span swallows the rest of the stream.
func StripThinking(seq iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f := &thinkingFilter{}
		for fragment, err := range seq {
			if err != nil {
				yield("", err)
				return
			}
			if out := f.push(fragment); out != "" {
				if !yield(out, nil) {
					return
				}
			}
		}
		if out := f.flush(); out != "" {
			yield(out, nil)
		}
	}
}

type thinkingFilter struct {
	buf         string
	inside      *thinkingSpan
	trimLeading bool
}

func (f *thinkingFilter) push(fragment string) string {
	f.buf += fragment

	var out strings.Builder
	for {
		if f.inside != nil {
			j := strings.Index(f.buf, f.inside.close)
			if j < 0 {
				f.buf = f.buf[len(f.buf)-partialSuffix(f.buf, f.inside.close):]
				break
			}
			f.buf = f.buf[j+len(f.inside.close):]
			f.inside = nil
			f.trimLeading = true
			continue
		}

		i, span := f.nextOpen()
		if span == nil {
			keep := 0
			for _, s := range thinkingSpans {
				keep = max(keep, partialSuffix(f.buf, s.open))
			}
			f.emit(&out, f.buf[:len(f.buf)-keep])
			f.buf = f.buf[len(f.buf)-keep:]
			break
		}

		f.emit(&out, f.buf[:i])
		f.buf = f.buf[i+len(span.open):]
		f.inside = span
	}
	return out.String()
}

func (f *thinkingFilter) flush() string {
	if f.inside != nil {
		f.buf = ""
		return ""
	}
	var out strings.Builder
	f.emit(&out, f.buf)
	f.buf = ""
	return out.String()
}

// nextOpen finds the earliest opening marker in the buffer.
func (f *thinkingFilter) nextOpen() (int, *thinkingSpan) {
	best, idx := (*thinkingSpan)(nil), -1
	for k := range thinkingSpans {
		if i := strings.Index(f.buf, thinkingSpans[k].open); i >= 0 && (idx < 0 || i < idx) {
			best, idx = &thinkingSpans[k], i
		}
	}
	return idx, best
}

func (f *thinkingFilter) emit(out *strings.Builder, s string) {
	if f.trimLeading {
		s = strings.TrimLeft(s, " \t\r\n")
		if s == "" {
			return
		}
		f.trimLeading = false
	}
	out.WriteString(s)
}

// partialSuffix returns the length of the longest suffix of s that is a
// proper prefix of marker.
func partialSuffix(s, marker string) int {
	for n := min(len(s), len(marker)-1); n > 0; n-- {
		if strings.HasSuffix(s, marker[:n]) {
			return n
		}
	}
	return 0
}
