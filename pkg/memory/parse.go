package memory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// Parse reads fact lines of the form "<prefix> <ordinal>: <KEY> = <value>".
// Lines that do not match are skipped. When a key repeats, the last
// occurrence wins.
func Parse(r io.Reader, ns Namespace, prefix string) (map[string]Fact, error) {
	re, err := regexp.Compile(`^\s*` + regexp.QuoteMeta(prefix) + `\s+(\d+):\s*(\w+)\s*=\s*(.*\S)\s*$`)
	if err != nil {
		return nil, fmt.Errorf("compiling fact pattern: %w", err)
	}

	facts := make(map[string]Fact)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := re.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		ordinal, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		key := m[2]
		facts[key] = Fact{
			Key:       key,
			Value:     m[3],
			Ordinal:   ordinal,
			Namespace: ns,
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s facts: %w", ErrFacts, ns, err)
	}

	return facts, nil
}

// LoadFile parses the resource at path. A missing file yields an empty
// mapping rather than an error.
func LoadFile(path string, ns Namespace, prefix string) (map[string]Fact, error) {
	if path == "" {
		return map[string]Fact{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Fact{}, nil
		}
		return nil, fmt.Errorf("%w: opening %s facts: %w", ErrFacts, ns, err)
	}
	defer f.Close()

	return Parse(f, ns, prefix)
}
