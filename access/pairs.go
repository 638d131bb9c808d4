package access

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// pair is one "key = value" line.
type pair struct {
	key   string
	value string
}

// readPairs parses a file of "key = value" lines. Each line is split at the
// first '=' and both sides are trimmed; nothing else is interpreted, so
// backslashes, '#' and ':' are kept as written. Blank lines are ignored and
// lines without a key are passed to malformed. Pairs are returned in file
// order.
func readPairs(path string, malformed func(lineNo int)) ([]pair, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config
	if err != nil {
		return nil, err
	}

	var pairs []pair
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			if malformed != nil {
				malformed(lineNo)
			}
			continue
		}
		pairs = append(pairs, pair{key: key, value: strings.TrimSpace(value)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	return pairs, nil
}
