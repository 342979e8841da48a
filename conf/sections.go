package conf

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// orderedEntry is one "key = value" line from an ini section, in file order.
type orderedEntry struct {
	Key   string
	Value string
}

// readOrderedSection reads one named section from path preserving
// declaration order. The work/virtual name-format sections allocate
// their albumtype band sequentially in the order entries appear, which a
// map-backed config library cannot preserve — this is a narrow,
// deliberate bypass of the viper/ini codec used for every other
// setting, not a wholesale reimplementation of an ini parser.
func readOrderedSection(path, section string) ([]orderedEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	defer f.Close()

	var entries []orderedEntry
	inSection := false
	wantHeader := "[" + section + "]"

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			inSection = strings.EqualFold(trimmed, wantHeader)
			continue
		}
		if !inSection {
			continue
		}
		eq := strings.Index(trimmed, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:eq])
		value := strings.TrimSpace(trimmed[eq+1:])
		entries = append(entries, orderedEntry{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return entries, nil
}
