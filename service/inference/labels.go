package inference

import (
	_ "embed"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

//go:embed coco.names
var cocoNames string

// CocoLabels returns the 80 COCO class names in model index order.
func CocoLabels() []string {
	return strings.Split(strings.TrimSpace(cocoNames), "\n")
}

var namesEntry = regexp.MustCompile(`(\d+)\s*:\s*(?:'([^']*)'|"([^"]*)")`)

// ParseNamesMetadata parses the dictionary literal exported models carry
// in their "names" metadata, e.g. {0: 'person', 1: 'bicycle'}.
func ParseNamesMetadata(raw string) ([]string, error) {
	matches := namesEntry.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, xerrors.New("no class names in metadata")
	}

	byIndex := make(map[int]string, len(matches))
	maxIndex := -1
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, xerrors.Errorf("bad class index %q: %w", m[1], err)
		}
		name := m[2]
		if name == "" {
			name = m[3]
		}
		byIndex[idx] = name
		if idx > maxIndex {
			maxIndex = idx
		}
	}

	labels := make([]string, maxIndex+1)
	for i := range labels {
		name, ok := byIndex[i]
		if !ok {
			return nil, xerrors.Errorf("class index %d missing from metadata", i)
		}
		labels[i] = name
	}
	return labels, nil
}
