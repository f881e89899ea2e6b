// Package yamlutil decodes layered YAML variable files.
package yamlutil

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/mapnikgen/internal/maputil"
)

// docSeparator matches a line containing only "---", optionally followed by
// whitespace.
var docSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// SplitDocuments splits a multi-document YAML stream, dropping empty
// documents.
func SplitDocuments(data []byte) [][]byte {
	parts := docSeparator.Split(string(data), -1)

	var docs [][]byte

	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			docs = append(docs, []byte(part))
		}
	}

	return docs
}

// DecodeLayers decodes every document of data as a mapping and deep-merges
// them in order, so later documents override earlier ones. An empty stream
// yields an empty map.
func DecodeLayers(data []byte) (map[string]any, error) {
	merged := map[string]any{}

	for i, doc := range SplitDocuments(data) {
		var layer map[string]any
		if err := yaml.Unmarshal(doc, &layer); err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}

		maputil.Merge(merged, layer)
	}

	return merged, nil
}
