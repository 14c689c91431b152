// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

const dumpLimit = 100000

// Dump writes every stored record matching f to path. The format follows
// the file extension: .json writes JSON, anything else YAML.
func (s *Store) Dump(ctx context.Context, path string, f Filter) (int, error) {
	f.Limit = dumpLimit
	records, err := s.List(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("querying for dump: %w", err)
	}
	if records == nil {
		records = []Record{}
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = yaml.Marshal(records)
	}
	if err != nil {
		return 0, fmt.Errorf("marshaling history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(records), nil
}
