package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/harunnryd/chatlab/internal/pathutil"

	"github.com/natefinch/atomic"
)

// WriteJSON replaces path with the indented JSON encoding of v. Readers see
// either the old file or the new one, never a partial write.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := pathutil.EnsureParent(path); err != nil {
		return fmt.Errorf("prepare %s: %w", path, err)
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// ReadJSON decodes path into v. found is false when the file does not exist
// or is empty.
func ReadJSON(path string, v any) (found bool, err error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(content, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
