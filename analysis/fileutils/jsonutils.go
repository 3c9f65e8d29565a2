package fileutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DecodeModelJSON unmarshals JSON from a model response, tolerating text wrapped around a single
// top-level object.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	if end == -1 || end <= start {
		return io.ErrUnexpectedEOF
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

// ReadJSONFile decodes the JSON file at path into v.
func ReadJSONFile(path string, v any) error {
	if path == "" {
		return errors.New("ReadJSONFile: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ReadJSONFile: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("ReadJSONFile: unmarshal %s: %w", path, err)
	}
	return nil
}
