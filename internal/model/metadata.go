package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadMetadata reads a model metadata file. YAML is used for .yaml/.yml,
// JSON otherwise.
func LoadMetadata(path string) (Metadata, error) {
	var metadata Metadata

	raw, err := os.ReadFile(path)
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &metadata)
	default:
		err = json.Unmarshal(raw, &metadata)
	}
	if err != nil {
		return metadata, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}

	return metadata, nil
}

// Labels returns the metadata classes, or fallback when none are listed.
func (m Metadata) Labels(fallback LabelTable) LabelTable {
	if len(m.Classes) == 0 {
		return fallback
	}
	return LabelTable(m.Classes)
}

// CheckOutputs rejects a label table that cannot cover the model output.
func (m Metadata) CheckOutputs(labels LabelTable) error {
	if len(labels) == 0 {
		return fmt.Errorf("%w: label table is empty", ErrLabelMismatch)
	}
	width := m.outputWidth()
	if width == 0 {
		return nil
	}
	if width != int64(len(labels)) {
		return fmt.Errorf("%w: model has %d outputs, table has %d labels", ErrLabelMismatch, width, len(labels))
	}
	return nil
}

// outputWidth is the number of classes the model scores, 0 when unknown.
func (m Metadata) outputWidth() int64 {
	if m.NumClasses > 0 {
		return int64(m.NumClasses)
	}
	if len(m.OutputShape) == 0 {
		return 0
	}
	return m.OutputShape[len(m.OutputShape)-1]
}
