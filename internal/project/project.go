// Package project provides georeferencing project file handling (.georef).
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"map-georef/internal/calibrate"
)

// Extension is the project file extension.
const Extension = ".georef"

// File is the JSON structure of a .georef project file. Reference points are
// stored as plain numeric pairs; the transform itself is never persisted
// because it is always recomputed from the points.
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Map image path, relative to the project file where possible.
	MapImagePath string `json:"map_image,omitempty"`

	// Reference correspondences in the order the user added them.
	References []calibrate.ReferencePoint `json:"references,omitempty"`
}

// New creates a project file with the current timestamps.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
	}
}

// LoadFile reads and parses a project file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	return &f, nil
}

// Save writes the project file, refreshing the modified timestamp.
func (f *File) Save(path string) error {
	f.Modified = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
