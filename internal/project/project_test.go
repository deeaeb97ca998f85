package project

import (
	"path/filepath"
	"testing"

	"map-georef/internal/calibrate"
	"map-georef/pkg/geomath"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	f := New("harz-1904")
	f.MapImagePath = "scans/harz.tiff"
	f.References = []calibrate.ReferencePoint{
		{Pixel: geomath.PixelPoint{X: 120.5, Y: 88.25}, Geo: geomath.GeoPoint{Lat: 51.8, Lng: 10.6}},
		{Pixel: geomath.PixelPoint{X: 901, Y: 1440}, Geo: geomath.GeoPoint{Lat: 51.6, Lng: 10.9}},
	}

	path := filepath.Join(t.TempDir(), "harz"+Extension)
	if err := f.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if loaded.Name != f.Name || loaded.Version != f.Version {
		t.Errorf("metadata: got %q v%d, want %q v%d",
			loaded.Name, loaded.Version, f.Name, f.Version)
	}
	if loaded.MapImagePath != f.MapImagePath {
		t.Errorf("map path: got %q, want %q", loaded.MapImagePath, f.MapImagePath)
	}
	if len(loaded.References) != len(f.References) {
		t.Fatalf("references: got %d, want %d", len(loaded.References), len(f.References))
	}
	for i := range f.References {
		if loaded.References[i] != f.References[i] {
			t.Errorf("reference %d: got %+v, want %+v", i, loaded.References[i], f.References[i])
		}
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.georef")); err == nil {
		t.Error("LoadFile succeeded on a missing file")
	}
}
