package app

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"map-georef/pkg/geomath"
)

func writeTestMap(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "map.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test map: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("failed to encode test map: %v", err)
	}
	return path
}

func TestAddReferenceEmitsCalibrationChanged(t *testing.T) {
	state := NewState()

	events := 0
	state.On(EventCalibrationChanged, func(data interface{}) {
		events++
	})

	// Too few points for a fit, but the mutation itself must notify
	if err := state.AddReference(geomath.NewPixelPoint(0, 0), geomath.NewGeoPoint(50, 8)); err != nil {
		t.Fatalf("AddReference failed: %v", err)
	}
	if events != 1 {
		t.Errorf("got %d calibration events, want 1", events)
	}
	if _, ok := state.Transform(); ok {
		t.Error("Transform() reported calibrated with a single point")
	}

	if err := state.AddReference(geomath.NewPixelPoint(100, 100), geomath.NewGeoPoint(49, 9)); err != nil {
		t.Fatalf("AddReference failed: %v", err)
	}
	if events != 2 {
		t.Errorf("got %d calibration events, want 2", events)
	}
	if _, ok := state.Transform(); !ok {
		t.Error("Transform() not calibrated after two distinct points")
	}
}

func TestLoadMapResetsCalibration(t *testing.T) {
	state := NewState()
	path := writeTestMap(t, t.TempDir())

	if err := state.AddReference(geomath.NewPixelPoint(0, 0), geomath.NewGeoPoint(50, 8)); err != nil {
		t.Fatalf("AddReference failed: %v", err)
	}
	if err := state.AddReference(geomath.NewPixelPoint(10, 10), geomath.NewGeoPoint(49, 9)); err != nil {
		t.Fatalf("AddReference failed: %v", err)
	}

	if err := state.LoadMap(path); err != nil {
		t.Fatalf("LoadMap failed: %v", err)
	}

	if state.Map == nil {
		t.Fatal("Map not set after LoadMap")
	}
	if state.Calibrator.Count() != 0 {
		t.Errorf("calibration kept %d points across a map change", state.Calibrator.Count())
	}
	if _, ok := state.Transform(); ok {
		t.Error("Transform() still calibrated after loading a new map")
	}
}

func TestLoadMapMissingFile(t *testing.T) {
	state := NewState()
	if err := state.LoadMap(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("LoadMap succeeded for a missing file")
	}
}

func TestProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mapPath := writeTestMap(t, dir)

	state := NewState()
	if err := state.LoadMap(mapPath); err != nil {
		t.Fatalf("LoadMap failed: %v", err)
	}
	refs := []struct {
		px, py, lat, lng float64
	}{
		{0, 0, 52.6, 13.2},
		{800, 0, 52.6, 13.6},
		{0, 600, 52.4, 13.2},
	}
	for _, r := range refs {
		if err := state.AddReference(geomath.NewPixelPoint(r.px, r.py), geomath.NewGeoPoint(r.lat, r.lng)); err != nil {
			t.Fatalf("AddReference failed: %v", err)
		}
	}

	projPath := filepath.Join(dir, "test.georef")
	if err := state.SaveProject(projPath); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}
	if state.Modified {
		t.Error("state still marked modified after save")
	}

	restored := NewState()
	if err := restored.LoadProject(projPath); err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if restored.Map == nil {
		t.Fatal("map not restored from project")
	}
	if got := restored.Calibrator.Count(); got != len(refs) {
		t.Fatalf("restored %d reference points, want %d", got, len(refs))
	}

	origT, ok1 := state.Transform()
	restT, ok2 := restored.Transform()
	if !ok1 || !ok2 {
		t.Fatalf("calibration state lost: before=%v after=%v", ok1, ok2)
	}
	if origT != restT {
		t.Errorf("transform changed across save/load:\n  before %+v\n  after  %+v", origT, restT)
	}
}
