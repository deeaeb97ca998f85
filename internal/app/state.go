// Package app provides application lifecycle management, state, and events.
package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"map-georef/internal/calibrate"
	"map-georef/internal/mapimage"
	"map-georef/internal/project"
	"map-georef/pkg/geomath"
)

// State holds the application state: the loaded map raster, the calibration
// session, and the current project file.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	ProjectName string
	Modified    bool

	// Loaded map raster
	Map *mapimage.Layer

	// Calibration session
	Calibrator *calibrate.Calibrator

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventMapLoaded
	EventCalibrationChanged
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state.
func NewState() *State {
	return &State{
		Calibrator: calibrate.NewCalibrator(),
		listeners:  make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// LoadMap loads a map raster from the specified path. Loading a new map
// clears the calibration: reference points belong to one raster.
func (s *State) LoadMap(path string) error {
	layer, err := mapimage.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.Map = layer
	s.Calibrator.Reset()
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventMapLoaded, layer)
	s.Emit(EventCalibrationChanged, nil)
	return nil
}

// AddReference adds a correspondence and refits the calibration. Expected
// fit failures (too few points, degenerate or singular input) are reported
// to listeners through the calibration state, not returned as errors.
func (s *State) AddReference(pixel geomath.PixelPoint, geo geomath.GeoPoint) error {
	s.mu.Lock()
	err := s.Calibrator.AddReference(pixel, geo)
	s.mu.Unlock()

	if err != nil && !calibrate.IsNotCalibratable(err) {
		return err
	}

	s.SetModified(true)
	s.Emit(EventCalibrationChanged, nil)
	return nil
}

// RemoveReference removes the correspondence at index i and refits.
func (s *State) RemoveReference(i int) error {
	s.mu.Lock()
	err := s.Calibrator.RemoveReference(i)
	s.mu.Unlock()

	if err != nil && !calibrate.IsNotCalibratable(err) {
		return err
	}

	s.SetModified(true)
	s.Emit(EventCalibrationChanged, nil)
	return nil
}

// ResetCalibration clears all reference points.
func (s *State) ResetCalibration() {
	s.mu.Lock()
	s.Calibrator.Reset()
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventCalibrationChanged, nil)
}

// Transform returns the current pixel-to-geo transform, or false while
// uncalibrated.
func (s *State) Transform() (geomath.AffineTransform, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Calibrator.Transform()
}

// LoadProject loads a .georef project: map image plus reference points.
func (s *State) LoadProject(path string) error {
	proj, err := project.LoadFile(path)
	if err != nil {
		return err
	}

	if proj.MapImagePath != "" {
		mapPath := proj.MapImagePath
		if !filepath.IsAbs(mapPath) {
			mapPath = filepath.Join(filepath.Dir(path), mapPath)
		}
		if err := s.LoadMap(mapPath); err != nil {
			return fmt.Errorf("project references missing map: %w", err)
		}
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.ProjectName = proj.Name
	for _, ref := range proj.References {
		// Errors here are expected fit states, surfaced via the calibrator.
		_ = s.Calibrator.AddReference(ref.Pixel, ref.Geo)
	}
	s.mu.Unlock()

	s.SetModified(false)
	s.Emit(EventCalibrationChanged, nil)
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject saves the current session to a .georef project file.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	name := s.ProjectName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), project.Extension)
	}
	proj := project.New(name)
	proj.References = s.Calibrator.References()
	if s.Map != nil {
		if rel, err := filepath.Rel(filepath.Dir(path), s.Map.Path); err == nil {
			proj.MapImagePath = rel
		} else {
			proj.MapImagePath = s.Map.Path
		}
	}
	s.mu.RUnlock()

	if err := proj.Save(path); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.ProjectName = name
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}
