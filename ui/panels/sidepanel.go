// Package panels provides UI panels for the application.
package panels

import (
	"map-georef/internal/app"
	"map-georef/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	canvas    *canvas.MapCanvas
	container *container.AppTabs

	// Tab content
	calibrationPanel *CalibrationPanel
	measurePanel     *MeasurePanel
	mapPanel         *MapPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, cvs *canvas.MapCanvas) *SidePanel {
	sp := &SidePanel{
		state:  state,
		canvas: cvs,
	}

	sp.calibrationPanel = NewCalibrationPanel(state, cvs)
	sp.measurePanel = NewMeasurePanel(state, cvs)
	sp.mapPanel = NewMapPanel(state, cvs)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Calibrate", sp.calibrationPanel.Container()),
		container.NewTabItem("Measure", sp.measurePanel.Container()),
		container.NewTabItem("Map", sp.mapPanel.Container()),
	)

	// Leaving the measure tab clears the ruler from the canvas.
	sp.container.OnSelected = func(item *container.TabItem) {
		if item.Text != "Measure" {
			sp.measurePanel.Clear()
		}
	}

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.calibrationPanel.SetWindow(w)
}

// HandleClick routes a map click, in image coordinates, to the active tab.
func (sp *SidePanel) HandleClick(x, y float64) {
	switch sp.container.Selected().Text {
	case "Measure":
		sp.measurePanel.HandleClick(x, y)
	default:
		sp.calibrationPanel.HandleClick(x, y)
	}
}

// RefreshMarkers redraws the reference point markers on the canvas.
func (sp *SidePanel) RefreshMarkers() {
	sp.calibrationPanel.refreshMarkers()
}
