package panels

import (
	"fmt"

	"map-georef/internal/app"
	"map-georef/pkg/geomath"
	"map-georef/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// MeasurePanel measures ground distance between two clicked map points.
type MeasurePanel struct {
	state     *app.State
	canvas    *canvas.MapCanvas
	container fyne.CanvasObject

	resultLabel *widget.Label
	pointsLabel *widget.Label

	points []geomath.PixelPoint
}

// NewMeasurePanel creates a new measurement panel.
func NewMeasurePanel(state *app.State, cvs *canvas.MapCanvas) *MeasurePanel {
	mp := &MeasurePanel{
		state:  state,
		canvas: cvs,
	}

	mp.resultLabel = widget.NewLabel("Click two points on the map")
	mp.resultLabel.Wrapping = fyne.TextWrapWord
	mp.pointsLabel = widget.NewLabel("")
	mp.pointsLabel.Wrapping = fyne.TextWrapWord

	clearBtn := widget.NewButton("Clear", func() {
		mp.Clear()
	})

	mp.container = container.NewVBox(
		widget.NewCard("Distance", "", container.NewVBox(
			mp.resultLabel,
			mp.pointsLabel,
		)),
		clearBtn,
	)

	// A new fit moves the endpoints, so recompute
	state.On(app.EventCalibrationChanged, func(data interface{}) {
		mp.update()
	})

	return mp
}

// Container returns the panel container.
func (mp *MeasurePanel) Container() fyne.CanvasObject {
	return mp.container
}

// HandleClick adds a measurement endpoint. A third click starts over.
func (mp *MeasurePanel) HandleClick(x, y float64) {
	if len(mp.points) >= 2 {
		mp.points = mp.points[:0]
	}
	mp.points = append(mp.points, geomath.NewPixelPoint(x, y))
	mp.update()
}

// Clear removes the measurement.
func (mp *MeasurePanel) Clear() {
	mp.points = mp.points[:0]
	mp.update()
}

func (mp *MeasurePanel) update() {
	switch len(mp.points) {
	case 0:
		mp.canvas.SetMeasureLine(nil)
		mp.resultLabel.SetText("Click two points on the map")
		mp.pointsLabel.SetText("")
		return
	case 1:
		mp.canvas.SetMeasureLine(nil)
		mp.resultLabel.SetText("Click the second point")
		mp.pointsLabel.SetText(fmt.Sprintf("From px(%.0f, %.0f)", mp.points[0].X, mp.points[0].Y))
		return
	}

	line := [2]geomath.PixelPoint{mp.points[0], mp.points[1]}
	mp.canvas.SetMeasureLine(&line)

	transform, ok := mp.state.Transform()
	if !ok {
		mp.resultLabel.SetText("Calibrate the map to measure ground distance")
		mp.pointsLabel.SetText(fmt.Sprintf("Pixel distance: %.1f px", mp.points[0].Distance(mp.points[1])))
		return
	}

	g1 := transform.PixelToGeo(mp.points[0])
	g2 := transform.PixelToGeo(mp.points[1])
	meters := geomath.Distance(g1, g2)

	if meters >= 1000 {
		mp.resultLabel.SetText(fmt.Sprintf("%.2f km", meters/1000))
	} else {
		mp.resultLabel.SetText(fmt.Sprintf("%.1f m", meters))
	}
	mp.pointsLabel.SetText(fmt.Sprintf("%.5f, %.5f  to  %.5f, %.5f",
		g1.Lat, g1.Lng, g2.Lat, g2.Lng))
}
