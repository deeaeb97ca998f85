package panels

import (
	"fmt"
	"image/color"
	"math"

	"map-georef/internal/app"
	"map-georef/internal/ocr"
	"map-georef/pkg/geomath"
	"map-georef/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// CalibrationPanel manages reference points and shows the calibration state.
type CalibrationPanel struct {
	state     *app.State
	canvas    *canvas.MapCanvas
	window    fyne.Window
	container fyne.CanvasObject

	list        *widget.List
	statusLabel *widget.Label
	fitLabel    *widget.Label
	removeBtn   *widget.Button
	clearBtn    *widget.Button

	selected int
}

var markerColor = color.RGBA{R: 0xD9, G: 0x3A, B: 0x2B, A: 0xFF}

// NewCalibrationPanel creates a new calibration panel.
func NewCalibrationPanel(state *app.State, cvs *canvas.MapCanvas) *CalibrationPanel {
	cp := &CalibrationPanel{
		state:    state,
		canvas:   cvs,
		selected: -1,
	}

	cp.statusLabel = widget.NewLabel("Not calibrated")
	cp.statusLabel.Wrapping = fyne.TextWrapWord
	cp.fitLabel = widget.NewLabel("")
	cp.fitLabel.Wrapping = fyne.TextWrapWord

	cp.list = widget.NewList(
		func() int {
			return cp.state.Calibrator.Count()
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("reference")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			refs := cp.state.Calibrator.References()
			if id >= len(refs) {
				return
			}
			ref := refs[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%d: px(%.0f, %.0f) = %.5f, %.5f",
				id+1, ref.Pixel.X, ref.Pixel.Y, ref.Geo.Lat, ref.Geo.Lng))
		},
	)
	cp.list.OnSelected = func(id widget.ListItemID) {
		cp.selected = id
		cp.removeBtn.Enable()
	}
	cp.list.OnUnselected = func(id widget.ListItemID) {
		cp.selected = -1
		cp.removeBtn.Disable()
	}

	cp.removeBtn = widget.NewButton("Remove", func() {
		if cp.selected < 0 {
			return
		}
		if err := cp.state.RemoveReference(cp.selected); err != nil {
			cp.showError(err)
			return
		}
		cp.selected = -1
		cp.removeBtn.Disable()
		cp.list.UnselectAll()
	})
	cp.removeBtn.Disable()

	cp.clearBtn = widget.NewButton("Clear All", func() {
		cp.state.ResetCalibration()
		cp.selected = -1
		cp.removeBtn.Disable()
		cp.list.UnselectAll()
	})

	hint := widget.NewLabel("Click a known location on the map, then enter its coordinates. Two points give scale, three or more fit rotation too.")
	hint.Wrapping = fyne.TextWrapWord

	cp.container = container.NewBorder(
		container.NewVBox(
			widget.NewCard("Calibration", "", container.NewVBox(
				cp.statusLabel,
				cp.fitLabel,
			)),
			hint,
		),
		container.NewHBox(cp.removeBtn, cp.clearBtn),
		nil, nil,
		cp.list,
	)

	state.On(app.EventCalibrationChanged, func(data interface{}) {
		cp.refresh()
	})
	state.On(app.EventMapLoaded, func(data interface{}) {
		cp.refresh()
	})

	return cp
}

// Container returns the panel container.
func (cp *CalibrationPanel) Container() fyne.CanvasObject {
	return cp.container
}

// SetWindow sets the parent window for dialogs.
func (cp *CalibrationPanel) SetWindow(w fyne.Window) {
	cp.window = w
}

// HandleClick captures a map click as a candidate reference point and asks
// for its coordinates.
func (cp *CalibrationPanel) HandleClick(x, y float64) {
	if cp.window == nil {
		return
	}
	if cp.state.Map == nil {
		cp.statusLabel.SetText("Load a map image first")
		return
	}

	latEntry := widget.NewEntry()
	latEntry.SetPlaceHolder(`52.520 or 52°31'12"N`)
	lngEntry := widget.NewEntry()
	lngEntry.SetPlaceHolder(`13.405 or 13°24'18"E`)

	items := []*widget.FormItem{
		widget.NewFormItem("Latitude", latEntry),
		widget.NewFormItem("Longitude", lngEntry),
	}

	title := fmt.Sprintf("Reference Point at (%.0f, %.0f)", x, y)
	dialog.ShowForm(title, "Add", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		lat, err := ocr.ParseCoordinate(latEntry.Text)
		if err != nil {
			cp.showError(fmt.Errorf("latitude: %w", err))
			return
		}
		lng, err := ocr.ParseCoordinate(lngEntry.Text)
		if err != nil {
			cp.showError(fmt.Errorf("longitude: %w", err))
			return
		}
		if err := cp.state.AddReference(
			geomath.NewPixelPoint(x, y),
			geomath.NewGeoPoint(lat, lng),
		); err != nil {
			cp.showError(err)
		}
	}, cp.window)
}

func (cp *CalibrationPanel) showError(err error) {
	if cp.window != nil {
		dialog.ShowError(err, cp.window)
	}
}

func (cp *CalibrationPanel) refresh() {
	cp.list.Refresh()
	cp.refreshMarkers()

	count := cp.state.Calibrator.Count()
	transform, ok := cp.state.Transform()

	switch {
	case !ok && count == 0:
		cp.statusLabel.SetText("Not calibrated")
		cp.fitLabel.SetText("")
	case !ok && count == 1:
		cp.statusLabel.SetText("1 point, need at least 2")
		cp.fitLabel.SetText("")
	case !ok:
		cp.statusLabel.SetText(fmt.Sprintf("%d points, fit failed (points may be collinear or identical)", count))
		cp.fitLabel.SetText("")
	case count == 2:
		cp.statusLabel.SetText("Calibrated (2 points, axis-aligned)")
		cp.fitLabel.SetText(fmt.Sprintf("scale: %.6g°/px lat, %.6g°/px lng",
			transform.B, transform.D))
	default:
		cp.statusLabel.SetText(fmt.Sprintf("Calibrated (%d points, full affine)", count))
		rotation := math.Atan2(transform.A, transform.B) * 180 / math.Pi
		if residuals, ok := cp.state.Calibrator.Residuals(); ok {
			var worst float64
			for _, r := range residuals {
				if r > worst {
					worst = r
				}
			}
			cp.fitLabel.SetText(fmt.Sprintf("rotation: %.2f°, worst residual: %.2f px", rotation, worst))
		} else {
			cp.fitLabel.SetText(fmt.Sprintf("rotation: %.2f°", rotation))
		}
	}
}

// refreshMarkers pushes the reference points to the canvas as markers.
func (cp *CalibrationPanel) refreshMarkers() {
	refs := cp.state.Calibrator.References()
	markers := make([]canvas.Marker, len(refs))
	for i, ref := range refs {
		markers[i] = canvas.Marker{Pixel: ref.Pixel, Color: markerColor}
	}
	cp.canvas.SetMarkers(markers)
}
