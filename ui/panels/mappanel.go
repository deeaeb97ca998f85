package panels

import (
	"fmt"

	"map-georef/internal/app"
	"map-georef/internal/mapimage"
	"map-georef/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// MapPanel shows the loaded raster and controls its display.
type MapPanel struct {
	state     *app.State
	canvas    *canvas.MapCanvas
	container fyne.CanvasObject

	infoLabel     *widget.Label
	visibleCheck  *widget.Check
	opacitySlider *widget.Slider
}

// NewMapPanel creates a new map panel.
func NewMapPanel(state *app.State, cvs *canvas.MapCanvas) *MapPanel {
	mp := &MapPanel{
		state:  state,
		canvas: cvs,
	}

	mp.infoLabel = widget.NewLabel("No map loaded")
	mp.infoLabel.Wrapping = fyne.TextWrapWord

	mp.visibleCheck = widget.NewCheck("Show map", func(checked bool) {
		if state.Map != nil {
			state.Map.Visible = checked
			cvs.Refresh()
		}
	})
	mp.visibleCheck.SetChecked(true)

	mp.opacitySlider = widget.NewSlider(0, 100)
	mp.opacitySlider.SetValue(100)
	mp.opacitySlider.OnChanged = func(val float64) {
		if state.Map != nil {
			state.Map.Opacity = val / 100.0
			cvs.Refresh()
		}
	}

	mp.container = container.NewVBox(
		widget.NewCard("Map Image", "", container.NewVBox(
			mp.infoLabel,
			mp.visibleCheck,
			widget.NewLabel("Opacity:"),
			mp.opacitySlider,
		)),
	)

	state.On(app.EventMapLoaded, func(data interface{}) {
		if layer, ok := data.(*mapimage.Layer); ok {
			mp.update(layer)
		}
	})

	return mp
}

// Container returns the panel container.
func (mp *MapPanel) Container() fyne.CanvasObject {
	return mp.container
}

func (mp *MapPanel) update(layer *mapimage.Layer) {
	if layer == nil {
		mp.infoLabel.SetText("No map loaded")
		return
	}
	mp.infoLabel.SetText(fmt.Sprintf("%s\n%d x %d pixels",
		layer.Path, layer.Width(), layer.Height()))
	mp.visibleCheck.SetChecked(layer.Visible)
	mp.opacitySlider.SetValue(layer.Opacity * 100)
}
