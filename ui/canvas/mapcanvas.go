// Package canvas provides the map canvas with pan, zoom, and click capture.
package canvas

import (
	"image"
	"image/color"

	"map-georef/internal/mapimage"
	"map-georef/pkg/geomath"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// Marker is a reference point indicator drawn on the map.
type Marker struct {
	Pixel geomath.PixelPoint
	Color color.RGBA
}

// MapCanvas displays the map raster with pan, zoom, reference markers, and a
// measurement line.
type MapCanvas struct {
	widget.BaseWidget

	layer   *mapimage.Layer
	markers []Marker

	// Measurement line endpoints in image coordinates (nil = none)
	measureLine *[2]geomath.PixelPoint

	// Display state
	raster *fynecanvas.Raster
	zoom   float64

	// Container
	scroll  *zoomScroll
	content *clickableContent
	imgSize fyne.Size

	// Fit to window
	fitToWindow    bool
	lastScrollSize fyne.Size

	// Callbacks, all in image coordinates
	onZoomChange func(zoom float64)
	onLeftClick  func(x, y float64)
	onRightClick func(x, y float64)
	onHover      func(x, y float64)
}

// zoomScroll wraps a scroll container but intercepts the wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *MapCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *MapCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// clickableContent wraps the raster to handle mouse events.
type clickableContent struct {
	widget.BaseWidget
	canvas *MapCanvas
	raster *fynecanvas.Raster
}

var _ desktop.Hoverable = (*clickableContent)(nil)

func newClickableContent(mc *MapCanvas, raster *fynecanvas.Raster) *clickableContent {
	cc := &clickableContent{
		canvas: mc,
		raster: raster,
	}
	cc.ExtendBaseWidget(cc)
	return cc
}

func (cc *clickableContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cc.raster)
}

func (cc *clickableContent) MinSize() fyne.Size {
	return cc.raster.MinSize()
}

// toImageCoords converts a widget-relative event position to image coordinates.
func (cc *clickableContent) toImageCoords(pos fyne.Position) (float64, float64, bool) {
	size := cc.Size()
	if pos.X < 0 || pos.Y < 0 || pos.X > size.Width || pos.Y > size.Height {
		return 0, 0, false
	}

	scrollOffset := cc.canvas.scroll.Offset()
	canvasX := float64(pos.X + scrollOffset.X)
	canvasY := float64(pos.Y + scrollOffset.Y)
	return canvasX / cc.canvas.zoom, canvasY / cc.canvas.zoom, true
}

// Tapped handles left-click events.
func (cc *clickableContent) Tapped(ev *fyne.PointEvent) {
	if cc.canvas.onLeftClick == nil {
		return
	}
	if x, y, ok := cc.toImageCoords(ev.Position); ok {
		cc.canvas.onLeftClick(x, y)
	}
}

// TappedSecondary handles right-click events.
func (cc *clickableContent) TappedSecondary(ev *fyne.PointEvent) {
	if cc.canvas.onRightClick == nil {
		return
	}
	if x, y, ok := cc.toImageCoords(ev.Position); ok {
		cc.canvas.onRightClick(x, y)
	}
}

func (cc *clickableContent) MouseIn(ev *desktop.MouseEvent) {}

// MouseMoved reports the hovered image position for the live coordinate
// readout in the status bar.
func (cc *clickableContent) MouseMoved(ev *desktop.MouseEvent) {
	if cc.canvas.onHover == nil {
		return
	}
	if x, y, ok := cc.toImageCoords(ev.Position); ok {
		cc.canvas.onHover(x, y)
	}
}

func (cc *clickableContent) MouseOut() {}

func (cc *clickableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		cc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		cc.canvas.ZoomOut()
	}
}

// NewMapCanvas creates a new map canvas.
func NewMapCanvas() *MapCanvas {
	mc := &MapCanvas{
		zoom:    1.0,
		imgSize: fyne.NewSize(400, 300),
	}

	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels
	mc.raster.SetMinSize(mc.imgSize)

	mc.content = newClickableContent(mc, mc.raster)
	mc.scroll = newZoomScroll(mc.content, mc)

	mc.ExtendBaseWidget(mc)
	return mc
}

// Container returns the canvas container for embedding in layouts.
func (mc *MapCanvas) Container() fyne.CanvasObject {
	return mc.scroll
}

// SetLayer sets the map layer to display.
func (mc *MapCanvas) SetLayer(layer *mapimage.Layer) {
	mc.layer = layer
	mc.updateContentSize()
}

// SetMarkers sets the reference point markers.
func (mc *MapCanvas) SetMarkers(markers []Marker) {
	mc.markers = markers
	mc.Refresh()
}

// SetMeasureLine sets the measurement line endpoints, or clears it with nil.
func (mc *MapCanvas) SetMeasureLine(line *[2]geomath.PixelPoint) {
	mc.measureLine = line
	mc.Refresh()
}

// SetZoom sets the zoom level, clamped to the allowed range.
func (mc *MapCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	mc.zoom = zoom
	mc.updateContentSize()

	if mc.onZoomChange != nil {
		mc.onZoomChange(zoom)
	}
}

// GetZoom returns the current zoom level.
func (mc *MapCanvas) GetZoom() float64 {
	return mc.zoom
}

// ZoomIn increases the zoom level.
func (mc *MapCanvas) ZoomIn() {
	mc.SetZoom(mc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (mc *MapCanvas) ZoomOut() {
	mc.SetZoom(mc.zoom / zoomStep)
}

// FitToWindow adjusts zoom to fit the map in the visible area.
func (mc *MapCanvas) FitToWindow() {
	if mc.layer == nil || mc.layer.Width() == 0 || mc.layer.Height() == 0 {
		return
	}

	viewSize := mc.scroll.Size()
	if viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(mc.layer.Width())
	zoomY := float64(viewSize.Height) / float64(mc.layer.Height())

	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}

	mc.SetZoom(zoom * 0.95) // Leave a small margin
}

// SetFitToWindow enables or disables auto-fit on resize.
func (mc *MapCanvas) SetFitToWindow(fit bool) {
	mc.fitToWindow = fit
	if fit {
		mc.FitToWindow()
	}
}

// GetFitToWindow returns the current fit-to-window state.
func (mc *MapCanvas) GetFitToWindow() bool {
	return mc.fitToWindow
}

// OnZoomChange sets a callback for zoom changes.
func (mc *MapCanvas) OnZoomChange(callback func(zoom float64)) {
	mc.onZoomChange = callback
}

// OnLeftClick sets a callback for left clicks, in image coordinates.
func (mc *MapCanvas) OnLeftClick(callback func(x, y float64)) {
	mc.onLeftClick = callback
}

// OnRightClick sets a callback for right clicks, in image coordinates.
func (mc *MapCanvas) OnRightClick(callback func(x, y float64)) {
	mc.onRightClick = callback
}

// OnHover sets a callback for pointer movement, in image coordinates.
func (mc *MapCanvas) OnHover(callback func(x, y float64)) {
	mc.onHover = callback
}

// Refresh refreshes the canvas display.
func (mc *MapCanvas) Refresh() {
	mc.raster.Refresh()
}

// updateContentSize updates the content size based on image and zoom.
func (mc *MapCanvas) updateContentSize() {
	if mc.layer == nil || mc.layer.Width() == 0 || mc.layer.Height() == 0 {
		mc.imgSize = fyne.NewSize(400, 300)
	} else {
		width := float32(float64(mc.layer.Width()) * mc.zoom)
		height := float32(float64(mc.layer.Height()) * mc.zoom)
		mc.imgSize = fyne.NewSize(width, height)
	}

	mc.raster.SetMinSize(mc.imgSize)
	mc.raster.Resize(mc.imgSize)
	if mc.content != nil {
		mc.content.Resize(mc.imgSize)
		mc.content.Refresh()
	}
	mc.raster.Refresh()
	if mc.scroll != nil {
		mc.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (mc *MapCanvas) draw(w, h int) image.Image {
	currentSize := fyne.NewSize(float32(w), float32(h))
	if mc.fitToWindow && currentSize != mc.lastScrollSize && w > 0 && h > 0 {
		mc.lastScrollSize = currentSize
		go func() {
			mc.FitToWindow()
		}()
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// Opaque dark background
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	if mc.layer != nil && mc.layer.Image != nil && mc.layer.Visible {
		mc.compositeLayer(output, w, h)
	}

	for _, m := range mc.markers {
		drawCrosshair(output, int(m.Pixel.X*mc.zoom), int(m.Pixel.Y*mc.zoom), m.Color)
	}

	if mc.measureLine != nil {
		p1, p2 := mc.measureLine[0], mc.measureLine[1]
		lineColor := color.RGBA{R: 0xFF, G: 0xD5, B: 0x00, A: 0xFF}
		drawLine(output,
			int(p1.X*mc.zoom), int(p1.Y*mc.zoom),
			int(p2.X*mc.zoom), int(p2.Y*mc.zoom), lineColor)
		drawCrosshair(output, int(p1.X*mc.zoom), int(p1.Y*mc.zoom), lineColor)
		drawCrosshair(output, int(p2.X*mc.zoom), int(p2.Y*mc.zoom), lineColor)
	}

	return output
}

// compositeLayer draws the map layer onto the output with opacity.
func (mc *MapCanvas) compositeLayer(output *image.RGBA, w, h int) {
	src := mc.layer.Image
	srcBounds := src.Bounds()
	opacity := mc.layer.Opacity

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			srcX := int(float64(x)/mc.zoom) + srcBounds.Min.X
			srcY := int(float64(y)/mc.zoom) + srcBounds.Min.Y

			if srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X ||
				srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
				continue
			}

			srcColor := src.At(srcX, srcY)
			if opacity >= 0.999 {
				output.Set(x, y, srcColor)
				continue
			}

			sr, sg, sb, _ := srcColor.RGBA()
			dr, dg, db, _ := output.At(x, y).RGBA()
			inv := 1 - opacity
			output.Set(x, y, color.RGBA{
				R: uint8(float64(sr>>8)*opacity + float64(dr>>8)*inv),
				G: uint8(float64(sg>>8)*opacity + float64(dg>>8)*inv),
				B: uint8(float64(sb>>8)*opacity + float64(db>>8)*inv),
				A: 255,
			})
		}
	}
}

// CreateRenderer implements fyne.Widget.
func (mc *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &mapCanvasRenderer{canvas: mc}
}

type mapCanvasRenderer struct {
	canvas *MapCanvas
}

func (r *mapCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	}
	if r.canvas.fitToWindow && size.Width > 0 && size.Height > 0 &&
		size != r.canvas.lastScrollSize {
		r.canvas.lastScrollSize = size
		r.canvas.FitToWindow()
	}
}

func (r *mapCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *mapCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *mapCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *mapCanvasRenderer) Destroy() {}
