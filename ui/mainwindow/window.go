// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"map-georef/internal/app"
	"map-georef/internal/ocr"
	"map-georef/internal/project"
	"map-georef/internal/version"
	"map-georef/internal/warp"
	"map-georef/pkg/geomath"
	"map-georef/ui/canvas"
	"map-georef/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir     = "lastDirectory"
	prefKeyLastProject = "lastProject"

	// Margin label OCR crops this box, in image pixels, around a right-click.
	labelRegionWidth  = 200
	labelRegionHeight = 50

	exportMaxDim = 8192
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	canvas    *canvas.MapCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	posLabel  *widget.Label

	ocrEngine *ocr.Engine

	// Menu items that need state tracking
	fitToWindowItem *fyne.MenuItem
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow("Map Georeferencer")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMapCanvas()

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")
	mw.posLabel = widget.NewLabel("")

	mw.canvas.OnLeftClick(func(x, y float64) {
		mw.sidePanel.HandleClick(x, y)
	})
	mw.canvas.OnRightClick(func(x, y float64) {
		mw.onReadLabel(x, y)
	})
	mw.canvas.OnHover(func(x, y float64) {
		mw.updatePosition(x, y)
	})

	toolbar := mw.createToolbar()

	mw.restoreLastProject()

	canvasArea := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.posLabel, mw.statusBar)),
		nil,
		nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", func() {
		mw.onZoomOut()
	})
	zoomInBtn := widget.NewButton("+", func() {
		mw.onZoomIn()
	})
	fitBtn := widget.NewButton("Fit", func() {
		mw.onToggleFitToWindow()
	})
	actualBtn := widget.NewButton("1:1", func() {
		mw.onActualSize()
	})

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Map Image...", mw.onImportMap),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export North-Up Image...", mw.onExportNorthUp),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("  Fit to Window", mw.onToggleFitToWindow)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Clear Calibration", mw.onClearCalibration),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, viewMenu, toolsMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Map Georeferencer - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
		}
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Map Georeferencer - " + filepath.Base(path))
			mw.updateStatus("Project saved: " + path)
		}
	})

	mw.state.On(app.EventMapLoaded, func(data interface{}) {
		mw.canvas.SetLayer(mw.state.Map)
		mw.canvas.Refresh()
		mw.updateStatus("Map loaded")
	})

	mw.state.On(app.EventCalibrationChanged, func(data interface{}) {
		mw.sidePanel.RefreshMarkers()
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// updatePosition shows the hovered position, with geographic coordinates
// once calibrated.
func (mw *MainWindow) updatePosition(x, y float64) {
	if transform, ok := mw.state.Transform(); ok {
		g := transform.PixelToGeo(geomath.NewPixelPoint(x, y))
		mw.posLabel.SetText(fmt.Sprintf("%.5f, %.5f  (px %.0f, %.0f)", g.Lat, g.Lng, x, y))
		return
	}
	mw.posLabel.SetText(fmt.Sprintf("px %.0f, %.0f", x, y))
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	dir := filepath.Dir(filePath)
	mw.app.Preferences().SetString(prefKeyLastDir, dir)
}

// restoreLastProject reopens the project from the previous session.
func (mw *MainWindow) restoreLastProject() {
	path := mw.app.Preferences().String(prefKeyLastProject)
	if path == "" {
		return
	}
	if err := mw.state.LoadProject(path); err != nil {
		fmt.Printf("Failed to restore project %s: %v\n", path, err)
		return
	}
	mw.canvas.SetLayer(mw.state.Map)
	mw.sidePanel.RefreshMarkers()
	mw.state.SetModified(false)
}

// Menu action handlers

func (mw *MainWindow) onNewProject() {
	mw.state.ProjectPath = ""
	mw.state.ProjectName = ""
	mw.state.Map = nil
	mw.state.ResetCalibration()
	mw.state.SetModified(false)
	mw.canvas.SetLayer(nil)
	mw.SetTitle("Map Georeferencer - New Project")
	mw.canvas.Refresh()
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastProject, path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{project.Extension}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onImportMap() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		if err := mw.state.LoadMap(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter([]string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != project.Extension {
			path += project.Extension
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastProject, path)
	}, mw.Window)
	fd.SetFileName("map" + project.Extension)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// onExportNorthUp rectifies the calibrated map so north points straight up
// and writes it as a PNG.
func (mw *MainWindow) onExportNorthUp() {
	if mw.state.Map == nil || mw.state.Map.Image == nil {
		mw.updateStatus("Load a map image first")
		return
	}
	transform, ok := mw.state.Transform()
	if !ok {
		mw.updateStatus("Calibrate the map before exporting")
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".png" {
			path += ".png"
		}
		mw.saveLastDir(path)

		mw.updateStatus("Rectifying...")
		go func() {
			result, err := warp.RectifyNorthUp(mw.state.Map.Image, transform, exportMaxDim)
			if err != nil {
				mw.updateStatus("Rectification failed: " + err.Error())
				return
			}
			if err := writePNG(path, result.Image); err != nil {
				mw.updateStatus("Export failed: " + err.Error())
				return
			}
			mw.updateStatus(fmt.Sprintf("Exported %dx%d north-up image to %s",
				result.Width, result.Height, filepath.Base(path)))
		}()
	}, mw.Window)
	fd.SetFileName("northup.png")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// onReadLabel OCRs the printed coordinate label around a right-clicked map
// position. The result is shown for the user to copy into a reference point.
func (mw *MainWindow) onReadLabel(x, y float64) {
	if mw.state.Map == nil || mw.state.Map.Image == nil {
		return
	}

	if mw.ocrEngine == nil {
		engine, err := ocr.NewEngine()
		if err != nil {
			dialog.ShowError(fmt.Errorf("OCR unavailable: %w", err), mw.Window)
			return
		}
		mw.ocrEngine = engine
	}

	region := image.Rect(
		int(x)-labelRegionWidth/2, int(y)-labelRegionHeight/2,
		int(x)+labelRegionWidth/2, int(y)+labelRegionHeight/2,
	)

	mw.updateStatus("Reading label...")
	go func() {
		text, err := mw.ocrEngine.RecognizeRegion(mw.state.Map.Image, region)
		if err != nil {
			mw.updateStatus("Label read failed: " + err.Error())
			return
		}
		if value, err := ocr.ParseCoordinate(text); err == nil {
			mw.updateStatus(fmt.Sprintf("Label %q = %.5f°", text, value))
		} else {
			mw.updateStatus(fmt.Sprintf("Label %q (not a coordinate)", text))
		}
	}()
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.canvas.GetFitToWindow()
	mw.canvas.SetFitToWindow(enabled)

	if enabled {
		mw.fitToWindowItem.Label = "✓ Fit to Window"
	} else {
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.GetFitToWindow() {
		mw.canvas.SetFitToWindow(false)
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onClearCalibration() {
	dialog.ShowConfirm("Clear Calibration",
		"Remove all reference points?",
		func(ok bool) {
			if ok {
				mw.state.ResetCalibration()
			}
		}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Map Georeferencer",
		fmt.Sprintf("Map Georeferencer v%s\n\n"+
			"Calibrate scanned maps against geographic coordinates,\n"+
			"read positions under the cursor, and measure distances.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// Close releases resources held by the window.
func (mw *MainWindow) Close() {
	if mw.ocrEngine != nil {
		mw.ocrEngine.Close()
		mw.ocrEngine = nil
	}
	mw.Window.Close()
}
