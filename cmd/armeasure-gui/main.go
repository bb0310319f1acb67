package main

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/philipparndt/armeasure/internal/config"
	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/internal/storage/sqlite"
)

var columns = []string{"ID", "Plane", "Distance", "Label"}

// App shows exported pictures next to the stored measurements
type App struct {
	window   fyne.Window
	db       *sqlite.Store
	image    *canvas.Image
	status   *widget.Label
	table    *widget.Table
	list     *widget.List
	groups   []measurement.Group
	pictures []sqlite.Picture
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) > 1 {
		cfg.DBPath = os.Args[1]
	}

	a := app.New()
	w := a.NewWindow("armeasure")

	viewer := &App{window: w}
	if cfg.DBPath != "" {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		viewer.db = db
	}

	viewer.setupUI()
	viewer.reload()

	w.Resize(fyne.NewSize(1200, 800))
	w.ShowAndRun()
}

func (a *App) setupUI() {
	a.image = canvas.NewImageFromImage(nil)
	a.image.FillMode = canvas.ImageFillContain
	a.image.SetMinSize(fyne.NewSize(320, 480))

	a.status = widget.NewLabel("No picture loaded")

	a.list = widget.NewList(
		func() int { return len(a.pictures) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			p := a.pictures[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%s  %d/%d", p.TakenAt.Local().Format("01-02 15:04"), p.VisibleCount, p.MeasurementCount))
		},
	)
	a.list.OnSelected = func(id widget.ListItemID) {
		a.showPicture(a.pictures[id].Path)
	}

	a.table = widget.NewTable(
		func() (int, int) { return len(a.groups) + 1, len(columns) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(columns[id.Col])
				return
			}
			label.TextStyle = fyne.TextStyle{}
			label.SetText(cell(a.groups[id.Row-1], id.Col))
		},
	)
	a.table.SetColumnWidth(0, 60)
	a.table.SetColumnWidth(1, 160)
	a.table.SetColumnWidth(2, 100)
	a.table.SetColumnWidth(3, 160)

	openButton := widget.NewButton("Open Picture", a.showFileDialog)
	reloadButton := widget.NewButton("Reload", a.reload)

	sidebar := container.NewBorder(
		widget.NewLabel("Pictures"),
		container.NewVBox(openButton, reloadButton),
		nil, nil,
		a.list,
	)
	measurements := container.NewBorder(widget.NewLabel("Measurements"), nil, nil, nil, a.table)

	center := container.NewBorder(nil, a.status, nil, nil, a.image)
	split := container.NewHSplit(center, measurements)
	split.SetOffset(0.6)

	a.window.SetContent(container.NewBorder(nil, nil, sidebar, nil, split))
}

func cell(g measurement.Group, col int) string {
	switch col {
	case 0:
		return g.ID
	case 1:
		if g.PlaneID == "" {
			return "-"
		}
		return g.PlaneID
	case 2:
		return fmt.Sprintf("%.3f m", g.DistanceMeters)
	default:
		return g.Label
	}
}

// reload reads measurements and pictures from the database
func (a *App) reload() {
	if a.db == nil {
		a.status.SetText("No database, set ARMEASURE_DB_PATH or pass a path")
		return
	}

	ctx := context.Background()
	groups, err := a.db.LoadGroups(ctx)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	pictures, err := a.db.Pictures(ctx)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}

	a.groups = groups
	a.pictures = pictures
	a.table.Refresh()
	a.list.Refresh()
	if len(pictures) > 0 {
		a.list.Select(0)
	}
}

func (a *App) showFileDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		a.showPicture(reader.URI().Path())
	}, a.window)
	d.Show()
}

func (a *App) showPicture(path string) {
	if _, err := os.Stat(path); err != nil {
		dialog.ShowError(fmt.Errorf("failed to open picture: %w", err), a.window)
		return
	}
	a.image.File = path
	a.image.Image = nil
	a.image.Refresh()
	a.status.SetText(path)
}
