//go:build gui

package gui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	meterCells = 48
	meterRows  = 2 // source level, output volume
	meterMinDB = -60.0
	meterMaxDB = 0.0
)

const (
	cellOff = iota
	cellLow
	cellNear
	cellHot
	cellMark
	cellVolume
)

var cellColors = []color.Color{
	color.RGBA{48, 48, 48, 255},    // off
	color.RGBA{50, 205, 50, 255},   // under target
	color.RGBA{255, 200, 0, 255},   // up to 6 dB over
	color.RGBA{215, 0, 0, 255},     // further over
	color.RGBA{255, 255, 255, 255}, // target marker
	color.RGBA{80, 140, 255, 255},  // output volume
}

// MeterWidget draws the source loudness against the target, with the
// output volume on a second row.
type MeterWidget struct {
	widget.BaseWidget
	mu       sync.Mutex
	estimate float64
	target   float64
	volume   float64
	silent   bool
}

func NewMeterWidget() *MeterWidget {
	m := &MeterWidget{silent: true, estimate: meterMinDB, target: -26, volume: meterMinDB}
	m.ExtendBaseWidget(m)
	return m
}

// Set updates the levels; call Refresh on the fyne goroutine afterwards.
func (m *MeterWidget) Set(estimate, target, volume float64, silent bool) {
	m.mu.Lock()
	m.estimate, m.target, m.volume, m.silent = estimate, target, volume, silent
	m.mu.Unlock()
}

func (m *MeterWidget) MinSize() fyne.Size {
	return fyne.NewSize(float32(meterCells*7), float32(meterRows*14))
}

func (m *MeterWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &meterRenderer{meter: m}
	r.rects = make([][]*canvas.Rectangle, meterRows)
	for y := range meterRows {
		r.rects[y] = make([]*canvas.Rectangle, meterCells)
		for x := range meterCells {
			r.rects[y][x] = canvas.NewRectangle(cellColors[cellOff])
		}
	}
	return r
}

type meterRenderer struct {
	meter *MeterWidget
	rects [][]*canvas.Rectangle
}

func (r *meterRenderer) Layout(size fyne.Size) {
	cellW := size.Width / float32(meterCells)
	cellH := size.Height / float32(meterRows)
	for y := range meterRows {
		for x := range meterCells {
			// 1px gap between cells
			r.rects[y][x].Move(fyne.NewPos(float32(x)*cellW, float32(y)*cellH))
			r.rects[y][x].Resize(fyne.NewSize(cellW-1, cellH-1))
		}
	}
}

func (r *meterRenderer) MinSize() fyne.Size {
	return r.meter.MinSize()
}

func (r *meterRenderer) Refresh() {
	r.meter.mu.Lock()
	est, target, vol, silent := r.meter.estimate, r.meter.target, r.meter.volume, r.meter.silent
	r.meter.mu.Unlock()

	rows := [meterRows][]int{
		computeCells(est, target, silent),
		volumeCells(vol),
	}
	for y := range meterRows {
		for x := range meterCells {
			r.rects[y][x].FillColor = cellColors[rows[y][x]]
			r.rects[y][x].Refresh()
		}
	}
}

func (r *meterRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, meterCells*meterRows)
	for y := range meterRows {
		for x := range meterCells {
			objs = append(objs, r.rects[y][x])
		}
	}
	return objs
}

func (r *meterRenderer) Destroy() {}

// cellDB is the level at the centre of cell i.
func cellDB(i int) float64 {
	return meterMinDB + (float64(i)+0.5)*(meterMaxDB-meterMinDB)/meterCells
}

// cellIndex is the cell containing db, clamped to the meter.
func cellIndex(db float64) int {
	i := int((db - meterMinDB) / (meterMaxDB - meterMinDB) * meterCells)
	return max(0, min(meterCells-1, i))
}

// computeCells lights the source row up to the estimate, coloured by
// distance above the target, and marks the target cell.
func computeCells(estimate, target float64, silent bool) []int {
	cells := make([]int, meterCells)
	if !silent {
		for i := range cells {
			db := cellDB(i)
			switch {
			case db > estimate:
				cells[i] = cellOff
			case db <= target:
				cells[i] = cellLow
			case db <= target+6:
				cells[i] = cellNear
			default:
				cells[i] = cellHot
			}
		}
	}
	cells[cellIndex(target)] = cellMark
	return cells
}

func volumeCells(volume float64) []int {
	cells := make([]int, meterCells)
	for i := range cells {
		if cellDB(i) <= volume {
			cells[i] = cellVolume
		}
	}
	return cells
}
