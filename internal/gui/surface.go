package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	SurfaceMinWidth  = 800
	SurfaceMinHeight = 600
)

// Surface is the interactive image area. It forwards scroll, drag and
// hover events to the controller through callbacks so all view-state
// logic stays outside the widget.
type Surface struct {
	widget.BaseWidget

	img *canvas.Image

	onScroll func(direction int)
	onDrag   func(dx, dy float64)
	onHover  func(x, y int)
	onLeave  func()
}

var _ fyne.Scrollable = (*Surface)(nil)
var _ fyne.Draggable = (*Surface)(nil)
var _ desktop.Hoverable = (*Surface)(nil)

func NewSurface(onScroll func(int), onDrag func(float64, float64), onHover func(int, int), onLeave func()) *Surface {
	s := &Surface{
		onScroll: onScroll,
		onDrag:   onDrag,
		onHover:  onHover,
		onLeave:  onLeave,
	}
	s.img = canvas.NewImageFromImage(nil)
	s.img.FillMode = canvas.ImageFillContain
	s.img.SetMinSize(fyne.NewSize(SurfaceMinWidth, SurfaceMinHeight))
	s.ExtendBaseWidget(s)
	return s
}

func (s *Surface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.img)
}

// SetImage swaps the displayed picture. Safe to call from any goroutine.
func (s *Surface) SetImage(img image.Image) {
	fyne.Do(func() {
		s.img.Image = img
		s.img.Refresh()
	})
}

// ViewSize reports the current drawable extent in pixels.
func (s *Surface) ViewSize() (int, int) {
	sz := s.Size()
	w, h := int(sz.Width), int(sz.Height)
	if w < 1 {
		w = SurfaceMinWidth
	}
	if h < 1 {
		h = SurfaceMinHeight
	}
	return w, h
}

func (s *Surface) Scrolled(ev *fyne.ScrollEvent) {
	if s.onScroll == nil {
		return
	}
	if ev.Scrolled.DY > 0 {
		s.onScroll(1)
	} else if ev.Scrolled.DY < 0 {
		s.onScroll(-1)
	}
}

func (s *Surface) Dragged(ev *fyne.DragEvent) {
	if s.onDrag != nil {
		s.onDrag(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
	}
}

func (s *Surface) DragEnd() {}

func (s *Surface) MouseIn(*desktop.MouseEvent) {}

func (s *Surface) MouseMoved(ev *desktop.MouseEvent) {
	if s.onHover != nil {
		s.onHover(int(ev.Position.X), int(ev.Position.Y))
	}
}

func (s *Surface) MouseOut() {
	if s.onLeave != nil {
		s.onLeave()
	}
}
