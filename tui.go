package asset_shrinker

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/encoding"
	"github.com/mattn/go-runewidth"
)

// box drawing
const LineH = '━'
const LineV = '┃'
const TreeR = '┣'
const TreeL = '┫'
const Cross = '╋'

var defStyle = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
var rectStyle = defStyle.Dim(true)
var textStyle = defStyle
var waitingStyle = textStyle.Dim(true)
var errorStyle = textStyle.Foreground(tcell.ColorDarkRed)
var okStyle = textStyle.Foreground(tcell.ColorForestGreen)
var activeStyle = textStyle.Foreground(tcell.ColorGreen)

type Point struct {
	X, Y int
}

type Rect struct {
	X, Y          int
	Width, Height int
}

// Canvas is the part of tcell.Screen the drawing functions need, so that
// viewports can be nested.
type Canvas interface {
	SetContent(x int, y int, mainc rune, combc []rune, style tcell.Style)
	GetContent(x int, y int) (rune, []rune, tcell.Style, int)
	Size() (int, int)
}

type ViewPort struct {
	Canvas
	Rect
}

type TuiScrollArea struct {
	ScrollPosition int
	ScrollHeight   int
}

type UpdateEvent struct {
	tcell.EventTime
}

type Tui struct {
	Screen    tcell.Screen
	Processor *Processor

	Width, Height int

	filesView    TuiScrollArea
	messagesView TuiScrollArea

	currentEvent tcell.Event

	lock     sync.Mutex
	messages []string
	done     bool
	stats    ShrunkStats
}

func (tui *Tui) Init() error {
	encoding.Register()

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = s.Init(); err != nil {
		return err
	}
	s.SetStyle(defStyle)
	s.EnableMouse()

	tui.Screen = s
	tui.Width, tui.Height = s.Size()
	return nil
}

func (tui *Tui) Close() {
	tui.Screen.Fini()
}

// Loop handles events until the user presses Esc.
func (tui *Tui) Loop() {
	s := tui.Screen
	for {
		tui.currentEvent = s.PollEvent()
		switch ev := tui.currentEvent.(type) {
		case nil:
			return
		case *tcell.EventResize:
			tui.lock.Lock()
			tui.Width, tui.Height = ev.Size()
			tui.lock.Unlock()
			s.Sync()
			tui.Render()
		case *UpdateEvent:
			tui.Render()
		case *tcell.EventMouse:
			tui.Render()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape:
				return
			case tcell.KeyUp:
				tui.scroll(&tui.messagesView, (*TuiScrollArea).ScrollUp)
				tui.Render()
			case tcell.KeyDown:
				tui.scroll(&tui.messagesView, (*TuiScrollArea).ScrollDown)
				tui.Render()
			}
		}
	}
}

// scroll moves area under the lock Write follows the tail with.
func (tui *Tui) scroll(area *TuiScrollArea, move func(*TuiScrollArea)) {
	tui.lock.Lock()
	move(area)
	tui.lock.Unlock()
}

func (tui *Tui) Update() {
	var event UpdateEvent
	event.SetEventNow()
	_ = tui.Screen.PostEvent(&event)
}

// Finish records the final stats; the screen stays up until Esc.
func (tui *Tui) Finish(stats ShrunkStats) {
	tui.lock.Lock()
	tui.done = true
	tui.stats = stats
	tui.lock.Unlock()
	tui.Update()
}

func (tui *Tui) ExitCode() int {
	tui.lock.Lock()
	defer tui.lock.Unlock()
	if !tui.done || !tui.stats.AllSucceeded() {
		return 1
	}
	return 0
}

// Write makes the TUI usable as a log output; every line becomes a message.
func (tui *Tui) Write(p []byte) (int, error) {
	tui.lock.Lock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		tui.messages = append(tui.messages, line)
	}
	// follow the tail
	tui.messagesView.ScrollPosition = max(len(tui.messages)-tui.Height/3, 0)
	tui.lock.Unlock()
	tui.Update()
	return len(p), nil
}

func (tui *Tui) Render() {
	proc := tui.Processor
	proc.lock.Lock()
	defer proc.lock.Unlock()
	tui.lock.Lock()
	defer tui.lock.Unlock()

	maxFileNameLength := 0
	for index := range proc.Assets {
		maxFileNameLength = max(maxFileNameLength, runewidth.StringWidth(proc.Assets[index].Input))
	}

	tui.Screen.Clear()
	defer tui.Screen.Show()

	screenViewPort := AsViewPort(tui.Screen)
	filesViewPort, messagesViewPort := screenViewPort.SplitVf(0.6)
	{
		view := &tui.filesView
		view.ScrollHeight = len(proc.Assets)*2 + 2
		viewport := tui.IMScrollArea(view, filesViewPort)

		y := -view.ScrollPosition
		const x0 = 4
		for index := range proc.Assets {
			y++
			asset := &proc.Assets[index]
			x := x0 + maxFileNameLength + 3
			switch asset.Stage {
			case Waiting:
				Print(viewport, x0, y, waitingStyle, asset.Input)
				Printf(viewport, x, y, waitingStyle, "target %s", kilobytes(asset.Budget()))
			case Missing:
				Print(viewport, x0, y, waitingStyle, asset.Input)
				Print(viewport, x, y, waitingStyle, "missing, skipped")
			case ProcessingError:
				Print(viewport, x0, y, errorStyle, asset.Input)
				Print(viewport, x, y, errorStyle, fmt.Sprint(asset.Error))
			case ProcessingSuccess:
				Print(viewport, x0, y, okStyle, asset.Input)
				x = Printf(viewport, x, y, textStyle, "[%s] -> [%s] (%.1f%% saved) q%d",
					kilobytes(asset.Size), kilobytes(asset.ShrunkSize),
					SavedPercentage(asset.Size, asset.ShrunkSize), asset.Quality)
				if asset.Resized {
					Printf(viewport, x+2, y, activeStyle, "%dx%d", asset.Width, asset.Height)
				}
			case ProcessingInProgress:
				Print(viewport, x0, y, activeStyle, asset.Input)
				Printf(viewport, x, y, textStyle, "[%s] target %s", kilobytes(asset.Size), kilobytes(asset.Budget()))
				timePassed := FormatTime(time.Since(asset.StartTime).Seconds())
				Print(viewport, viewport.Width-1-len(timePassed), y, textStyle, timePassed)
			}
			y++
		}
		if tui.done {
			y++
			Print(viewport, x0, y, textStyle, tui.stats.ShrunkString()+"  (Esc to exit)")
		}
	}
	{
		view := &tui.messagesView
		view.ScrollHeight = len(tui.messages)
		viewport := tui.IMScrollArea(view, messagesViewPort)

		y := -view.ScrollPosition
		for _, message := range tui.messages {
			if y >= viewport.Height {
				break
			}
			if y >= 0 {
				Print(viewport, 0, y, defStyle, message)
			}
			y++
		}
	}
}

func FormatTime(s float64) string {
	seconds := int(s) % 60
	minutes := int(s/60) % 60
	hours := int(s / 3600)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func (area *TuiScrollArea) ScrollUp() {
	area.ScrollPosition--
	if area.ScrollPosition < 0 {
		area.ScrollPosition = 0
	}
}

func (area *TuiScrollArea) ScrollDown() {
	area.ScrollPosition++
	if area.ScrollPosition > area.ScrollHeight-1 {
		area.ScrollPosition = max(area.ScrollHeight-1, 0)
	}
}

func Printf(s Canvas, x, y int, style tcell.Style, format string, a ...any) int {
	return Print(s, x, y, style, fmt.Sprintf(format, a...))
}

// Print draws message starting at x and returns the column after it.
func Print(s Canvas, x, y int, style tcell.Style, message string) int {
	width, height := s.Size()
	if !(y >= 0 && y < height) {
		return x
	}
	for _, c := range message {
		if x > width {
			break
		}
		var comb []rune
		w := runewidth.RuneWidth(c)
		if w == 0 {
			comb = []rune{c}
			c = ' '
			w = 1
		}
		s.SetContent(x, y, c, comb, style)
		x += w
	}
	return x
}

func (v *ViewPort) SetContent(x int, y int, mainc rune, combc []rune, style tcell.Style) {
	if x < 0 || x >= v.Width || y < 0 || y >= v.Height {
		return
	}
	v.Canvas.SetContent(x+v.X, y+v.Y, mainc, combc, style)
}

func (v *ViewPort) GetContent(x int, y int) (rune, []rune, tcell.Style, int) {
	return v.Canvas.GetContent(x+v.X, y+v.Y)
}

func (v *ViewPort) GetRune(x int, y int) rune {
	r, _, _, _ := v.GetContent(x, y)
	return r
}

func (v *ViewPort) Size() (int, int) {
	return v.Width, v.Height
}

func MakeViewPort(canvas Canvas, rect Rect) *ViewPort {
	return &ViewPort{canvas, rect}
}

func AsViewPort(screen tcell.Screen) *ViewPort {
	var rect Rect
	rect.Width, rect.Height = screen.Size()
	return &ViewPort{screen, rect}
}

func MousePosition(ev *tcell.EventMouse) Point {
	x, y := ev.Position()
	return Point{X: x, Y: y}
}

// IMScrollArea handles mouse wheel events over vp and draws a scrollbar when
// the content does not fit. Returns the viewport left for the content.
func (tui *Tui) IMScrollArea(area *TuiScrollArea, vp *ViewPort) *ViewPort {
	if ev, ok := tui.currentEvent.(*tcell.EventMouse); ok {
		if RectContains(vp.Rect, MousePosition(ev)) {
			btns := ev.Buttons()
			if btns&tcell.WheelUp != 0 {
				area.ScrollUp()
			}
			if btns&tcell.WheelDown != 0 {
				area.ScrollDown()
			}
		}
	}

	if area.ScrollHeight <= vp.Height {
		return vp
	}

	const ScrollBarBG = ' '
	const ScrollBarFG = '▉'
	scrollBarStyle := rectStyle.Background(tcell.ColorGrey)

	x := vp.Width - 1
	for y := 0; y < vp.Height; y++ {
		vp.SetContent(x, y, ScrollBarBG, nil, scrollBarStyle)
	}
	if area.ScrollHeight > 0 {
		thumbY := int((float64(area.ScrollPosition) / float64(area.ScrollHeight)) * float64(vp.Height))
		vp.SetContent(x, thumbY, ScrollBarFG, nil, scrollBarStyle)
	}

	innerRect := Rect{Width: vp.Width - 1, Height: vp.Height}
	return MakeViewPort(vp, innerRect)
}

// SplitV splits the viewport at row `at`, drawing a horizontal line there.
func (v *ViewPort) SplitV(at int) (top *ViewPort, bottom *ViewPort) {
	top = MakeViewPort(v, Rect{Width: v.Width, Height: at})
	bottom = MakeViewPort(v, Rect{Y: at + 1, Width: v.Width, Height: v.Height - at - 1})

	// join with any vertical line already drawn at the edges
	var rLeft, rRight rune = LineH, LineH
	switch v.GetRune(0, at) {
	case LineV:
		rLeft = TreeR
	case TreeL:
		rLeft = Cross
	}
	switch v.GetRune(v.Width-1, at) {
	case LineV:
		rRight = TreeL
	case TreeR:
		rRight = Cross
	}
	v.SetContent(0, at, rLeft, nil, rectStyle)
	v.SetContent(v.Width-1, at, rRight, nil, rectStyle)
	for i := 1; i < v.Width-1; i++ {
		v.SetContent(i, at, LineH, nil, rectStyle)
	}
	return
}

func (v *ViewPort) SplitVf(at float64) (top *ViewPort, bottom *ViewPort) {
	return v.SplitV(int(float64(v.Height) * at))
}

func RectContains(rect Rect, point Point) bool {
	return point.X >= rect.X && point.X < rect.X+rect.Width &&
		point.Y >= rect.Y && point.Y < rect.Y+rect.Height
}
