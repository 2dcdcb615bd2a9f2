package main

import (
	"log"
	"strconv"
	"time"

	"github.com/mawren/thicket/shell/core"
	"github.com/mawren/thicket/shell/layout"
	"github.com/mawren/thicket/shell/platform"
	"github.com/mawren/thicket/shell/task"
)

// demoData is the shared application data threaded through every
// callback.
type demoData struct {
	clicks  int
	blinkOn bool
}

const (
	rootID layout.NodeID = iota + 1
	counterID
	buttonID
	blinkID
)

const blinkTimer task.TimerID = 10

func buildUI(data any) (*layout.Dom, core.CallbackMap) {
	d := data.(*demoData)

	root := layout.NewNode(rootID, layout.Style{
		WidthMode:  layout.SizeExpand,
		HeightMode: layout.SizeExpand,
		Direction:  layout.Vertical,
		Padding:    layout.Insets{L: 16, T: 16, R: 16, B: 16},
		Gap:        8,
		Background: [4]float32{0.12, 0.12, 0.14, 1},
	})

	counter := layout.NewNode(counterID, layout.Style{
		WidthMode:  layout.SizeExpand,
		HeightMode: layout.SizeFixed,
		Height:     32,
		Background: [4]float32{0.2, 0.2, 0.24, 1},
	})
	counter.Text = "clicks: 0"

	button := layout.NewNode(buttonID, layout.Style{
		WidthMode:  layout.SizeFixed,
		HeightMode: layout.SizeFixed,
		Width:      120,
		Height:     40,
		Background: [4]float32{0.25, 0.45, 0.85, 1},
		Cursor:     layout.CursorPointer,
	})
	button.Text = "click me"

	blink := layout.NewNode(blinkID, layout.Style{
		WidthMode:  layout.SizeFixed,
		HeightMode: layout.SizeFixed,
		Width:      24,
		Height:     24,
		Background: [4]float32{0.9, 0.3, 0.3, 1},
	})

	root.Children = []*layout.Node{counter, button, blink}

	cbs := core.CallbackMap{}
	cbs.Set(buttonID, core.KindMouseUp, func(info *core.CallbackInfo) core.Update {
		d.clicks++
		info.SetText(counterID, countText(d.clicks))
		return core.UpdateDoNothing
	})
	cbs.Set(buttonID, core.KindMouseEnter, func(info *core.CallbackInfo) core.Update {
		info.SetCSS(buttonID, layout.PropertyChange{Prop: layout.PropBackground, Value: 0.6})
		return core.UpdateDoNothing
	})
	cbs.Set(rootID, core.KindMouseDown, func(info *core.CallbackInfo) core.Update {
		info.StartTimer(blinkTimer, 500*time.Millisecond, func(info *core.CallbackInfo) core.Update {
			d.blinkOn = !d.blinkOn
			v := float32(0.3)
			if d.blinkOn {
				v = 0.9
			}
			info.SetCSS(blinkID, layout.PropertyChange{Prop: layout.PropBackground, Value: v})
			return core.UpdateDoNothing
		})
		return core.UpdateDoNothing
	})

	return &layout.Dom{Root: root}, cbs
}

func countText(n int) string {
	return "clicks: " + strconv.Itoa(n)
}

func main() {
	data := &demoData{}
	app := platform.NewApp(platform.NewGLFWHost(), data)

	_, err := app.CreateWindow(core.WindowOptions{
		Title:    "thicket sandbox",
		Size:     layout.Size{W: 800, H: 600},
		Visible:  true,
		Renderer: core.RendererAuto,
		VSync:    true,
		Layout:   core.LayoutSource{Build: buildUI, Generation: 1},
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
