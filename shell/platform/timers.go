package platform

import (
	"sync"
	"time"

	"github.com/mawren/thicket/shell/core"
	"github.com/mawren/thicket/shell/task"
)

// hotReloadTimerID is the reserved logical timer driving the 200ms
// layout-rebuild cadence of hot-reload windows. TickTimerID is 1.
const hotReloadTimerID task.TimerID = 2

const hotReloadPeriod = 200 * time.Millisecond

// timerService arms periodic OS timers for one window. Each fire posts
// a timer message onto the application queue; the message loop runs the
// logical callback on the main thread.
type timerService struct {
	app *App
	win core.WindowID

	mu     sync.Mutex
	armed  map[task.TimerID]*time.Timer
	period map[task.TimerID]time.Duration
}

func newTimerService(app *App, win core.WindowID) *timerService {
	return &timerService{
		app:    app,
		win:    win,
		armed:  map[task.TimerID]*time.Timer{},
		period: map[task.TimerID]time.Duration{},
	}
}

func (s *timerService) Arm(id task.TimerID, period time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.armed[id]; t != nil {
		t.Stop()
	}
	s.period[id] = period
	s.armed[id] = time.AfterFunc(period, func() { s.fire(id) })
}

func (s *timerService) fire(id task.TimerID) {
	s.mu.Lock()
	period, live := s.period[id]
	if live {
		s.armed[id] = time.AfterFunc(period, func() { s.fire(id) })
	}
	s.mu.Unlock()
	if live {
		s.app.post(message{window: s.win, kind: msgTimer, timer: id})
	}
}

func (s *timerService) Cancel(id task.TimerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.armed[id]; t != nil {
		t.Stop()
	}
	delete(s.armed, id)
	delete(s.period, id)
}
