// Package task reconciles logical timers and background tasks onto OS
// timer primitives. The supervisor never runs callbacks itself: it only
// starts and stops the polling that makes the shell run them.
package task

import (
	"math"
	"time"
)

// TimerID identifies one logical timer.
type TimerID uint64

// TaskID identifies one logical background task.
type TaskID uint64

// TickTimerID is the reserved OS timer id used to poll background
// tasks while any are live.
const TickTimerID TimerID = 1

// FirstUserTimerID is the start of the application timer id space.
// Ids below it are reserved for shell-internal timers; application
// ids are offset past it so the two can never collide.
const FirstUserTimerID TimerID = 16

// TickPeriod is the coalescing poll interval for background tasks.
const TickPeriod = 16 * time.Millisecond

// MaxPeriod is the longest interval the OS timer primitive can
// represent (32-bit milliseconds); requested periods are clamped to it.
const MaxPeriod = time.Duration(math.MaxUint32) * time.Millisecond

// TimerService is the OS timer collaborator: arm or cancel a periodic
// timer by id. Arming an armed id re-arms it at the new period.
type TimerService interface {
	Arm(id TimerID, period time.Duration)
	Cancel(id TimerID)
}

// Supervisor maps logical timers 1:1 onto OS timers and keeps one
// shared tick timer alive exactly while the task table is non-empty.
type Supervisor struct {
	svc    TimerService
	timers map[TimerID]time.Duration
	tasks  map[TaskID]struct{}
	tick   bool
}

func NewSupervisor(svc TimerService) *Supervisor {
	return &Supervisor{
		svc:    svc,
		timers: make(map[TimerID]time.Duration),
		tasks:  make(map[TaskID]struct{}),
	}
}

// Reconcile applies timer/task table deltas. Removing an unknown id is
// a no-op; calling with empty sets changes nothing.
func (s *Supervisor) Reconcile(
	addedTimers map[TimerID]time.Duration,
	removedTimers []TimerID,
	addedTasks []TaskID,
	removedTasks []TaskID,
) {
	for id, period := range addedTimers {
		if period <= 0 {
			period = TickPeriod
		}
		if period > MaxPeriod {
			period = MaxPeriod
		}
		s.timers[id] = period
		s.svc.Arm(id, period)
	}
	for _, id := range removedTimers {
		if _, ok := s.timers[id]; ok {
			delete(s.timers, id)
			s.svc.Cancel(id)
		}
	}

	for _, id := range addedTasks {
		s.tasks[id] = struct{}{}
	}
	for _, id := range removedTasks {
		delete(s.tasks, id)
	}

	// the tick timer exists iff the task table is non-empty; never
	// re-arm it while it is already running
	switch {
	case len(s.tasks) > 0 && !s.tick:
		s.svc.Arm(TickTimerID, TickPeriod)
		s.tick = true
	case len(s.tasks) == 0 && s.tick:
		s.svc.Cancel(TickTimerID)
		s.tick = false
	}
}

// TickRunning reports whether the shared task poll timer is armed.
func (s *Supervisor) TickRunning() bool { return s.tick }

// TimerCount reports the number of live logical timers.
func (s *Supervisor) TimerCount() int { return len(s.timers) }

// TaskCount reports the number of live background tasks.
func (s *Supervisor) TaskCount() int { return len(s.tasks) }

// Shutdown cancels every armed timer including the tick timer.
func (s *Supervisor) Shutdown() {
	for id := range s.timers {
		s.svc.Cancel(id)
	}
	s.timers = make(map[TimerID]time.Duration)
	if s.tick {
		s.svc.Cancel(TickTimerID)
		s.tick = false
	}
	s.tasks = make(map[TaskID]struct{})
}
