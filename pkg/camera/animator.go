package camera

import (
	"sync"
	"time"
)

// DefaultZoomDuration is how long a camera transition takes.
const DefaultZoomDuration = 900 * time.Millisecond

// EaseOutCubic maps linear progress u in [0, 1] onto the ease-out-cubic
// timing curve: fast start, gentle landing.
func EaseOutCubic(u float64) float64 {
	if u <= 0 {
		return 0
	}
	if u >= 1 {
		return 1
	}
	v := 1 - u
	return 1 - v*v*v
}

// Animator runs one camera transition at a time. Starting a new transition
// cancels and replaces any in-flight one; transitions never compose. The
// animator is a pure stepper: the host event loop decides when to call Step
// and feeds it the clock, so the same code drives a terminal tick loop and
// tests with a fake clock.
type Animator struct {
	from     Camera
	to       Camera
	start    time.Time
	duration time.Duration
	active   bool
}

// NewAnimator returns an idle animator.
func NewAnimator() *Animator {
	return &Animator{duration: DefaultZoomDuration}
}

// SetDuration overrides the transition length. Non-positive durations make
// every transition complete on the first Step.
func (a *Animator) SetDuration(d time.Duration) {
	a.duration = d
}

// Active reports whether a transition is in flight.
func (a *Animator) Active() bool {
	return a.active
}

// Target returns the camera the current or last transition is heading for.
func (a *Animator) Target() Camera {
	return a.to
}

// AnimateTo starts a transition from the given camera towards target,
// replacing any transition already in flight.
func (a *Animator) AnimateTo(from, target Camera, now time.Time) {
	a.from = from
	a.to = target
	a.start = now
	a.active = true
}

// Cancel stops the in-flight transition, leaving the camera wherever the
// last Step put it.
func (a *Animator) Cancel() {
	a.active = false
}

// Step returns the camera for the given instant and whether the transition
// has finished. On completion the returned camera is exactly the target; no
// easing residue is left behind. Stepping an idle animator returns the
// target unchanged and done = true.
func (a *Animator) Step(now time.Time) (Camera, bool) {
	if !a.active {
		return a.to, true
	}
	elapsed := now.Sub(a.start)
	if a.duration <= 0 || elapsed >= a.duration {
		a.active = false
		return a.to, true
	}
	u := EaseOutCubic(float64(elapsed) / float64(a.duration))
	return Camera{
		K: a.from.K + (a.to.K-a.from.K)*u,
		X: a.from.X + (a.to.X-a.from.X)*u,
		Y: a.from.Y + (a.to.Y-a.from.Y)*u,
	}, false
}

// Scheduler abstracts the host's repeating-callback facility so the
// animation loops can run on any event loop. Schedule arranges for fn to be
// called roughly every interval until the returned cancel function runs.
// Implementations decide the delivery context; callers must treat fn as
// running on the scheduler's loop.
type Scheduler interface {
	Schedule(interval time.Duration, fn func(now time.Time)) (cancel func())
}

// TickerScheduler is a Scheduler on a plain time.Ticker goroutine. The
// terminal UI does not use it (bubbletea ticks arrive as messages); it
// serves headless hosts and tests.
type TickerScheduler struct{}

// Schedule implements Scheduler.
func (TickerScheduler) Schedule(interval time.Duration, fn func(now time.Time)) func() {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case now := <-ticker.C:
				fn(now)
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
