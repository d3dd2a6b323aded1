package serial

import "time"

// watchdog wraps a one-shot timer bound to the current in-flight task.
// arm and disarm are only ever called with the serialiser mutex held, so the
// timer field needs no locking of its own. The fire callback runs on the
// timer's goroutine and must re-check the task generation itself.
type watchdog struct {
	timer *time.Timer
}

func (w *watchdog) arm(timeout time.Duration, fire func()) {
	w.disarm()
	w.timer = time.AfterFunc(timeout, fire)
}

func (w *watchdog) disarm() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
