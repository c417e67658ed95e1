package x11

import (
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
)

type queuedEvent struct {
	ev  xgb.Event
	err xgb.Error
}

// eventPump moves events from a blocking source into a queue that can be
// drained without blocking.
//
// Sync markers travel the same stream as ordinary events. They are consumed
// here instead of queued, so once await sees a marker every event the
// server generated before it is already in the queue.
type eventPump struct {
	mu    sync.Mutex
	queue []queuedEvent

	// notify runs with mu held after an event is queued; drain runs with mu
	// held when pop finds the queue empty.
	notify func()
	drain  func()
	marker func(xgb.Event) (uint32, bool)

	marks chan uint32
	done  chan struct{}
}

func newEventPump(marker func(xgb.Event) (uint32, bool), notify, drain func()) *eventPump {
	return &eventPump{
		notify: notify,
		drain:  drain,
		marker: marker,
		marks:  make(chan uint32, 8),
		done:   make(chan struct{}),
	}
}

// run reads from wait until it reports a closed connection (nil, nil).
func (p *eventPump) run(wait func() (xgb.Event, xgb.Error)) {
	defer close(p.done)
	for {
		ev, xerr := wait()
		if ev == nil && xerr == nil {
			return
		}
		if ev != nil && p.marker != nil {
			if seq, ok := p.marker(ev); ok {
				select {
				case p.marks <- seq:
				default:
				}
				continue
			}
		}

		p.mu.Lock()
		p.queue = append(p.queue, queuedEvent{ev: ev, err: xerr})
		if p.notify != nil {
			p.notify()
		}
		p.mu.Unlock()
	}
}

// await blocks until the marker carrying seq has passed through run.
// Markers left over from an earlier, timed out wait are skipped.
func (p *eventPump) await(seq uint32, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case got := <-p.marks:
			if got == seq {
				return nil
			}
		case <-p.done:
			return ErrClosed
		case <-timer.C:
			return fmt.Errorf("sync marker %d not received within %s", seq, timeout)
		}
	}
}

func (p *eventPump) pop() (queuedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		if p.drain != nil {
			p.drain()
		}
		return queuedEvent{}, false
	}
	next := p.queue[0]
	p.queue[0] = queuedEvent{}
	p.queue = p.queue[1:]
	return next, true
}

// wait blocks until run has returned.
func (p *eventPump) wait() {
	<-p.done
}
