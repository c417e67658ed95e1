package x11

import (
	"errors"
	"testing"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

const testSyncWindow = 99

func testMarker(seq uint32) xgb.Event {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: testSyncWindow,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{seq, 0, 0, 0, 0}),
	}
}

func isTestMarker(ev xgb.Event) (uint32, bool) {
	cm, ok := ev.(xproto.ClientMessageEvent)
	if !ok || cm.Window != testSyncWindow {
		return 0, false
	}
	return cm.Data.Data32[0], true
}

// startPump runs a pump over src. Closing src ends the pump.
func startPump(src <-chan xgb.Event) (*eventPump, *int) {
	notified := new(int)
	p := newEventPump(isTestMarker, func() { *notified++ }, nil)
	go p.run(func() (xgb.Event, xgb.Error) {
		ev, ok := <-src
		if !ok {
			return nil, nil
		}
		return ev, nil
	})
	return p, notified
}

func TestEventPump_AwaitDeliversEarlierEvents(t *testing.T) {
	src := make(chan xgb.Event)
	p, notified := startPump(src)
	defer close(src)

	// The server has already generated these when the marker is requested,
	// but they reach the pump only later.
	go func() {
		time.Sleep(20 * time.Millisecond)
		src <- xproto.ExposeEvent{Window: 5}
		src <- xproto.KeyPressEvent{Event: 5, Detail: 9}
		src <- testMarker(1)
	}()

	if _, ok := p.pop(); ok {
		t.Fatalf("pop() before the events arrived returned an event")
	}
	if err := p.await(1, time.Second); err != nil {
		t.Fatalf("await() error = %v", err)
	}

	var got []xgb.Event
	for {
		next, ok := p.pop()
		if !ok {
			break
		}
		got = append(got, next.ev)
	}
	if len(got) != 2 {
		t.Fatalf("queued %d events, want 2: %#v", len(got), got)
	}
	if _, ok := got[0].(xproto.ExposeEvent); !ok {
		t.Fatalf("first event = %T, want ExposeEvent", got[0])
	}
	if _, ok := got[1].(xproto.KeyPressEvent); !ok {
		t.Fatalf("second event = %T, want KeyPressEvent", got[1])
	}
	p.mu.Lock()
	n := *notified
	p.mu.Unlock()
	if n != 2 {
		t.Fatalf("notify called %d times, want 2 (markers must not notify)", n)
	}
}

func TestEventPump_AwaitSkipsStaleMarkers(t *testing.T) {
	src := make(chan xgb.Event, 3)
	p, _ := startPump(src)
	defer close(src)

	src <- testMarker(1)
	src <- xproto.ExposeEvent{Window: 1}
	src <- testMarker(2)

	if err := p.await(2, time.Second); err != nil {
		t.Fatalf("await(2) error = %v", err)
	}
	if _, ok := p.pop(); !ok {
		t.Fatalf("event between markers was not queued")
	}
	if _, ok := p.pop(); ok {
		t.Fatalf("marker was queued as an event")
	}
}

func TestEventPump_AwaitTimesOut(t *testing.T) {
	src := make(chan xgb.Event)
	p, _ := startPump(src)
	defer close(src)

	err := p.await(7, 10*time.Millisecond)
	if err == nil || errors.Is(err, ErrClosed) {
		t.Fatalf("await() error = %v, want a timeout", err)
	}
}

func TestEventPump_AwaitAfterCloseFails(t *testing.T) {
	src := make(chan xgb.Event)
	p, _ := startPump(src)
	close(src)
	p.wait()

	if err := p.await(1, time.Second); !errors.Is(err, ErrClosed) {
		t.Fatalf("await() error = %v, want ErrClosed", err)
	}
}

func TestEventPump_PopDrainsWhenEmpty(t *testing.T) {
	drained := 0
	p := newEventPump(nil, nil, func() { drained++ })
	if _, ok := p.pop(); ok {
		t.Fatalf("pop() on empty pump returned an event")
	}
	if drained != 1 {
		t.Fatalf("drain called %d times, want 1", drained)
	}
}
