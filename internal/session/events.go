package session

import (
	"sync"

	"github.com/rileyhilliard/latensee/internal/rpc"
)

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EventState reports a connection state change. Err holds the cause of a
	// Degraded transition.
	EventState EventKind = iota
	// EventAlert reports something the operator should see once.
	EventAlert
	// EventConfig reports a committed DesiredConfig change.
	EventConfig
	// EventSample reports a sample added to the telemetry buffer.
	EventSample
	// EventMeasuring reports a change of the probe's measuring status.
	EventMeasuring
	// EventReady reports that a fresh link finished reconciling settings and
	// reading the measuring status. Err joins whatever failed along the way.
	EventReady
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventAlert:
		return "alert"
	case EventConfig:
		return "config"
	case EventSample:
		return "sample"
	case EventMeasuring:
		return "measuring"
	case EventReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Alert sources.
const (
	AlertProbe   = "probe"   // the probe reported an error
	AlertSync    = "sync"    // a setting couldn't be pushed
	AlertLocal   = "local"   // a local handler failed serving the probe
	AlertCommand = "command" // an operator command was rejected
)

// Alert is an operator-visible, one-shot notification.
type Alert struct {
	Source  string
	Message string
	Err     error
}

// Sample is one sample as it entered the buffer.
type Sample struct {
	Command             string
	LatencyMicroseconds float64
	Offset              uint64
}

// Event is delivered to subscribers. Only the fields matching Kind are set.
type Event struct {
	Kind      EventKind
	State     rpc.State
	Err       error
	Alert     Alert
	Config    DesiredConfig
	Sample    Sample
	Measuring bool
}

// broadcaster fans events out to subscribers. Subscribers are called
// synchronously, outside any lock, on the goroutine that published.
type broadcaster struct {
	mu   sync.Mutex
	next int
	subs []subscriber
}

type subscriber struct {
	id int
	fn func(Event)
}

func (b *broadcaster) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *broadcaster) publish(e Event) {
	b.mu.Lock()
	subs := append([]subscriber(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}
