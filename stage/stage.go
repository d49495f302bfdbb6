package stage

import (
	"log"
	"strings"
)

// Stage 标识流水线所处的阶段。
type Stage string

const (
	Start     Stage = "start"
	Analyzing Stage = "analyzing"
	Composing Stage = "composing"
	Done      Stage = "done"
	Fallback  Stage = "fallback"
)

// Event is one diagnostic emission from a pipeline component.
type Event struct {
	Stage     Stage
	Component string
	Message   string
	Err       error
}

// Observer receives stage events. Implementations must be safe for concurrent use
// when shared across requests.
type Observer interface {
	OnStage(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnStage(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) OnStage(Event) {}

// Nop discards every event.
var Nop Observer = nopObserver{}

// OrNop returns o, or Nop when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop
	}
	return o
}

type logObserver struct {
	logger  *log.Logger
	verbose bool
}

// LogObserver writes events to logger as "[component] stage: message". Events without an
// error are only written when verbose is set.
func LogObserver(logger *log.Logger, verbose bool) Observer {
	if logger == nil {
		logger = log.Default()
	}
	return &logObserver{logger: logger, verbose: verbose}
}

func (o *logObserver) OnStage(e Event) {
	if e.Err == nil && !o.verbose {
		return
	}
	var b strings.Builder
	if e.Component != "" {
		b.WriteString("[" + e.Component + "] ")
	}
	b.WriteString(string(e.Stage))
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		o.logger.Printf("[WARN] %s err=%v", b.String(), e.Err)
		return
	}
	o.logger.Printf("[INFO] %s", b.String())
}

// Recorder collects events in order. Not safe for concurrent use; create one per request.
type Recorder struct {
	Events []Event
}

func (r *Recorder) OnStage(e Event) { r.Events = append(r.Events, e) }

// Stages returns the recorded stage sequence.
func (r *Recorder) Stages() []Stage {
	out := make([]Stage, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Stage)
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) OnStage(e Event) {
	for _, o := range m {
		o.OnStage(e)
	}
}

// Multi fans every event out to each non-nil observer in order.
func Multi(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return Nop
	case 1:
		return m[0]
	}
	return m
}
