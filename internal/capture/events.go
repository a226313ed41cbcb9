package capture

import "time"

// Pass identifies one step of a file capture.
type Pass string

const (
	PassLoad     Pass = "load"
	PassRewrite  Pass = "rewrite"
	PassStage    Pass = "stage"
	PassValidate Pass = "validate"
	PassExport   Pass = "export"
)

// Status is the state of a file within a pass.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusCached  Status = "cached"
	StatusError   Status = "error"
)

// Event reports progress of one file.
type Event struct {
	File    string
	Pass    Pass
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink receives progress events. Implementations must be goroutine-safe.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

func emit(s Sink, ev Event) {
	if s != nil {
		s.OnEvent(ev)
	}
}
