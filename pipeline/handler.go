package pipeline

import (
	"fmt"
	"time"
)

// Handler receives the engine's callbacks. OnNewResult and OnDraw are
// invoked from streaming threads and may run concurrently with each other.
type Handler interface {
	// OnNewResult is called with the raw output of the inference branch.
	OnNewResult(r Result)

	// OnDraw is called with each frame just before it is displayed. The
	// handler may draw into f.Data in place.
	OnDraw(f *Frame)

	// OnCapsChanged is called when the display branch negotiates a new format.
	OnCapsChanged(info VideoInfo)

	// OnStatusMessage is called from the bus monitor for each bus message.
	OnStatusMessage(m StatusMessage)
}

// Result is one inference output buffer.
type Result struct {
	Data     []byte
	TraceID  string
	Received time.Time
	Preroll  bool
}

// Frame is a decoded BGR display frame.
type Frame struct {
	Seq  uint64
	Data []byte
	Info VideoInfo
}

type VideoInfo struct {
	Width  int
	Height int
	Format string
}

func (v VideoInfo) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

func (v VideoInfo) String() string {
	return fmt.Sprintf("%s %dx%d", v.Format, v.Width, v.Height)
}

type StatusType int

const (
	StatusOther StatusType = iota
	StatusStreamStart
	StatusEOS
	StatusError
	StatusWarning
	StatusQoS
	StatusStateChanged
	StatusAsyncDone
)

func (t StatusType) String() string {
	switch t {
	case StatusStreamStart:
		return "stream-start"
	case StatusEOS:
		return "eos"
	case StatusError:
		return "error"
	case StatusWarning:
		return "warning"
	case StatusQoS:
		return "qos"
	case StatusStateChanged:
		return "state-changed"
	case StatusAsyncDone:
		return "async-done"
	default:
		return "other"
	}
}

// StatusMessage is a bus message translated out of the engine's types.
type StatusMessage struct {
	Type   StatusType
	Source string
	// Name is the engine's own name for the message type.
	Name string

	// Set for StatusError and StatusWarning.
	Err *BusError

	// Set for StatusStateChanged.
	OldState, NewState string
	// FromPipeline is true when the state change is of the top-level pipeline.
	FromPipeline bool

	// Set for StatusQoS.
	Processed, Dropped uint64
}

// Fatal reports whether the message ends the stream.
func (m StatusMessage) Fatal() bool {
	return m.Type == StatusEOS || m.Type == StatusError
}
