// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants for the event-loop engine.

package api

// HandleKind enumerates the resource variants a loop can monitor.
type HandleKind int

const (
	KindUnknown HandleKind = iota
	KindTCP
	KindUDP
	KindPipe
	KindTTY
	KindPoll
	KindTimer
	KindAsync
	KindIdle
	KindPrepare
	KindCheck
	KindSignal
	KindProcess
	KindFsEvent
	KindFile
)

func (k HandleKind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindUDP:
		return "udp"
	case KindPipe:
		return "pipe"
	case KindTTY:
		return "tty"
	case KindPoll:
		return "poll"
	case KindTimer:
		return "timer"
	case KindAsync:
		return "async"
	case KindIdle:
		return "idle"
	case KindPrepare:
		return "prepare"
	case KindCheck:
		return "check"
	case KindSignal:
		return "signal"
	case KindProcess:
		return "process"
	case KindFsEvent:
		return "fsevent"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// RunMode controls how Loop.Run drives iterations.
type RunMode int

const (
	// RunDefault iterates until there are no more active and referenced
	// handles or requests, or until Stop is called.
	RunDefault RunMode = iota
	// RunOnce performs a single iteration, blocking in the poller if
	// there is no pending work.
	RunOnce
	// RunNoWait performs a single iteration with a zero poll timeout.
	RunNoWait
)

// Events is a readiness bitmask reported by the platform poller.
type Events uint32

const (
	EventRead Events = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// Readable reports whether the mask includes read readiness.
func (e Events) Readable() bool { return e&(EventRead|EventHangup) != 0 }

// Writable reports whether the mask includes write readiness.
func (e Events) Writable() bool { return e&EventWrite != 0 }

// Ready is one poller wait result: a descriptor and its readiness mask.
type Ready struct {
	Fd     int
	Events Events
}
