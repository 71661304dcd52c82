package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	FetchStarted Type = iota + 1
	FetchComplete
	FilterComplete
	VerifyStarted
	FileDamaged
	VerifyComplete
	RepairStarted
	FileRepaired
	RepairFailed
	RepairComplete
	Done
)

var typeNames = [...]string{
	FetchStarted:   "FetchStarted",
	FetchComplete:  "FetchComplete",
	FilterComplete: "FilterComplete",
	VerifyStarted:  "VerifyStarted",
	FileDamaged:    "FileDamaged",
	VerifyComplete: "VerifyComplete",
	RepairStarted:  "RepairStarted",
	FileRepaired:   "FileRepaired",
	RepairFailed:   "RepairFailed",
	RepairComplete: "RepairComplete",
	Done:           "Done",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string // relative path inside the installation
	Size      int64  // expected file size
	Total     int64  // file count (phase start/complete events)
	TotalSize int64  // byte count (phase start/complete events)
	Type      Type
	WorkerID  int
}
