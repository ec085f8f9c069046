package tui

import "time"

// MsgInitTargets announces the planned targets in execution order.
type MsgInitTargets struct {
	Targets      []string
	Dependencies map[string][]string
	Requested    []string
}

// MsgTargetStart reports that a target began executing.
type MsgTargetStart struct {
	SpanID    string
	ParentID  string
	Name      string
	StartTime time.Time
}

// MsgTargetLog carries a chunk of target output.
type MsgTargetLog struct {
	SpanID string
	Data   []byte
}

// MsgTargetComplete reports that a target finished. Err is nil on success.
type MsgTargetComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}
