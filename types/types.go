package types

// ---- Node state (retained) ----

type NodeState struct {
	Level  string `json:"level"`  // "cold_start", "measuring", "sleeping"
	Status string `json:"status"` // short code from errcode
	TS     int64  `json:"ts_ms"`
}

// Link is the link/state reported for a sensor.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

// ErrorReply answers a request that could not be served.
type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
