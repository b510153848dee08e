// Package complaint contains the pure business logic for the complaint case workflow.
// This is part of the Functional Core - no I/O, only pure functions.
package complaint

import "fmt"

// Status represents the possible states of a case.
type Status string

const (
	StatusReported   Status = "REPORTED"
	StatusPSPCreated Status = "PSP_CREATED"
	StatusSPKCreated Status = "SPK_CREATED"
	StatusRRCreated  Status = "RR_CREATED"
	StatusCompleted  Status = "COMPLETED"
	StatusMonitoring Status = "MONITORING"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{
	StatusReported,
	StatusPSPCreated,
	StatusSPKCreated,
	StatusRRCreated,
	StatusCompleted,
	StatusMonitoring,
}

// forwardEdges is the set of transitions reachable through milestone requests.
// The SPK_CREATED -> PSP_CREATED revision edge is deliberately absent; it is
// only reachable through NeedsRevision.
var forwardEdges = map[Status]map[Status]bool{
	StatusReported:   {StatusReported: true, StatusPSPCreated: true},
	StatusPSPCreated: {StatusSPKCreated: true},
	StatusSPKCreated: {StatusRRCreated: true},
	StatusRRCreated:  {StatusCompleted: true, StatusMonitoring: true},
}

// ParseStatus converts a stored or user-supplied string into a Status.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown case status %q", s)
}

// InitialStatus returns the status every new case starts in.
func InitialStatus() Status {
	return StatusReported
}

// IsTerminal reports whether no forward transition leaves the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusMonitoring
}

// IsValidTransition checks if a forward status transition is legal.
func IsValidTransition(from, to Status) bool {
	targets, ok := forwardEdges[from]
	if !ok {
		return false
	}
	return targets[to]
}

// IsRevisionTransition reports whether from -> to is the single backward edge.
func IsRevisionTransition(from, to Status) bool {
	return from == StatusSPKCreated && to == StatusPSPCreated
}

// AllowedTargets returns the forward targets of a status, in workflow order.
func AllowedTargets(from Status) []Status {
	var out []Status
	for _, st := range AllStatuses {
		if IsValidTransition(from, st) {
			out = append(out, st)
		}
	}
	return out
}
