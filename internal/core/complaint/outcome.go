package complaint

// RepairResult is the result a technician declares on a repair report.
type RepairResult string

const (
	ResultFixed        RepairResult = "FIXED"
	ResultReplaced     RepairResult = "REPLACED"
	ResultNoFaultFound RepairResult = "NO_FAULT_FOUND"
	ResultMonitoring   RepairResult = "MONITORING"
)

// ParseRepairResult converts a user-supplied string into a RepairResult.
func ParseRepairResult(s string) (RepairResult, error) {
	switch r := RepairResult(s); r {
	case ResultFixed, ResultReplaced, ResultNoFaultFound, ResultMonitoring:
		return r, nil
	}
	return "", Errorf(KindInvalidTransition,
		"unknown repair result %q (want FIXED, REPLACED, NO_FAULT_FOUND or MONITORING)", s)
}

// OutcomeFor picks the terminal milestone that follows RR_CREATED.
// MONITORING keeps the case under observation; every other result completes it.
func OutcomeFor(result RepairResult) TransitionRequest {
	if result == ResultMonitoring {
		return MarkMonitoring()
	}
	return MarkCompleted()
}
