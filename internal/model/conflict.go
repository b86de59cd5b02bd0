package model

// ConflictKind is a categorical reason a proposed booking cannot be committed.
type ConflictKind string

const (
	ConflictDoubleBooking    ConflictKind = "double_booking"
	ConflictStaffUnavailable ConflictKind = "staff_unavailable"
	ConflictBranchClosed     ConflictKind = "branch_closed"
)

// ConflictSet is the (possibly empty) set of conflicts found for a proposal.
// Conflicts are returned as data, never as errors, so callers can branch on
// specific kinds.
type ConflictSet []ConflictKind

// Add appends a kind if not already present.
func (s ConflictSet) Add(kind ConflictKind) ConflictSet {
	if s.Has(kind) {
		return s
	}
	return append(s, kind)
}

// Has reports whether the set contains the kind.
func (s ConflictSet) Has(kind ConflictKind) bool {
	for _, k := range s {
		if k == kind {
			return true
		}
	}
	return false
}

// Empty reports whether no conflicts were found.
func (s ConflictSet) Empty() bool { return len(s) == 0 }
