package payroll

import "fmt"

type PeriodStatus string

const (
	PeriodDraft      PeriodStatus = "draft"
	PeriodProcessing PeriodStatus = "processing"
	PeriodApproved   PeriodStatus = "approved"
	PeriodPaid       PeriodStatus = "paid"
	PeriodCancelled  PeriodStatus = "cancelled"
)

// periodTransitions lists every legal move. paid and cancelled are terminal.
var periodTransitions = map[PeriodStatus][]PeriodStatus{
	PeriodDraft:      {PeriodProcessing, PeriodApproved, PeriodCancelled},
	PeriodProcessing: {PeriodApproved, PeriodCancelled},
	PeriodApproved:   {PeriodPaid},
	PeriodPaid:       nil,
	PeriodCancelled:  nil,
}

func ParsePeriodStatus(raw string) (PeriodStatus, error) {
	s := PeriodStatus(raw)
	if _, ok := periodTransitions[s]; !ok {
		return "", fmt.Errorf("unknown payroll period status %q", raw)
	}
	return s, nil
}

func (s PeriodStatus) CanTransition(to PeriodStatus) bool {
	for _, allowed := range periodTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Calculable reports whether records may still be (re)computed.
func (s PeriodStatus) Calculable() bool {
	switch s {
	case PeriodDraft, PeriodProcessing:
		return true
	case PeriodApproved, PeriodPaid, PeriodCancelled:
		return false
	default:
		return false
	}
}

type RecordStatus string

const (
	RecordDraft    RecordStatus = "draft"
	RecordApproved RecordStatus = "approved"
	RecordPaid     RecordStatus = "paid"
)

func ParseRecordStatus(raw string) (RecordStatus, error) {
	switch s := RecordStatus(raw); s {
	case RecordDraft, RecordApproved, RecordPaid:
		return s, nil
	default:
		return "", fmt.Errorf("unknown payroll record status %q", raw)
	}
}

// recordStatusFor is the status a record takes when its period enters ps.
func recordStatusFor(ps PeriodStatus) (RecordStatus, bool) {
	switch ps {
	case PeriodApproved:
		return RecordApproved, true
	case PeriodPaid:
		return RecordPaid, true
	case PeriodDraft, PeriodProcessing, PeriodCancelled:
		return "", false
	default:
		return "", false
	}
}
