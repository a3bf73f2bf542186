package syncer

import "fmt"

// Status is reported to the StatusFunc around every operation
type Status string

const (
	StatusSyncing  Status = "syncing"
	StatusSynced   Status = "synced"
	StatusError    Status = "error"
	StatusUnsynced Status = "unsynced"
)

// StatusFunc receives sync status changes with a short human readable message
type StatusFunc func(status Status, message string)

// OutcomeKind tags how far an operation got
type OutcomeKind int

const (
	// Synced means the local cache and the server both accepted the change
	Synced OutcomeKind = iota
	// LocalOnly means the local cache holds the result but the server does not
	LocalOnly
	// Failed means the local part of the operation did not happen
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Synced:
		return "synced"
	case LocalOnly:
		return "local_only"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of an orchestrator operation. Reason explains a
// LocalOnly or Failed outcome.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Kind.String()
	}
	return o.Kind.String() + ": " + o.Reason
}

// OK reports whether the local cache reflects the operation
func (o Outcome) OK() bool {
	return o.Kind != Failed
}

func synced() Outcome {
	return Outcome{Kind: Synced}
}

func localOnly(reason string) Outcome {
	return Outcome{Kind: LocalOnly, Reason: reason}
}

func failed(err error) Outcome {
	return Outcome{Kind: Failed, Reason: err.Error()}
}
