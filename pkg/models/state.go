package models

type Status string

const (
	Pending   Status = "pending"
	Running   Status = "running"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"  // dead state
	Aborted   Status = "aborted" // dead state, budget exhausted or canceled
)

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	switch s {
	case Succeeded, Failed, Aborted:
		return true
	}
	return false
}
