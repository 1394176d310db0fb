package constants

// ImportState is the lifecycle state of a reconciliation session.
type ImportState string

// Stable values (returned over the API).
const (
	ImportIdle                ImportState = "IDLE"
	ImportAwaitingSelection   ImportState = "AWAITING_SELECTION"
	ImportCommitting          ImportState = "COMMITTING"
	ImportCompleted           ImportState = "COMPLETED"
	ImportCompletedWithErrors ImportState = "COMPLETED_WITH_ERRORS" // at least one item failed
)

// Terminal reports whether no further transitions are possible.
func (s ImportState) Terminal() bool {
	return s == ImportCompleted || s == ImportCompletedWithErrors
}
