package reconcile

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
)

// ErrCommitInProgress is returned by operations that cannot run while a commit is running.
var ErrCommitInProgress = fmt.Errorf("%w: import is already being committed", common.ErrConflict)

// ErrNotAwaitingSelection is returned when selection or commit is attempted outside AwaitingSelection.
var ErrNotAwaitingSelection = fmt.Errorf("%w: import is not awaiting selection", common.ErrConflict)

// Candidate is a parsed bill plus its selection flag.
type Candidate struct {
	llm.ParsedBill
	Selected bool `json:"selected"`
}

// Session is one user's reconciliation of a single paste. Safe for concurrent use.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	mu         sync.Mutex
	state      constants.ImportState
	candidates []Candidate
	report     *entity.ImportReport
	noneFound  bool
}

// NewSession returns an Idle session.
func NewSession(id, userID string, now time.Time) *Session {
	return &Session{ID: id, UserID: userID, CreatedAt: now, state: constants.ImportIdle}
}

// Present loads validator output. Every candidate starts selected. An empty list leaves the
// session Idle and reports false ("no bills found").
func (s *Session) Present(bills []llm.ParsedBill) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == constants.ImportCommitting {
		return false, ErrCommitInProgress
	}
	s.report = nil
	s.candidates = nil
	s.noneFound = len(bills) == 0
	if s.noneFound {
		s.state = constants.ImportIdle
		return false, nil
	}
	s.candidates = make([]Candidate, len(bills))
	for i, b := range bills {
		b.Index = i
		s.candidates[i] = Candidate{ParsedBill: b, Selected: true}
	}
	s.state = constants.ImportAwaitingSelection
	return true, nil
}

// SetSelected sets the selection flag of the candidate at index.
func (s *Session) SetSelected(index int, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != constants.ImportAwaitingSelection {
		return ErrNotAwaitingSelection
	}
	if index < 0 || index >= len(s.candidates) {
		return &common.ValidationError{Field: "index", Value: index, Message: fmt.Sprintf("must be between 0 and %d", len(s.candidates)-1)}
	}
	s.candidates[index].Selected = selected
	return nil
}

// Toggle flips the selection of the candidate at index and returns the new value.
func (s *Session) Toggle(index int) (bool, error) {
	s.mu.Lock()
	if s.state != constants.ImportAwaitingSelection {
		s.mu.Unlock()
		return false, ErrNotAwaitingSelection
	}
	if index < 0 || index >= len(s.candidates) {
		s.mu.Unlock()
		return false, &common.ValidationError{Field: "index", Value: index, Message: "out of range"}
	}
	s.candidates[index].Selected = !s.candidates[index].Selected
	v := s.candidates[index].Selected
	s.mu.Unlock()
	return v, nil
}

// DeselectMatching deselects every candidate with the given name and amount and returns how
// many were affected. Two distinct candidates sharing both fields are deselected together;
// prefer SetSelected.
func (s *Session) DeselectMatching(name string, amount float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != constants.ImportAwaitingSelection {
		return 0, ErrNotAwaitingSelection
	}
	n := 0
	for i := range s.candidates {
		c := &s.candidates[i]
		if c.Name == name && c.Amount == amount && c.Selected {
			c.Selected = false
			n++
		}
	}
	return n, nil
}

// SetAll selects or deselects every candidate.
func (s *Session) SetAll(selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != constants.ImportAwaitingSelection {
		return ErrNotAwaitingSelection
	}
	for i := range s.candidates {
		s.candidates[i].Selected = selected
	}
	return nil
}

// Reset abandons the session and returns it to Idle. Not allowed once a commit has started.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == constants.ImportCommitting {
		return ErrCommitInProgress
	}
	s.state = constants.ImportIdle
	s.candidates = nil
	s.report = nil
	s.noneFound = false
	return nil
}

// beginCommit moves AwaitingSelection → Committing and returns the selected candidates in
// presentation order. On a precondition failure the state is unchanged.
func (s *Session) beginCommit() ([]llm.ParsedBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case constants.ImportAwaitingSelection:
	case constants.ImportCommitting:
		return nil, ErrCommitInProgress
	default:
		return nil, ErrNotAwaitingSelection
	}

	selected := make([]llm.ParsedBill, 0, len(s.candidates))
	for _, c := range s.candidates {
		if c.Selected {
			selected = append(selected, c.ParsedBill)
		}
	}
	if len(selected) == 0 {
		return nil, &common.NoSelectionError{}
	}
	s.state = constants.ImportCommitting
	return selected, nil
}

func (s *Session) finishCommit(report *entity.ImportReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.report = report
	if report.ErrorCount > 0 {
		s.state = constants.ImportCompletedWithErrors
	} else {
		s.state = constants.ImportCompleted
	}
}

// State returns the current lifecycle state.
func (s *Session) State() constants.ImportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View is a point-in-time copy of a session for rendering.
type View struct {
	ID            string                `json:"id"`
	State         constants.ImportState `json:"state"`
	Candidates    []Candidate           `json:"candidates"`
	SelectedCount int                   `json:"selectedCount"`
	Report        *entity.ImportReport  `json:"report,omitempty"`
	Message       string                `json:"message,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:         s.ID,
		State:      s.state,
		Candidates: append([]Candidate(nil), s.candidates...),
		Report:     s.report,
	}
	if v.Candidates == nil {
		v.Candidates = []Candidate{}
	}
	for _, c := range s.candidates {
		if c.Selected {
			v.SelectedCount++
		}
	}
	if s.noneFound {
		v.Message = "no bills found"
	}
	return v
}

// IsPrecondition reports whether err is a user-correctable commit precondition failure.
func IsPrecondition(err error) bool {
	var (
		auth *common.AuthRequiredError
		none *common.NoSelectionError
	)
	return errors.As(err, &auth) || errors.As(err, &none)
}
