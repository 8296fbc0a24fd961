package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"modelhub-sdk/models"
	"modelhub-sdk/quota"
)

// State is a snapshot of what a host UI displays
type State struct {
	Input string
	// SelectedExample is empty when the input does not match an example
	SelectedExample  string
	SelectedEndpoint *models.Endpoint
	// Outcome of the last attempt, nil when cleared
	Outcome    Outcome
	Processing bool
	// QuotaUsed is the displayed count for the selected endpoint
	QuotaUsed int
	// InlineError is set for validation failures and rejected requests
	InlineError string
	// Banner is the "technical problem" notice, set by transport failures and
	// remote outages. A success or any edit or reset clears it.
	Banner bool
}

// TrialsLeft returns how many successful calls remain for the selected endpoint
func (s State) TrialsLeft() int {
	if left := TrialCeiling - s.QuotaUsed; left > 0 {
		return left
	}
	return 0
}

// CanSubmit reports whether Submit would start an attempt
func (s State) CanSubmit() bool {
	return !s.Processing &&
		strings.TrimSpace(s.Input) != "" &&
		s.SelectedEndpoint != nil &&
		s.QuotaUsed < TrialCeiling
}

// Sandbox is the view-model behind one model's testing panel.
// Methods may be called from a UI goroutine while a Submit runs on another;
// at most one Submit is in flight at a time.
type Sandbox struct {
	mu      sync.Mutex
	model   *models.Model
	invoker Invoker
	quota   quota.Store
	state   State
	// generation changes whenever the user resets the panel, so a result
	// arriving for an abandoned attempt is not displayed
	generation int
}

// New initializes a sandbox on the model's default endpoint.
// Models without endpoints are refused with *NoEndpointsError.
func New(model *models.Model, invoker Invoker, store quota.Store) (*Sandbox, error) {
	if model == nil {
		return nil, &NoEndpointsError{}
	}

	endpoint, err := SelectDefault(model.Endpoints)
	if err != nil {
		return nil, &NoEndpointsError{ModelID: model.ID}
	}

	s := &Sandbox{
		model:   model,
		invoker: invoker,
		quota:   store,
	}

	input, exampleID := InitialInput(model, endpoint)
	s.state.SelectedEndpoint = &endpoint
	s.state.Input = input
	s.state.SelectedExample = exampleID
	s.state.QuotaUsed = s.readQuota(endpoint)

	return s, nil
}

// Model returns the model under test
func (s *Sandbox) Model() *models.Model {
	return s.model
}

// State returns a snapshot of the current state
func (s *Sandbox) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// SelectEndpoint switches endpoint, reseeds the input from its template and
// refreshes the displayed quota
func (s *Sandbox) SelectEndpoint(endpoint models.Endpoint) {
	used := s.readQuota(endpoint)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state.SelectedEndpoint = &endpoint
	s.state.Input = DeriveInitialInput(endpoint)
	s.state.SelectedExample = ""
	s.state.Outcome = nil
	s.state.InlineError = ""
	s.state.Banner = false
	s.state.QuotaUsed = used
}

// SelectExample loads an example's literal input. Quota is not affected.
func (s *Sandbox) SelectExample(id string) error {
	example, ok := s.model.Example(id)
	if !ok {
		return fmt.Errorf("unknown example %q", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state.Input = example.Input
	s.state.SelectedExample = example.ID
	s.state.Outcome = nil
	s.state.InlineError = ""
	s.state.Banner = false
	return nil
}

// UpdateInput records a free edit of the input
func (s *Sandbox) UpdateInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Input = text
	s.state.SelectedExample = ""
	s.state.InlineError = ""
	s.state.Banner = false
}

// Clear resets input, example, result and error flags. Quota is kept.
func (s *Sandbox) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state.Input = ""
	s.state.SelectedExample = ""
	s.state.Outcome = nil
	s.state.InlineError = ""
	s.state.Banner = false
}

// Submit runs one attempt with the current input and endpoint.
// It returns false without doing anything while an attempt is in flight,
// the input is blank, no endpoint is selected or the displayed quota is
// already at the ceiling.
func (s *Sandbox) Submit(ctx context.Context) (Outcome, bool) {
	s.mu.Lock()
	if !s.state.CanSubmit() {
		s.mu.Unlock()
		return nil, false
	}
	s.state.Processing = true
	endpoint := *s.state.SelectedEndpoint
	input := s.state.Input
	generation := s.generation
	s.mu.Unlock()

	outcome := s.invoker.Invoke(ctx, s.model.ID, endpoint, input)

	s.mu.Lock()
	current := s.state.SelectedEndpoint
	s.mu.Unlock()

	var used int
	if current != nil {
		used = s.readQuota(*current)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Processing = false
	s.state.QuotaUsed = used

	switch {
	case Degraded(outcome):
		s.state.Banner = true
	case outcome.Kind() == KindSuccess:
		s.state.Banner = false
	}

	if generation != s.generation {
		return outcome, true
	}

	s.state.Outcome = outcome
	s.state.InlineError = ""
	if outcome.Kind() == KindValidation || (outcome.Kind() == KindRemote && !Degraded(outcome)) {
		s.state.InlineError = outcome.String()
	}

	return outcome, true
}

// readQuota returns the stored count; an unreadable store shows as zero and
// the controller's own check reports the failure on submit
func (s *Sandbox) readQuota(endpoint models.Endpoint) int {
	used, err := s.quota.Get(context.Background(), s.model.ID, endpoint.Path)
	if err != nil {
		return 0
	}
	return used
}
