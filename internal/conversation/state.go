package conversation

import (
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Step names a selection a flow collects.
type Step string

// Steps, in the order the expense flow asks for them.
const (
	StepDate          Step = "date"
	StepPerson        Step = "person"
	StepPayer         Step = "payer"
	StepType          Step = "type"
	StepCategory      Step = "category"
	StepSub1          Step = "sub1"
	StepSub2          Step = "sub2"
	StepSub3          Step = "sub3"
	StepObservation   Step = "observation"
	StepNote          Step = "note"
	StepEstablishment Step = "establishment"
	StepItem          Step = "item"
	StepContributor   Step = "contributor"
	StepAmount        Step = "amount"
)

// taxonomySteps maps each taxonomy level to the step holding it.
var taxonomySteps = [model.TaxonomyDepth]Step{StepType, StepCategory, StepSub1, StepSub2, StepSub3}

// Pickable reports whether the step is answered with a pick| button.
func (s Step) Pickable() bool {
	switch s {
	case StepPerson, StepPayer, StepType, StepCategory, StepSub1, StepSub2, StepSub3, StepContributor:
		return true
	}
	return false
}

// taxonomyLevel returns the level of a taxonomy step, or -1.
func (s Step) taxonomyLevel() int {
	for level, step := range taxonomySteps {
		if step == s {
			return level
		}
	}
	return -1
}

// State is the prompt a session is waiting on.
type State string

// States.
const (
	StateAwaitingDate            State = "awaiting-date"
	StateAwaitingDateText        State = "awaiting-date-text"
	StateAwaitingPerson          State = "awaiting-person"
	StateAwaitingPayer           State = "awaiting-payer"
	StateAwaitingType            State = "awaiting-type-choice"
	StateAwaitingCategory        State = "awaiting-category-choice"
	StateAwaitingSub1            State = "awaiting-sub1-choice"
	StateAwaitingSub2            State = "awaiting-sub2-choice"
	StateAwaitingSub3            State = "awaiting-sub3-choice"
	StateAwaitingEntity          State = "awaiting-entity"
	StateAwaitingEntityConfirm   State = "awaiting-entity-confirm"
	StateAwaitingItem            State = "awaiting-item"
	StateAwaitingContributor     State = "awaiting-contributor"
	StateAwaitingObservation     State = "awaiting-observation-yesno"
	StateAwaitingObservationText State = "awaiting-observation-text"
	StateAwaitingAmount          State = "awaiting-amount"
	StateAwaitingSaveRetry       State = "awaiting-save-retry"
	StateReady                   State = "ready"
	StateCompleted               State = "completed"
	StateCancelled               State = "cancelled"
)

// choiceStates maps the steps answered by buttons to the state awaiting them.
var choiceStates = map[Step]State{
	StepPerson:      StateAwaitingPerson,
	StepPayer:       StateAwaitingPayer,
	StepType:        StateAwaitingType,
	StepCategory:    StateAwaitingCategory,
	StepSub1:        StateAwaitingSub1,
	StepSub2:        StateAwaitingSub2,
	StepSub3:        StateAwaitingSub3,
	StepContributor: StateAwaitingContributor,
}

// Snapshot is everything a session has collected. History holds deep copies
// of it and the current prompt is derived from it alone.
type Snapshot struct {
	Selections map[Step]string `json:"selections,omitempty"`
	// Candidates are the resolver matches awaiting confirmation.
	Candidates []string `json:"candidates,omitempty"`
	// DateText is set once the user asked to type the date.
	DateText bool `json:"date_text,omitempty"`
	// SaveFailed is set when the final write failed.
	SaveFailed bool `json:"save_failed,omitempty"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		DateText:   s.DateText,
		SaveFailed: s.SaveFailed,
	}
	if len(s.Selections) > 0 {
		out.Selections = make(map[Step]string, len(s.Selections))
		for k, v := range s.Selections {
			out.Selections[k] = v
		}
	}
	if len(s.Candidates) > 0 {
		out.Candidates = append([]string(nil), s.Candidates...)
	}
	return out
}

// Get returns the selection for step.
func (s Snapshot) Get(step Step) (string, bool) {
	v, ok := s.Selections[step]
	return v, ok
}

func (s Snapshot) has(step Step) bool {
	_, ok := s.Selections[step]
	return ok
}

func (s *Snapshot) set(step Step, value string) {
	if s.Selections == nil {
		s.Selections = make(map[Step]string)
	}
	s.Selections[step] = value
}

// taxonomyPrefix returns the taxonomy values chosen so far, in level order.
func (s Snapshot) taxonomyPrefix() []string {
	prefix := make([]string, 0, model.TaxonomyDepth)
	for _, step := range taxonomySteps {
		v, ok := s.Selections[step]
		if !ok {
			break
		}
		prefix = append(prefix, v)
	}
	return prefix
}

// deriveState returns the prompt implied by the selections of a flow. It
// depends on nothing but its arguments.
func deriveState(flow model.Flow, snap Snapshot) State {
	switch flow {
	case model.FlowExpense:
		return deriveExpense(snap)
	case model.FlowShopping:
		return deriveShopping(snap)
	case model.FlowWork:
		return deriveWork(snap)
	}
	return StateCancelled
}

func deriveDate(snap Snapshot) (State, bool) {
	if snap.has(StepDate) {
		return "", false
	}
	if snap.DateText {
		return StateAwaitingDateText, true
	}
	return StateAwaitingDate, true
}

func deriveExpense(snap Snapshot) State {
	if st, ok := deriveDate(snap); ok {
		return st
	}
	for _, step := range []Step{StepPerson, StepPayer} {
		if !snap.has(step) {
			return choiceStates[step]
		}
	}
	for _, step := range taxonomySteps {
		if !snap.has(step) {
			return choiceStates[step]
		}
	}

	// A category without sub-levels has nothing worth annotating.
	if sub1, _ := snap.Get(StepSub1); sub1 != model.Empty {
		answer, asked := snap.Get(StepObservation)
		if !asked {
			return StateAwaitingObservation
		}
		if answer == "yes" && !snap.has(StepNote) {
			return StateAwaitingObservationText
		}
	}
	return deriveAmount(snap)
}

func deriveShopping(snap Snapshot) State {
	if !snap.has(StepPerson) {
		return StateAwaitingPerson
	}
	if !snap.has(StepEstablishment) {
		if len(snap.Candidates) > 0 {
			return StateAwaitingEntityConfirm
		}
		return StateAwaitingEntity
	}
	if !snap.has(StepItem) {
		return StateAwaitingItem
	}
	if snap.SaveFailed {
		return StateAwaitingSaveRetry
	}
	return StateReady
}

func deriveWork(snap Snapshot) State {
	if st, ok := deriveDate(snap); ok {
		return st
	}
	if !snap.has(StepContributor) {
		return StateAwaitingContributor
	}
	return deriveAmount(snap)
}

func deriveAmount(snap Snapshot) State {
	if !snap.has(StepAmount) {
		return StateAwaitingAmount
	}
	if snap.SaveFailed {
		return StateAwaitingSaveRetry
	}
	return StateReady
}

// awaitedStep returns the step a choice state collects.
func awaitedStep(st State) (Step, bool) {
	for step, s := range choiceStates {
		if s == st {
			return step, true
		}
	}
	return "", false
}
