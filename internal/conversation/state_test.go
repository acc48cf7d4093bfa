package conversation

import (
	"testing"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/stretchr/testify/assert"
)

func snap(pairs ...string) Snapshot {
	var s Snapshot
	for i := 0; i+1 < len(pairs); i += 2 {
		s.set(Step(pairs[i]), pairs[i+1])
	}
	return s
}

func TestDeriveState_Expense(t *testing.T) {
	full := []string{"date", "17/03/2024", "person", "A", "payer", "B", "type", "Gasto", "category", "Ocio", "sub1", "Bar", "sub2", "-", "sub3", "-"}

	tests := []struct {
		name string
		snap Snapshot
		want State
	}{
		{"empty", Snapshot{}, StateAwaitingDate},
		{"typing date", Snapshot{DateText: true}, StateAwaitingDateText},
		{"date set", snap("date", "17/03/2024"), StateAwaitingPerson},
		{"person set", snap("date", "17/03/2024", "person", "A"), StateAwaitingPayer},
		{"payer set", snap("date", "17/03/2024", "person", "A", "payer", "B"), StateAwaitingType},
		{"type set", snap(full[:8]...), StateAwaitingCategory},
		{"category set", snap(full[:10]...), StateAwaitingSub1},
		{"sub1 set", snap(full[:12]...), StateAwaitingSub2},
		{"sub2 set", snap(full[:14]...), StateAwaitingSub3},
		{"taxonomy complete", snap(full...), StateAwaitingObservation},
		{"note wanted", snap(append(full, "observation", "yes")...), StateAwaitingObservationText},
		{"note given", snap(append(full, "observation", "yes", "note", "x")...), StateAwaitingAmount},
		{"note declined", snap(append(full, "observation", "no", "note", "")...), StateAwaitingAmount},
		{"amount set", snap(append(full, "observation", "no", "note", "", "amount", "5")...), StateReady},
		{
			"no sub-levels skip the note",
			snap("date", "x", "person", "A", "payer", "B", "type", "Gasto", "category", "Casa", "sub1", "-", "sub2", "-", "sub3", "-"),
			StateAwaitingAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveState(model.FlowExpense, tt.snap))
		})
	}

	failed := snap(append(full, "observation", "no", "note", "", "amount", "5")...)
	failed.SaveFailed = true
	assert.Equal(t, StateAwaitingSaveRetry, deriveState(model.FlowExpense, failed))
}

func TestDeriveState_ShoppingAndWork(t *testing.T) {
	withCandidates := snap("person", "A")
	withCandidates.Candidates = []string{"Lidl"}

	assert.Equal(t, StateAwaitingPerson, deriveState(model.FlowShopping, Snapshot{}))
	assert.Equal(t, StateAwaitingEntity, deriveState(model.FlowShopping, snap("person", "A")))
	assert.Equal(t, StateAwaitingEntityConfirm, deriveState(model.FlowShopping, withCandidates))
	assert.Equal(t, StateAwaitingItem, deriveState(model.FlowShopping, snap("person", "A", "establishment", "Lidl")))
	assert.Equal(t, StateReady, deriveState(model.FlowShopping, snap("person", "A", "establishment", "Lidl", "item", "pan")))

	assert.Equal(t, StateAwaitingDate, deriveState(model.FlowWork, Snapshot{}))
	assert.Equal(t, StateAwaitingContributor, deriveState(model.FlowWork, snap("date", "x")))
	assert.Equal(t, StateAwaitingAmount, deriveState(model.FlowWork, snap("date", "x", "contributor", "Ana")))
	assert.Equal(t, StateReady, deriveState(model.FlowWork, snap("date", "x", "contributor", "Ana", "amount", "3")))

	assert.Equal(t, StateCancelled, deriveState(model.Flow("bogus"), Snapshot{}))
}

func TestAwaitedStep(t *testing.T) {
	step, ok := awaitedStep(StateAwaitingSub2)
	assert.True(t, ok)
	assert.Equal(t, StepSub2, step)
	assert.Equal(t, 3, step.taxonomyLevel())

	_, ok = awaitedStep(StateAwaitingAmount)
	assert.False(t, ok)
	assert.Equal(t, -1, StepPerson.taxonomyLevel())
}

func TestSnapshot_TaxonomyPrefix(t *testing.T) {
	s := snap("type", "Gasto", "category", "Casa", "sub2", "orphan")
	assert.Equal(t, []string{"Gasto", "Casa"}, s.taxonomyPrefix())
}
