package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/resolver"
	"github.com/shopspring/decimal"
)

// Observation answers as stored in the snapshot.
const (
	answerYes = "yes"
	answerNo  = "no"
)

// Candidate list names in the list cache.
const (
	listEstablishments = "establishments"
	listContributors   = "contributors"
)

// amountPattern is a plain number with a comma or dot decimal mark, or a
// dot-grouped number whose decimal mark is a comma ("1.550,00").
var amountPattern = regexp.MustCompile(`^(?:[0-9]+(?:[.,][0-9]+)?|[0-9]{1,3}(?:\.[0-9]{3})+(?:,[0-9]+)?)$`)

// ParseAmountInput reads an amount typed by the user. It accepts what the
// ledger's own cells accept (see report.ParseAmount) and rounds to cents,
// since the ledger stores two decimals.
func ParseAmountInput(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "€"), "€"))
	if !amountPattern.MatchString(s) {
		return decimal.Zero, common.NewValidationError(msgBadAmount)
	}
	amount := report.ParseAmount(s).Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, common.NewValidationError(msgAmountNotPositive)
	}
	return amount, nil
}

func stale() error {
	return common.NewValidationError(msgStale)
}

// apply performs the transition action asks for on sess. Callers pass a
// copy and discard it when apply fails.
func (e *Engine) apply(ctx context.Context, sess *Session, action Action) error {
	st := sess.State()

	switch a := action.(type) {
	case Back:
		sess.Back()
		return nil

	case Refresh:
		return nil

	case PickDate:
		if st != StateAwaitingDate && st != StateAwaitingDateText {
			return stale()
		}
		sess.Push()
		switch a.Choice {
		case DateToday:
			sess.Current.set(StepDate, e.today().Format(model.DateLayout))
		case DateYesterday:
			sess.Current.set(StepDate, e.today().AddDate(0, 0, -1).Format(model.DateLayout))
		case DateOther:
			sess.Current.DateText = true
		}
		return nil

	case Choose:
		want, ok := awaitedStep(st)
		if !ok || want != a.Step {
			return stale()
		}
		options, err := e.options(ctx, sess, a.Step)
		if err != nil {
			return err
		}
		if !contains(options, a.Value) {
			return stale()
		}
		sess.Push()
		sess.Current.set(a.Step, a.Value)
		return nil

	case PickCandidate:
		if st != StateAwaitingEntityConfirm || a.Index >= len(sess.Current.Candidates) {
			return stale()
		}
		sess.Push()
		sess.Current.set(StepEstablishment, sess.Current.Candidates[a.Index])
		sess.Current.Candidates = nil
		return nil

	case RetryEntity:
		if st != StateAwaitingEntityConfirm {
			return stale()
		}
		// The candidates were pushed on top of the text prompt; dropping
		// them restores it with the selections unchanged.
		sess.Back()
		return nil

	case Observation:
		if st != StateAwaitingObservation {
			return stale()
		}
		sess.Push()
		if a.Wanted {
			sess.Current.set(StepObservation, answerYes)
		} else {
			sess.Current.set(StepObservation, answerNo)
			sess.Current.set(StepNote, "")
		}
		return nil

	case RetrySave:
		if st != StateAwaitingSaveRetry {
			return stale()
		}
		sess.Current.SaveFailed = false
		return nil

	case FreeText:
		return e.applyText(ctx, sess, st, a.Text)
	}

	return stale()
}

func (e *Engine) applyText(ctx context.Context, sess *Session, st State, text string) error {
	switch st {
	case StateAwaitingDateText:
		date, ok := report.ParseDate(text)
		if !ok {
			return common.NewValidationError(msgBadDate)
		}
		sess.Push()
		sess.Current.set(StepDate, date.Format(model.DateLayout))
		return nil

	case StateAwaitingEntity:
		if text == "" {
			return common.NewValidationError(msgEmptyText)
		}
		known, err := e.establishments(ctx)
		if err != nil {
			return err
		}
		matches := resolver.Resolve(text, known)
		sess.Push()
		if len(matches) == 0 {
			sess.Current.set(StepEstablishment, text)
			return nil
		}
		sess.Current.Candidates = make([]string, 0, len(matches))
		for _, m := range matches {
			sess.Current.Candidates = append(sess.Current.Candidates, m.Label)
		}
		return nil

	case StateAwaitingItem:
		if text == "" {
			return common.NewValidationError(msgEmptyText)
		}
		sess.Push()
		sess.Current.set(StepItem, text)
		return nil

	case StateAwaitingObservationText:
		if text == "" {
			return common.NewValidationError(msgEmptyText)
		}
		sess.Push()
		sess.Current.set(StepNote, text)
		return nil

	case StateAwaitingAmount:
		amount, err := ParseAmountInput(text)
		if err != nil {
			return err
		}
		sess.Push()
		sess.Current.set(StepAmount, amount.String())
		return nil
	}

	return common.NewValidationError(msgUseButtons)
}

// options lists the values a choice step accepts.
func (e *Engine) options(ctx context.Context, sess *Session, step Step) ([]string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if level := step.taxonomyLevel(); level >= 0 {
		prefix := sess.Current.taxonomyPrefix()
		if len(prefix) > level {
			prefix = prefix[:level]
		}
		return e.taxonomy.Children(ctx, prefix)
	}

	switch step {
	case StepPerson:
		return e.people(ctx)
	case StepPayer:
		payers, err := e.taxonomy.Column(ctx, e.cfg.PayerHeader)
		if err != nil || len(payers) > 0 {
			return payers, err
		}
		return e.people(ctx)
	case StepContributor:
		return e.lists.Get(ctx, listContributors, e.loadContributors)
	}
	return nil, fmt.Errorf("step %s has no options", step)
}

func (e *Engine) people(ctx context.Context) ([]string, error) {
	people, err := e.taxonomy.Column(ctx, e.cfg.PeopleHeader)
	if err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return append([]string(nil), e.cfg.People...), nil
	}
	return people, nil
}

func (e *Engine) establishments(ctx context.Context) ([]string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.lists.Get(ctx, listEstablishments, func(ctx context.Context) ([]string, error) {
		return e.taxonomy.Column(ctx, e.cfg.EstablishmentHeader)
	})
}

// loadContributors reads the header row of the work grid, skipping the
// month column.
func (e *Engine) loadContributors(ctx context.Context) ([]string, error) {
	rows, err := e.store.ReadAll(ctx, e.cfg.WorkTable)
	if err != nil {
		return nil, common.Unavailable("read "+e.cfg.WorkTable, err)
	}
	var contributors []string
	if len(rows) > 0 {
		for _, name := range rows[0][min(1, len(rows[0])):] {
			if name = strings.TrimSpace(name); name != "" {
				contributors = append(contributors, name)
			}
		}
	}
	return contributors, nil
}

// save writes the finished entry and returns the confirmation text.
func (e *Engine) save(ctx context.Context, sess *Session) (string, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	snap := sess.Current
	switch sess.Flow {
	case model.FlowExpense:
		record, err := expenseRecord(snap)
		if err != nil {
			return "", err
		}
		err = e.store.AppendRow(ctx, e.cfg.LedgerTable, record.Row())
		e.metrics.RowWritten(e.cfg.LedgerTable, "append", err)
		if err != nil {
			return "", common.Unavailable("append "+e.cfg.LedgerTable, err)
		}
		return fmt.Sprintf(msgSavedExpense, model.FormatAmount(record.Amount), record.Category, record.Date.Format(model.DateLayout)), nil

	case model.FlowShopping:
		item := model.ShoppingItem{
			Date:          e.today(),
			Person:        snap.Selections[StepPerson],
			Establishment: snap.Selections[StepEstablishment],
			Item:          snap.Selections[StepItem],
		}
		err := e.store.AppendRow(ctx, e.cfg.ShoppingTable, item.Row())
		e.metrics.RowWritten(e.cfg.ShoppingTable, "append", err)
		if err != nil {
			return "", common.Unavailable("append "+e.cfg.ShoppingTable, err)
		}
		return fmt.Sprintf(msgSavedItem, item.Item, item.Establishment), nil

	case model.FlowWork:
		expense, err := workExpense(snap)
		if err != nil {
			return "", err
		}
		total, err := e.addWorkExpense(ctx, expense)
		e.metrics.RowWritten(e.cfg.WorkTable, "update", err)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(msgSavedWork, model.FormatAmount(expense.Amount), expense.Contributor, model.FormatAmount(total)), nil
	}
	return "", fmt.Errorf("unknown flow %q", sess.Flow)
}

func expenseRecord(snap Snapshot) (model.Record, error) {
	sel := snap.Selections
	date, err := time.Parse(model.DateLayout, sel[StepDate])
	if err != nil {
		return model.Record{}, fmt.Errorf("stored date %q: %w", sel[StepDate], err)
	}
	amount, err := decimal.NewFromString(sel[StepAmount])
	if err != nil {
		return model.Record{}, fmt.Errorf("stored amount %q: %w", sel[StepAmount], err)
	}
	record := model.Record{
		Date:     date,
		Amount:   amount,
		Person:   sel[StepPerson],
		Payer:    sel[StepPayer],
		Type:     sel[StepType],
		Category: sel[StepCategory],
		Sub1:     sel[StepSub1],
		Sub2:     sel[StepSub2],
		Sub3:     sel[StepSub3],
		Note:     sel[StepNote],
	}
	return record, record.Validate()
}

func workExpense(snap Snapshot) (model.WorkExpense, error) {
	sel := snap.Selections
	date, err := time.Parse(model.DateLayout, sel[StepDate])
	if err != nil {
		return model.WorkExpense{}, fmt.Errorf("stored date %q: %w", sel[StepDate], err)
	}
	amount, err := decimal.NewFromString(sel[StepAmount])
	if err != nil {
		return model.WorkExpense{}, fmt.Errorf("stored amount %q: %w", sel[StepAmount], err)
	}
	return model.WorkExpense{Date: date, Amount: amount, Contributor: sel[StepContributor]}, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
