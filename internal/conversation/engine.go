// Package conversation turns inbound chat events into ledger entries.
//
// Each user has at most one open Session. A session only stores what the user
// has chosen so far; the prompt to show next is derived from those choices,
// so going back is restoring an earlier snapshot and deriving again.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/metrics"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/resolver"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/google/uuid"
)

// Taxonomy answers which values may be chosen next.
type Taxonomy interface {
	Children(ctx context.Context, prefix []string) ([]string, error)
	Column(ctx context.Context, header string) ([]string, error)
}

// Reporter renders the report of a year, or of one month when month is 1..12.
type Reporter interface {
	Report(ctx context.Context, year, month int) (string, error)
}

// Config holds the settings fixed at process start.
type Config struct {
	Location            *time.Location
	LedgerTable         string
	ShoppingTable       string
	WorkTable           string
	PeopleHeader        string
	PayerHeader         string
	EstablishmentHeader string
	Allowed             []int64
	People              []string
	StoreTimeout        time.Duration
}

// Deps are the collaborators of an Engine. Sessions, Lists and Limiter are
// created with defaults when nil.
type Deps struct {
	Store    service.TabularStore
	Taxonomy Taxonomy
	Reporter Reporter
	Notifier service.OperatorNotifier
	Metrics  metrics.Recorder
	Sessions *SessionStore
	Lists    *resolver.ListCache
	Limiter  *Limiter
	Now      func() time.Time
}

// Engine handles events. It is safe for concurrent use: events of one user
// are serialized, events of different users run in parallel.
type Engine struct {
	store    service.TabularStore
	taxonomy Taxonomy
	reporter Reporter
	notifier service.OperatorNotifier
	metrics  metrics.Recorder
	sessions *SessionStore
	lists    *resolver.ListCache
	limiter  *Limiter
	now      func() time.Time
	allowed  map[int64]struct{}
	cfg      Config
}

// New creates an Engine.
func New(cfg Config, deps Deps) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	recorder := metrics.OrNop(deps.Metrics)
	if deps.Sessions == nil {
		deps.Sessions = NewSessionStore(StoreOptions{Metrics: recorder, Now: deps.Now})
	}
	if deps.Lists == nil {
		deps.Lists = resolver.NewListCache(resolver.DefaultListTTL, recorder)
	}
	if deps.Notifier == nil {
		deps.Notifier = LogNotifier{}
	}

	allowed := make(map[int64]struct{}, len(cfg.Allowed))
	for _, id := range cfg.Allowed {
		allowed[id] = struct{}{}
	}

	return &Engine{
		store:    deps.Store,
		taxonomy: deps.Taxonomy,
		reporter: deps.Reporter,
		notifier: deps.Notifier,
		metrics:  recorder,
		sessions: deps.Sessions,
		lists:    deps.Lists,
		limiter:  deps.Limiter,
		now:      deps.Now,
		allowed:  allowed,
		cfg:      cfg,
	}
}

// Sessions exposes the session store, e.g. to start its expiry loop.
func (e *Engine) Sessions() *SessionStore {
	return e.sessions
}

// Handle processes one event and returns what to show the user. The reply is
// always usable. The error is non-nil only when the event was refused before
// reaching a session: it wraps common.ErrUnauthorized or common.ErrRateLimited.
func (e *Engine) Handle(ctx context.Context, event model.Event) (reply model.Reply, err error) {
	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		e.metrics.EventHandled(string(event.Kind), outcome, time.Since(start))
	}()

	logger := slog.With("event_id", uuid.NewString(), "user_id", event.UserID, "kind", event.Kind)
	ctx = common.WithLogger(ctx, logger)

	if _, ok := e.allowed[event.UserID]; !ok {
		outcome = metrics.OutcomeRejected
		e.metrics.Rejected("unauthorized")
		logger.Warn("Rejected event from user not on the allow-list")
		e.notifier.NotifyUnauthorized(ctx, event.UserID, event.Payload)
		return model.Reply{Text: msgUnauthorized}, fmt.Errorf("%w: user %d", common.ErrUnauthorized, event.UserID)
	}
	if !e.limiter.Allow(event.UserID) {
		outcome = metrics.OutcomeRejected
		e.metrics.Rejected("rate_limited")
		logger.Debug("Rate limited event")
		return model.Reply{Text: msgSlowDown}, fmt.Errorf("%w: user %d", common.ErrRateLimited, event.UserID)
	}

	h := e.sessions.Lock(event.UserID)
	defer h.Release()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic while handling event", "panic", r, "stack", string(debug.Stack()))
			outcome = metrics.OutcomeUnavailable
			reply = unavailableReply()
			err = nil
		}
	}()

	action, decodeErr := Decode(event)
	if decodeErr != nil {
		logger.Debug("Ignoring undecodable event", "error", decodeErr)
		action = nil
	}

	reply, outcome = e.dispatch(ctx, h, action)
	logger.Debug("Handled event", "outcome", outcome)
	return reply, nil
}

func (e *Engine) dispatch(ctx context.Context, h *Lease, action Action) (model.Reply, string) {
	switch a := action.(type) {
	case ShowMenu:
		return menuReply(""), metrics.OutcomeOK
	case OpenReports:
		return reportMenuReply(e.now().In(e.cfg.Location)), metrics.OutcomeOK
	case ShowReport:
		return e.report(ctx, a)
	case Cancel:
		h.Delete(ctx)
		return menuReply(msgCancelled), metrics.OutcomeOK
	case StartFlow:
		sess := NewSession(h.userID, a.Flow, e.now())
		h.Put(ctx, sess)
		return e.settle(ctx, h, sess.clone(), "")
	}

	sess, err := h.Session(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNoSession) {
			return menuReply(msgNoSession), metrics.OutcomeInvalid
		}
		common.LoggerFrom(ctx).Warn("Failed to load session", "error", err)
		return unavailableReply(), metrics.OutcomeUnavailable
	}
	if action == nil {
		reply, _ := e.settle(ctx, h, sess.clone(), msgUnknownButton)
		return reply, metrics.OutcomeInvalid
	}

	work := sess.clone()
	if err := e.apply(ctx, work, action); err != nil {
		return e.fail(ctx, h, sess, err)
	}
	return e.settle(ctx, h, work, "")
}

// fail answers a failed transition. sess is the unchanged session.
func (e *Engine) fail(ctx context.Context, h *Lease, sess *Session, err error) (model.Reply, string) {
	if errors.Is(err, common.ErrValidation) {
		reply, outcome := e.settle(ctx, h, sess.clone(), common.UserMessage(err, msgInvalidInput))
		if outcome == metrics.OutcomeOK {
			outcome = metrics.OutcomeInvalid
		}
		return reply, outcome
	}
	common.LoggerFrom(ctx).Warn("Transition failed, session kept", "session_id", sess.ID, "state", sess.State(), "error", err)
	return unavailableReply(), metrics.OutcomeUnavailable
}

// settle fills the taxonomy levels that do not apply, writes the entry once
// everything is collected, and otherwise stores sess and renders its prompt.
// On a read failure the stored session is left as it was.
func (e *Engine) settle(ctx context.Context, h *Lease, sess *Session, notice string) (model.Reply, string) {
	st, options, err := e.advance(ctx, sess)
	if err != nil {
		common.LoggerFrom(ctx).Warn("Failed to prepare prompt", "session_id", sess.ID, "state", st, "error", err)
		return unavailableReply(), metrics.OutcomeUnavailable
	}

	if st != StateReady {
		h.Put(ctx, sess)
		return render(sess, st, options, notice), metrics.OutcomeOK
	}

	summary, err := e.save(ctx, sess)
	if err != nil {
		common.LoggerFrom(ctx).Warn("Failed to save entry, session kept for retry",
			"session_id", sess.ID, "flow", sess.Flow, "error", err)
		sess.Current.SaveFailed = true
		h.Put(ctx, sess)
		return render(sess, StateAwaitingSaveRetry, nil, ""), metrics.OutcomeUnavailable
	}

	common.LoggerFrom(ctx).Info("Saved entry", "session_id", sess.ID, "flow", sess.Flow)
	h.Delete(ctx)
	return menuReply(summary), metrics.OutcomeOK
}

// advance derives the state of sess, auto-filling taxonomy levels without
// children, and returns the options the state offers.
func (e *Engine) advance(ctx context.Context, sess *Session) (State, []string, error) {
	for {
		st := sess.State()
		if st == StateAwaitingEntityConfirm {
			return st, sess.Current.Candidates, nil
		}
		step, isChoice := awaitedStep(st)
		if !isChoice {
			return st, nil, nil
		}

		options, err := e.options(ctx, sess, step)
		if err != nil {
			return st, nil, err
		}
		if level := step.taxonomyLevel(); level >= 0 && len(options) == 0 {
			for _, s := range taxonomySteps[level:] {
				sess.Current.set(s, model.Empty)
			}
			continue
		}
		return st, options, nil
	}
}

func (e *Engine) report(ctx context.Context, a ShowReport) (model.Reply, string) {
	if e.reporter == nil {
		return menuReply(msgNoReports), metrics.OutcomeInvalid
	}
	text, err := e.reporter.Report(ctx, a.Year, a.Month)
	switch {
	case errors.Is(err, common.ErrValidation):
		return reportMenuReply(e.now().In(e.cfg.Location)), metrics.OutcomeInvalid
	case err != nil:
		common.LoggerFrom(ctx).Warn("Failed to build report", "year", a.Year, "month", a.Month, "error", err)
		return model.Reply{Text: msgUnavailable, Buttons: [][]model.Button{{
			{Label: "🔁 Try again", Token: reportToken(a.Year, a.Month)},
			{Label: "🏠 Menu", Token: menuToken("main")},
		}}}, metrics.OutcomeUnavailable
	}
	return model.Reply{Text: text, Buttons: reportMenuReply(e.now().In(e.cfg.Location)).Buttons}, metrics.OutcomeOK
}

// withTimeout bounds one store call.
func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.StoreTimeout)
}

func (e *Engine) today() time.Time {
	now := e.now().In(e.cfg.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.cfg.Location)
}

// LogNotifier reports unauthorized users to the log.
type LogNotifier struct {
	Operator int64
}

// NotifyUnauthorized implements service.OperatorNotifier.
func (n LogNotifier) NotifyUnauthorized(ctx context.Context, userID int64, payload string) {
	common.LoggerFrom(ctx).Warn("Unauthorized access attempt",
		"user_id", userID, "operator", n.Operator, "payload_len", len(payload))
}
