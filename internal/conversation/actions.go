package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Button token namespaces. The token text is the contract with whatever
// renders the buttons and must not change.
const (
	nsMenu   = "menu"
	nsNav    = "nav"
	nsDate   = "date"
	nsPick   = "pick"
	nsEntity = "ent"
	nsObs    = "obs"
	nsSave   = "save"
	nsReport = "rep"

	tokenSep = "|"
)

// Action is a decoded inbound event.
type Action interface {
	action()
}

// StartFlow opens a new session for Flow, replacing any open one.
type StartFlow struct{ Flow model.Flow }

// OpenReports shows the report period menu.
type OpenReports struct{}

// ShowMenu shows the top-level menu without touching the session.
type ShowMenu struct{}

// Back restores the previous snapshot.
type Back struct{}

// Cancel discards the session.
type Cancel struct{}

// Refresh re-renders the current prompt, e.g. after a transient failure.
type Refresh struct{}

// DateChoice is one of the date shortcut buttons.
type DateChoice string

// Date shortcuts.
const (
	DateToday     DateChoice = "today"
	DateYesterday DateChoice = "yesterday"
	DateOther     DateChoice = "other"
)

// PickDate answers the date prompt.
type PickDate struct{ Choice DateChoice }

// Choose selects Value for Step from a list of buttons.
type Choose struct {
	Step  Step
	Value string
}

// PickCandidate selects entity candidate Index of the last resolution.
type PickCandidate struct{ Index int }

// RetryEntity discards the candidates and asks for the text again.
type RetryEntity struct{}

// Observation answers whether the record gets a note.
type Observation struct{ Wanted bool }

// RetrySave retries a failed append.
type RetrySave struct{}

// ShowReport renders the report of Year; Month 0 means the whole year.
type ShowReport struct {
	Year  int
	Month int
}

// FreeText is typed input.
type FreeText struct{ Text string }

func (StartFlow) action()     {}
func (OpenReports) action()   {}
func (ShowMenu) action()      {}
func (Back) action()          {}
func (Cancel) action()        {}
func (Refresh) action()       {}
func (PickDate) action()      {}
func (Choose) action()        {}
func (PickCandidate) action() {}
func (RetryEntity) action()   {}
func (Observation) action()   {}
func (RetrySave) action()     {}
func (ShowReport) action()    {}
func (FreeText) action()      {}

// Decode converts an inbound event into an Action. Malformed button tokens
// yield an error wrapping common.ErrBadToken.
func Decode(event model.Event) (Action, error) {
	switch event.Kind {
	case model.EventText:
		text := strings.TrimSpace(event.Payload)
		switch strings.ToLower(text) {
		case "/start", "/menu", "menu":
			return ShowMenu{}, nil
		case "/cancel":
			return Cancel{}, nil
		case "/back":
			return Back{}, nil
		}
		return FreeText{Text: text}, nil
	case model.EventButton:
		return decodeToken(event.Payload)
	default:
		return nil, fmt.Errorf("%w: unknown event kind %q", common.ErrBadToken, event.Kind)
	}
}

func decodeToken(token string) (Action, error) {
	ns, rest, _ := strings.Cut(token, tokenSep)
	bad := func() (Action, error) {
		return nil, fmt.Errorf("%w: %q", common.ErrBadToken, token)
	}

	switch ns {
	case nsMenu:
		switch rest {
		case "report":
			return OpenReports{}, nil
		case "main":
			return ShowMenu{}, nil
		}
		if flow := model.Flow(rest); flow.Valid() {
			return StartFlow{Flow: flow}, nil
		}
	case nsNav:
		switch rest {
		case "back":
			return Back{}, nil
		case "cancel":
			return Cancel{}, nil
		case "refresh":
			return Refresh{}, nil
		}
	case nsDate:
		switch choice := DateChoice(rest); choice {
		case DateToday, DateYesterday, DateOther:
			return PickDate{Choice: choice}, nil
		}
	case nsPick:
		step, value, ok := strings.Cut(rest, tokenSep)
		if ok && Step(step).Pickable() && value != "" {
			return Choose{Step: Step(step), Value: value}, nil
		}
	case nsEntity:
		if rest == "retry" {
			return RetryEntity{}, nil
		}
		if i, err := strconv.Atoi(rest); err == nil && i >= 0 {
			return PickCandidate{Index: i}, nil
		}
	case nsObs:
		switch rest {
		case "yes":
			return Observation{Wanted: true}, nil
		case "no":
			return Observation{Wanted: false}, nil
		}
	case nsSave:
		if rest == "retry" {
			return RetrySave{}, nil
		}
	case nsReport:
		y, m, ok := strings.Cut(rest, tokenSep)
		if !ok {
			break
		}
		year, yerr := strconv.Atoi(y)
		month, merr := strconv.Atoi(m)
		if yerr == nil && merr == nil && year > 0 && month >= 0 && month <= 12 {
			return ShowReport{Year: year, Month: month}, nil
		}
	}
	return bad()
}

// Token builders used when rendering buttons.

func menuToken(target string) string { return nsMenu + tokenSep + target }
func navToken(target string) string  { return nsNav + tokenSep + target }
func dateToken(c DateChoice) string  { return nsDate + tokenSep + string(c) }
func entityToken(i int) string       { return nsEntity + tokenSep + strconv.Itoa(i) }
func obsToken(wanted bool) string {
	if wanted {
		return nsObs + tokenSep + "yes"
	}
	return nsObs + tokenSep + "no"
}

func pickToken(step Step, value string) string {
	return nsPick + tokenSep + string(step) + tokenSep + value
}

func reportToken(year, month int) string {
	return nsReport + tokenSep + strconv.Itoa(year) + tokenSep + strconv.Itoa(month)
}
