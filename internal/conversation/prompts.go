package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// User-facing messages.
const (
	msgUnauthorized      = "⛔ You are not allowed to use this ledger."
	msgSlowDown          = "⏳ Too many messages, wait a moment and try again."
	msgUnavailable       = "⚠️ The spreadsheet is not reachable right now. Your entry is kept, try again in a moment."
	msgCancelled         = "❌ Cancelled."
	msgNoSession         = "Nothing in progress."
	msgNoReports         = "Reports are not available."
	msgUnknownButton     = "I did not understand that button."
	msgInvalidInput      = "That did not work, try again."
	msgStale             = "That option is no longer available."
	msgUseButtons        = "Please use the buttons."
	msgEmptyText         = "Please type something."
	msgBadDate           = "I could not read that date. Use DD/MM/YYYY."
	msgBadAmount         = "I could not read that amount. Use something like 12,50 or 12.50."
	msgAmountNotPositive = "The amount must be greater than zero."
	msgSaveFailed        = "⚠️ The entry could not be saved. Nothing is lost, press retry."
	msgSavedExpense      = "✅ Saved %s € in %s on %s."
	msgSavedItem         = "✅ Added %s to the %s list."
	msgSavedWork         = "✅ Added %s € for %s, this month is now %s €."
	msgMenu              = "What do you want to do?"
)

// buttonsPerRow lays out option buttons.
const buttonsPerRow = 2

var promptTexts = map[State]string{
	StateAwaitingDate:            "📅 When was it?",
	StateAwaitingDateText:        "📅 Type the date (DD/MM/YYYY).",
	StateAwaitingPerson:          "👤 Who is it for?",
	StateAwaitingPayer:           "💳 Who paid?",
	StateAwaitingType:            "🏷️ Which type?",
	StateAwaitingCategory:        "📂 Which category?",
	StateAwaitingSub1:            "📂 Which subcategory?",
	StateAwaitingSub2:            "📂 Which subcategory?",
	StateAwaitingSub3:            "📂 Which subcategory?",
	StateAwaitingEntity:          "🏪 Which shop? Type its name.",
	StateAwaitingEntityConfirm:   "🏪 Did you mean one of these?",
	StateAwaitingItem:            "🛒 What do you need?",
	StateAwaitingContributor:     "👤 Who is it for?",
	StateAwaitingObservation:     "📝 Add a note?",
	StateAwaitingObservationText: "📝 Type the note.",
	StateAwaitingAmount:          "💶 How much? (e.g. 12,50)",
	StateAwaitingSaveRetry:       msgSaveFailed,
}

var flowTitles = map[model.Flow]string{
	model.FlowExpense:  "💸 New expense",
	model.FlowShopping: "🛒 Shopping list",
	model.FlowWork:     "💼 Work expense",
}

// render builds the prompt of st. options are the values offered by choice
// states and the candidates of the confirmation state.
func render(sess *Session, st State, options []string, notice string) model.Reply {
	var lines []string
	if notice != "" {
		lines = append(lines, notice)
	}
	if header := breadcrumb(sess); header != "" {
		lines = append(lines, header)
	}
	lines = append(lines, promptTexts[st])

	var rows [][]model.Button
	switch st {
	case StateAwaitingDate:
		rows = append(rows,
			[]model.Button{{Label: "Today", Token: dateToken(DateToday)}, {Label: "Yesterday", Token: dateToken(DateYesterday)}},
			[]model.Button{{Label: "Other date", Token: dateToken(DateOther)}},
		)
	case StateAwaitingEntityConfirm:
		for i, label := range options {
			rows = append(rows, []model.Button{{Label: label, Token: entityToken(i)}})
		}
		rows = append(rows, []model.Button{{Label: "✏️ Type again", Token: nsEntity + tokenSep + "retry"}})
	case StateAwaitingObservation:
		rows = append(rows, []model.Button{{Label: "Yes", Token: obsToken(true)}, {Label: "No", Token: obsToken(false)}})
	case StateAwaitingSaveRetry:
		rows = append(rows, []model.Button{{Label: "🔁 Retry save", Token: nsSave + tokenSep + "retry"}})
	default:
		if step, ok := awaitedStep(st); ok {
			if len(options) == 0 {
				lines = append(lines, "(nothing to choose from, check the lists table)")
			}
			rows = append(rows, grid(step, options)...)
		}
	}
	rows = append(rows, []model.Button{
		{Label: "⬅️ Back", Token: navToken("back")},
		{Label: "✖️ Cancel", Token: navToken("cancel")},
	})

	return model.Reply{Text: strings.Join(lines, "\n"), Buttons: rows}
}

func grid(step Step, options []string) [][]model.Button {
	var rows [][]model.Button
	for i := 0; i < len(options); i += buttonsPerRow {
		end := min(i+buttonsPerRow, len(options))
		row := make([]model.Button, 0, end-i)
		for _, value := range options[i:end] {
			row = append(row, model.Button{Label: value, Token: pickToken(step, value)})
		}
		rows = append(rows, row)
	}
	return rows
}

// breadcrumb summarizes what the session holds so far.
func breadcrumb(sess *Session) string {
	sel := sess.Current.Selections
	parts := []string{flowTitles[sess.Flow]}
	if date := sel[StepDate]; date != "" {
		parts = append(parts, date)
	}
	for _, step := range []Step{StepPerson, StepContributor, StepEstablishment} {
		if v := sel[step]; v != "" {
			parts = append(parts, v)
		}
	}

	var path []string
	for _, v := range sess.Current.taxonomyPrefix() {
		if v != model.Empty {
			path = append(path, v)
		}
	}
	if len(path) > 0 {
		parts = append(parts, strings.Join(path, " › "))
	}
	return strings.Join(parts, " · ")
}

func menuReply(notice string) model.Reply {
	text := msgMenu
	if notice != "" {
		text = notice + "\n" + msgMenu
	}
	return model.Reply{
		Text: text,
		Buttons: [][]model.Button{
			{{Label: "💸 Expense", Token: menuToken(string(model.FlowExpense))}, {Label: "🛒 Shopping", Token: menuToken(string(model.FlowShopping))}},
			{{Label: "💼 Work", Token: menuToken(string(model.FlowWork))}, {Label: "📊 Report", Token: menuToken("report")}},
		},
	}
}

func reportMenuReply(now time.Time) model.Reply {
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	return model.Reply{
		Text: "📊 Which period?",
		Buttons: [][]model.Button{
			{
				{Label: fmt.Sprintf("This month (%02d/%d)", int(now.Month()), now.Year()), Token: reportToken(now.Year(), int(now.Month()))},
				{Label: fmt.Sprintf("Last month (%02d/%d)", int(prev.Month()), prev.Year()), Token: reportToken(prev.Year(), int(prev.Month()))},
			},
			{{Label: fmt.Sprintf("Year %d", now.Year()), Token: reportToken(now.Year(), 0)}},
			{{Label: "🏠 Menu", Token: menuToken("main")}},
		},
	}
}

func unavailableReply() model.Reply {
	return model.Reply{
		Text: msgUnavailable,
		Buttons: [][]model.Button{
			{{Label: "🔁 Try again", Token: navToken("refresh")}},
			{{Label: "⬅️ Back", Token: navToken("back")}, {Label: "✖️ Cancel", Token: navToken("cancel")}},
		},
	}
}
