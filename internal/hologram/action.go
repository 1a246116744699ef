package hologram

import (
	"fmt"
	"strconv"
	"strings"
)

// ClickType is the kind of interaction an observer performed on a line.
type ClickType string

const (
	ClickLeft       ClickType = "LEFT"
	ClickRight      ClickType = "RIGHT"
	ClickShiftLeft  ClickType = "SHIFT_LEFT"
	ClickShiftRight ClickType = "SHIFT_RIGHT"
)

// AllClickTypes returns every supported click type.
func AllClickTypes() []ClickType {
	return []ClickType{ClickLeft, ClickRight, ClickShiftLeft, ClickShiftRight}
}

// ParseClickType parses a click type name, case-insensitively.
func ParseClickType(s string) (ClickType, error) {
	ct := ClickType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllClickTypes() {
		if ct == known {
			return ct, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidClickType, s)
}

// ActionType names what an action does when a page is clicked.
type ActionType string

// Page navigation actions are executed by the core. Every other action type
// is forwarded to the host's ActionHandler.
const (
	ActionNextPage ActionType = "NEXT_PAGE"
	ActionPrevPage ActionType = "PREV_PAGE"
	ActionPage     ActionType = "PAGE"
	ActionMessage  ActionType = "MESSAGE"
	ActionCommand  ActionType = "COMMAND"
	ActionURL      ActionType = "URL"
)

// Action is one step executed when a display claims an interaction.
type Action struct {
	Type     ActionType `json:"type"`
	Argument string     `json:"argument,omitempty"`
}

// ParseAction parses "TYPE" or "TYPE:argument".
//
// PAGE requires a positive 1-based page number.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Action{}, fmt.Errorf("%w: empty", ErrInvalidAction)
	}

	name, arg, _ := strings.Cut(s, ":")
	a := Action{
		Type:     ActionType(strings.ToUpper(strings.TrimSpace(name))),
		Argument: strings.TrimSpace(arg),
	}
	if a.Type == "" {
		return Action{}, fmt.Errorf("%w: %q has no type", ErrInvalidAction, s)
	}

	if a.Type == ActionPage {
		n, err := strconv.Atoi(a.Argument)
		if err != nil || n < 1 {
			return Action{}, fmt.Errorf("%w: %q needs a page number", ErrInvalidAction, s)
		}
	}
	return a, nil
}

// String renders the action in the form accepted by ParseAction.
func (a Action) String() string {
	if a.Argument == "" {
		return string(a.Type)
	}
	return string(a.Type) + ":" + a.Argument
}

// isNavigation reports whether the core handles the action itself.
func (a Action) isNavigation() bool {
	switch a.Type {
	case ActionNextPage, ActionPrevPage, ActionPage:
		return true
	default:
		return false
	}
}

// targetPage computes the page an observer moves to, clamped to [0, pages).
func (a Action) targetPage(current, pages int) int {
	next := current
	switch a.Type {
	case ActionNextPage:
		next = current + 1
	case ActionPrevPage:
		next = current - 1
	case ActionPage:
		n, _ := strconv.Atoi(a.Argument) //nolint:errcheck // validated by ParseAction
		next = n - 1
	}
	if next < 0 {
		return 0
	}
	if next >= pages {
		return pages - 1
	}
	return next
}
