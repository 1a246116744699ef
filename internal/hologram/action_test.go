package hologram

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"NEXT_PAGE", Action{Type: ActionNextPage}, false},
		{"prev_page", Action{Type: ActionPrevPage}, false},
		{"PAGE:3", Action{Type: ActionPage, Argument: "3"}, false},
		{"MESSAGE:hello: world", Action{Type: ActionMessage, Argument: "hello: world"}, false},
		{"SOUND:ding", Action{Type: "SOUND", Argument: "ding"}, false},
		{"", Action{}, true},
		{":orphan", Action{}, true},
		{"PAGE:0", Action{}, true},
		{"PAGE", Action{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAction) {
					t.Fatalf("ParseAction(%q) error = %v, want ErrInvalidAction", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseClickType(t *testing.T) {
	if got, err := ParseClickType(" shift_right "); err != nil || got != ClickShiftRight {
		t.Errorf("ParseClickType() = %q, %v", got, err)
	}
	if _, err := ParseClickType("MIDDLE"); !errors.Is(err, ErrInvalidClickType) {
		t.Errorf("ParseClickType(MIDDLE) error = %v", err)
	}
}

func TestAction_TargetPage(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		current int
		pages   int
		want    int
	}{
		{"next", Action{Type: ActionNextPage}, 0, 3, 1},
		{"next at end", Action{Type: ActionNextPage}, 2, 3, 2},
		{"prev", Action{Type: ActionPrevPage}, 2, 3, 1},
		{"prev at start", Action{Type: ActionPrevPage}, 0, 3, 0},
		{"page is one-based", Action{Type: ActionPage, Argument: "2"}, 0, 3, 1},
		{"page past end", Action{Type: ActionPage, Argument: "9"}, 0, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.targetPage(tt.current, tt.pages); got != tt.want {
				t.Errorf("targetPage(%d, %d) = %d, want %d", tt.current, tt.pages, got, tt.want)
			}
		})
	}
}
