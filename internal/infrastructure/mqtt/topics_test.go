package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"RenderShow", topics.RenderShow("obs-1"), "holocore/render/obs-1/show"},
		{"RenderHide", topics.RenderHide("obs-1"), "holocore/render/obs-1/hide"},
		{"RenderAction", topics.RenderAction("obs-1"), "holocore/render/obs-1/action"},
		{"RenderHideAll", topics.RenderHideAll(), "holocore/render/all/hide"},
		{"ObserverPresence", topics.ObserverPresence("obs-1"), "holocore/observer/obs-1/presence"},
		{"ObserverInteract", topics.ObserverInteract("obs-1"), "holocore/observer/obs-1/interact"},
		{"AllObservers", topics.AllObservers(), "holocore/observer/+/+"},
		{"SystemStatus", topics.SystemStatus(), "holocore/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestParseObserverTopic(t *testing.T) {
	tests := []struct {
		topic    string
		wantID   string
		wantKind string
		wantOK   bool
	}{
		{"holocore/observer/abc/presence", "abc", KindPresence, true},
		{"holocore/observer/abc/interact", "abc", KindInteract, true},
		{Topics{}.ObserverInteract("x-y"), "x-y", KindInteract, true},
		{"holocore/observer/abc", "", "", false},
		{"holocore/observer//presence", "", "", false},
		{"holocore/render/abc/show", "", "", false},
		{"other/observer/abc/presence", "", "", false},
		{"holocore/observer/abc/presence/extra", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			id, kind, ok := ParseObserverTopic(tt.topic)
			if id != tt.wantID || kind != tt.wantKind || ok != tt.wantOK {
				t.Errorf("ParseObserverTopic(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.topic, id, kind, ok, tt.wantID, tt.wantKind, tt.wantOK)
			}
		})
	}
}
