package things

import (
	"strings"
	"testing"
)

func TestThingIsNew(t *testing.T) {
	var missing *Thing
	if !missing.IsNew() {
		t.Fatalf("expected nil thing to be new")
	}

	if !NewThing("widget").IsNew() {
		t.Fatalf("expected unsaved thing to be new")
	}

	if (&Thing{ID: 1}).IsNew() {
		t.Fatalf("expected thing with id to not be new")
	}
}

func TestThingName(t *testing.T) {
	thing := NewThing("widget")
	if got := thing.GetName(); got != "widget" {
		t.Fatalf("expected name %q, got %q", "widget", got)
	}

	thing.SetName(nil)
	if thing.Name != nil || thing.GetName() != "" {
		t.Fatalf("expected name to be cleared")
	}

	var missing *Thing
	if missing.GetName() != "" {
		t.Fatalf("expected empty name for nil thing")
	}
}

func TestThingValidate(t *testing.T) {
	long := strings.Repeat("x", MaxNameLength+1)
	exact := strings.Repeat("x", MaxNameLength)
	accented := strings.Repeat("é", MaxNameLength)
	accentedLong := strings.Repeat("é", MaxNameLength+1)

	cases := []struct {
		name    string
		thing   Thing
		wantErr bool
	}{
		{name: "new thing", thing: *NewThing("widget")},
		{name: "null name", thing: Thing{}},
		{name: "name at limit", thing: Thing{Name: &exact}},
		{name: "name too long", thing: Thing{Name: &long}, wantErr: true},
		{name: "multibyte name at limit", thing: Thing{Name: &accented}},
		{name: "multibyte name too long", thing: Thing{Name: &accentedLong}, wantErr: true},
		{name: "negative id", thing: Thing{ID: -1}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.thing.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
