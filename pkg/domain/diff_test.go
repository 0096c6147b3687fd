package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      Record
		new      Record
		wantDiff map[string]any
	}{
		{
			name:     "Initial Load (Old is Nil)",
			old:      nil,
			new:      Record{FieldAccountNumber: "12345678"},
			wantDiff: map[string]any{FieldAccountNumber: "12345678"},
		},
		{
			name:     "No Changes",
			old:      Record{FieldAccountNumber: "12345678"},
			new:      Record{FieldAccountNumber: "12345678"},
			wantDiff: nil,
		},
		{
			name: "Added & Modified",
			old:  Record{FieldAccountNumber: "1", FieldSeatNumber: "12A"},
			new: Record{
				FieldAccountNumber: "1",
				FieldSeatNumber:    "14C",
				FieldFlightNumber:  "FLT-123",
			},
			wantDiff: map[string]any{FieldSeatNumber: "14C", FieldFlightNumber: "FLT-123"},
		},
		{
			name:     "Deletion",
			old:      Record{FieldAccountNumber: "1", FieldSeatNumber: "12A"},
			new:      Record{FieldAccountNumber: "1"},
			wantDiff: map[string]any{FieldSeatNumber: nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				t.Errorf("Diff() = %v, want %v", got, tt.wantDiff)
			}
		})
	}
}

func TestDiff_JSONShape(t *testing.T) {
	got := Diff(Record{}, Record{FieldFlightNumber: "FLT-100"})

	b, err := json.Marshal(map[string]any{"changes": got})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"changes":{"flight_number":"FLT-100"}}`; string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}

func TestHistoryDelta(t *testing.T) {
	h := []Entry{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "seat"},
	}

	if got := HistoryDelta(h, 3); got != nil {
		t.Errorf("HistoryDelta(3) = %v, want nil", got)
	}
	got := HistoryDelta(h, 1)
	if len(got) != 2 || got[0].Content != "hello" {
		t.Errorf("HistoryDelta(1) = %v", got)
	}
	got[0].Content = "mutated"
	if h[1].Content != "hello" {
		t.Error("HistoryDelta must return a copy")
	}
}

func TestRecord(t *testing.T) {
	r := NewRecord()
	r.Set(FieldSeatNumber, "12A")
	if v, ok := r.Get(FieldSeatNumber); !ok || v != "12A" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}

	c := r.Clone()
	c.Set(FieldSeatNumber, "")
	if !r.Has(FieldSeatNumber) {
		t.Error("Clone must be isolated")
	}
	if c.Has(FieldSeatNumber) {
		t.Error("Set with empty value must clear the field")
	}

	snap := r.Snapshot()
	for _, k := range KnownFields {
		if _, ok := snap[k]; !ok {
			t.Errorf("Snapshot missing %q", k)
		}
	}
	if snap[FieldPassengerName] != nil {
		t.Errorf("unset field should be nil, got %v", snap[FieldPassengerName])
	}
}

func TestConversationClone(t *testing.T) {
	c := NewConversation("c1", "Triage Agent", Record{FieldAccountNumber: "1"})
	c.Append(Entry{Role: RoleUser, Content: "hi"})
	c.Events = []Event{{ID: "e1", Type: EventMessage, Metadata: map[string]any{"k": "v"}}}

	cp := c.Clone()
	cp.Context.Set(FieldSeatNumber, "1A")
	cp.History[0].Content = "changed"
	cp.Events[0].Metadata["k"] = "changed"

	if c.Context.Has(FieldSeatNumber) {
		t.Error("context leaked into original")
	}
	if c.History[0].Content != "hi" {
		t.Error("history leaked into original")
	}
	if c.Events[0].Metadata["k"] != "v" {
		t.Error("event metadata leaked into original")
	}
	if c.LastUserMessage() != "hi" || c.IsNew() {
		t.Error("unexpected conversation accessors")
	}
}
