package registry_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/aretw0/switchboard/pkg/handoff"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAirline_Order(t *testing.T) {
	r := registry.MustAirline()

	var names []string
	for _, h := range r.List() {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{
		registry.TriageAgent,
		registry.FAQAgent,
		registry.SeatBookingAgent,
		registry.FlightStatusAgent,
		registry.CancellationAgent,
	}, names)
}

func TestResolve_DegradesToTriage(t *testing.T) {
	r := registry.MustAirline()

	assert.Equal(t, registry.TriageAgent, r.Resolve("").Name)
	assert.Equal(t, registry.TriageAgent, r.Resolve("Lost Luggage Agent").Name)
	assert.Equal(t, registry.FAQAgent, r.Resolve(registry.FAQAgent).Name)

	_, ok := r.Lookup("Lost Luggage Agent")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	r := registry.MustAirline()
	infos := r.Describe()
	require.Len(t, infos, 5)

	triage := infos[0]
	assert.ElementsMatch(t, []string{
		registry.FlightStatusAgent, registry.CancellationAgent, registry.FAQAgent, registry.SeatBookingAgent,
	}, triage.TransfersTo)
	assert.Empty(t, triage.Tools)
	assert.Equal(t, []string{guardrail.RelevanceName, guardrail.JailbreakName}, triage.RequiredFilters)

	seat := infos[2]
	assert.Equal(t, []string{registry.TriageAgent}, seat.TransfersTo)
	assert.Equal(t, []string{registry.ToolUpdateSeat, registry.ToolSeatMap}, seat.Tools)
}

func TestTool_Permissions(t *testing.T) {
	r := registry.MustAirline()

	_, err := r.Tool(registry.SeatBookingAgent, registry.ToolUpdateSeat)
	assert.NoError(t, err)

	_, err = r.Tool(registry.FAQAgent, registry.ToolUpdateSeat)
	assert.ErrorIs(t, err, domain.ErrToolNotAllowed)

	_, err = r.Tool(registry.FAQAgent, "launch_rocket")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestInstructions_AreReadOnly(t *testing.T) {
	r := registry.MustAirline()
	rec := domain.Record{domain.FieldConfirmationNumber: "ABC123"}

	text := r.Resolve(registry.SeatBookingAgent).Render(rec)
	assert.Contains(t, text, "ABC123")
	assert.Equal(t, domain.Record{domain.FieldConfirmationNumber: "ABC123"}, rec)

	text = r.Resolve(registry.CancellationAgent).Render(domain.NewRecord())
	assert.Contains(t, text, "[unknown]")
}

func TestValidate_StarTopology(t *testing.T) {
	tools := registry.AirlineTools()

	tests := []struct {
		name     string
		handlers []registry.Handler
	}{
		{
			name: "missing triage",
			handlers: []registry.Handler{
				{Name: "A", Handoffs: []handoff.Handoff{{To: "B"}}},
				{Name: "B", Handoffs: []handoff.Handoff{{To: "A"}}},
			},
		},
		{
			name: "orphan handler",
			handlers: []registry.Handler{
				{Name: "Triage"},
				{Name: "Orphan", Handoffs: []handoff.Handoff{{To: "Triage"}}},
			},
		},
		{
			name: "no way back",
			handlers: []registry.Handler{
				{Name: "Triage", Handoffs: []handoff.Handoff{{To: "A"}}},
				{Name: "A"},
			},
		},
		{
			name: "specialist to specialist",
			handlers: []registry.Handler{
				{Name: "Triage", Handoffs: []handoff.Handoff{{To: "A"}, {To: "B"}}},
				{Name: "A", Handoffs: []handoff.Handoff{{To: "Triage"}, {To: "B"}}},
				{Name: "B", Handoffs: []handoff.Handoff{{To: "Triage"}}},
			},
		},
		{
			name: "unknown tool",
			handlers: []registry.Handler{
				{Name: "Triage", Tools: []string{"nope"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.New("Triage", tools, tt.handlers)
			assert.Error(t, err)
		})
	}
}

func TestSetupRoutines(t *testing.T) {
	confirmation := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	flight := regexp.MustCompile(`^FLT-\d{3}$`)

	for _, setup := range []handoff.SetupFunc{registry.OnSeatBookingHandoff, registry.OnCancellationHandoff} {
		rec := domain.NewRecord()
		require.NoError(t, setup(context.Background(), rec))
		assert.Regexp(t, confirmation, rec[domain.FieldConfirmationNumber])
		assert.Regexp(t, flight, rec[domain.FieldFlightNumber])

		// Existing values are kept.
		rec = domain.Record{domain.FieldConfirmationNumber: "KEEP01", domain.FieldFlightNumber: "FLT-777"}
		require.NoError(t, setup(context.Background(), rec))
		assert.Equal(t, "KEEP01", rec[domain.FieldConfirmationNumber])
		assert.Equal(t, "FLT-777", rec[domain.FieldFlightNumber])
	}
}

func TestInitialContext(t *testing.T) {
	rec := registry.MustAirline().NewContext()
	assert.Regexp(t, `^\d{8}$`, rec[domain.FieldAccountNumber])
	assert.Len(t, rec, 1)
}
