package reasoner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/google/uuid"
)

// Skill produces a decision for a handler once routing has decided the
// message belongs to it.
type Skill func(inv domain.Invocation, msg string) domain.Decision

// Rules is a deterministic ports.Reasoner.
type Rules struct {
	triage string
	routes []Route
	skills map[string]Skill
	logger *slog.Logger
}

// Option configures Rules.
type Option func(*Rules)

// WithRoutes replaces the intent routing table.
func WithRoutes(routes ...Route) Option {
	return func(r *Rules) {
		r.routes = routes
	}
}

// WithSkill installs or replaces the skill of a handler.
func WithSkill(handler string, s Skill) Option {
	return func(r *Rules) {
		r.skills[handler] = s
	}
}

// WithTriage names the handler specialists fall back to.
func WithTriage(name string) Option {
	return func(r *Rules) {
		r.triage = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rules) {
		r.logger = logger
	}
}

// NewRules creates a reasoner configured for the airline catalog.
func NewRules(opts ...Option) *Rules {
	r := &Rules{
		triage: registry.TriageAgent,
		routes: AirlineRoutes,
		skills: map[string]Skill{
			registry.TriageAgent:       greet,
			registry.FAQAgent:          faq,
			registry.SeatBookingAgent:  seatBooking,
			registry.FlightStatusAgent: flightStatus,
			registry.CancellationAgent: cancellation,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next implements ports.Reasoner.
func (r *Rules) Next(ctx context.Context, inv domain.Invocation) (domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}

	if pending := inv.PendingToolResults(); len(pending) > 0 {
		return answer(pending), nil
	}

	msg := inv.LastUserMessage()
	if target := match(msg, r.routes); target != "" && target != inv.Handler.Name {
		if declares(inv, target) {
			r.logger.Debug("Routing message", "handler", inv.Handler.Name, "target", target)
			return domain.TransferTo(target, nil), nil
		}
		if inv.Handler.Name != r.triage && declares(inv, r.triage) {
			return domain.TransferTo(r.triage, nil), nil
		}
	}

	if hasAny(msg, closings) && !hasAny(msg, affirmations) && inv.Handler.Name != r.triage {
		return domain.Say("You're welcome. Is there anything else I can help you with?"), nil
	}

	skill, ok := r.skills[inv.Handler.Name]
	if !ok {
		return domain.Say("How can I help you with your trip today?"), nil
	}
	return skill(inv, msg), nil
}

func declares(inv domain.Invocation, target string) bool {
	for _, h := range inv.Handoffs {
		if h.Target == target {
			return true
		}
	}
	return false
}

// answer narrates tool results back to the customer. The seat map sentinel
// must reach the UI byte for byte.
func answer(results []domain.Entry) domain.Decision {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		switch {
		case res.IsError:
			parts = append(parts, "I couldn't complete that yet: "+res.Content+". Could you give me the missing details?")
		case res.ToolName == registry.ToolSeatMap:
			if len(results) == 1 {
				return domain.Say(res.Content)
			}
			parts = append(parts, res.Content)
		default:
			parts = append(parts, res.Content)
		}
	}
	return domain.Say(strings.Join(parts, "\n"))
}

func call(name string, args map[string]any) domain.Decision {
	return domain.Call(domain.ToolCall{ID: "call_" + uuid.NewString(), Name: name, Args: args})
}

func known(inv domain.Invocation, field string) string {
	v, _ := inv.Context.Get(field)
	return v
}

func greet(domain.Invocation, string) domain.Decision {
	return domain.Say("Hello! I can help with seat changes, flight status and cancellations, " +
		"or answer questions about baggage and our planes. What can I do for you?")
}

func faq(_ domain.Invocation, msg string) domain.Decision {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "fee") || strings.Contains(lower, "allowance") {
		return call(registry.ToolBaggage, map[string]any{"query": msg})
	}
	return call(registry.ToolFAQLookup, map[string]any{"question": msg})
}

func seatBooking(inv domain.Invocation, msg string) domain.Decision {
	if seat := seatRef.FindString(msg); seat != "" {
		conf := confirmationRef.FindString(msg)
		if conf == "" {
			conf = known(inv, domain.FieldConfirmationNumber)
		}
		if conf == "" {
			return domain.Say("What is your confirmation number?")
		}
		return call(registry.ToolUpdateSeat, map[string]any{
			"confirmation_number": conf,
			"new_seat":            strings.ToUpper(seat),
		})
	}

	lower := strings.ToLower(msg)
	if strings.Contains(lower, "map") || strings.Contains(lower, "show") || strings.Contains(lower, "change") {
		return call(registry.ToolSeatMap, nil)
	}

	if conf := known(inv, domain.FieldConfirmationNumber); conf != "" {
		return domain.Say(fmt.Sprintf("I have confirmation number %s on file. Which seat would you like?", conf))
	}
	return domain.Say("What is your confirmation number?")
}

func flightStatus(inv domain.Invocation, msg string) domain.Decision {
	if fn := flightRef.FindString(msg); fn != "" {
		return call(registry.ToolFlightStatus, map[string]any{"flight_number": strings.ToUpper(fn)})
	}
	if known(inv, domain.FieldFlightNumber) != "" {
		return call(registry.ToolFlightStatus, nil)
	}
	return domain.Say("Which flight number should I check?")
}

func cancellation(inv domain.Invocation, msg string) domain.Decision {
	if hasAny(msg, affirmations) {
		return call(registry.ToolCancelFlight, nil)
	}
	return domain.Say(fmt.Sprintf(
		"I see confirmation number %s for flight %s. Would you like me to cancel it?",
		orUnknown(known(inv, domain.FieldConfirmationNumber)),
		orUnknown(known(inv, domain.FieldFlightNumber)),
	))
}

func orUnknown(s string) string {
	if s == "" {
		return "[unknown]"
	}
	return s
}
