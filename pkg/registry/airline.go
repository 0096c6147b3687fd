package registry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/aretw0/switchboard/pkg/handoff"
)

// Airline handler names.
const (
	TriageAgent       = "Triage Agent"
	FAQAgent          = "FAQ Agent"
	SeatBookingAgent  = "Seat Booking Agent"
	FlightStatusAgent = "Flight Status Agent"
	CancellationAgent = "Cancellation Agent"
)

const promptPrefix = "# System context\n" +
	"You are part of a multi-agent system designed to make agent coordination and execution easy. " +
	"Handoffs are achieved by calling a handoff function, generally named `transfer_to_<agent_name>`. " +
	"Do not mention or draw attention to these transfers in your conversation with the user.\n"

const confirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewConfirmationNumber returns six random characters from A-Z0-9.
func NewConfirmationNumber() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = confirmationAlphabet[rand.IntN(len(confirmationAlphabet))]
	}
	return string(b)
}

// NewFlightNumber returns "FLT-" followed by three digits.
func NewFlightNumber() string {
	return fmt.Sprintf("FLT-%d", 100+rand.IntN(900))
}

// NewAccountNumber returns eight random digits.
func NewAccountNumber() string {
	return fmt.Sprintf("%d", 10000000+rand.IntN(90000000))
}

// InitialAirlineContext pre-populates the account number.
func InitialAirlineContext() domain.Record {
	rec := domain.NewRecord()
	rec.Set(domain.FieldAccountNumber, NewAccountNumber())
	return rec
}

// OnSeatBookingHandoff guarantees a confirmation and a flight number.
func OnSeatBookingHandoff(_ context.Context, rec domain.Record) error {
	ensure(rec, domain.FieldConfirmationNumber, NewConfirmationNumber)
	ensure(rec, domain.FieldFlightNumber, NewFlightNumber)
	return nil
}

// OnCancellationHandoff guarantees the fields cancel_flight needs.
func OnCancellationHandoff(_ context.Context, rec domain.Record) error {
	ensure(rec, domain.FieldConfirmationNumber, NewConfirmationNumber)
	ensure(rec, domain.FieldFlightNumber, NewFlightNumber)
	return nil
}

func ensure(rec domain.Record, field string, gen func() string) {
	if !rec.Has(field) {
		rec.Set(field, gen())
	}
}

func field(rec domain.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		return v
	}
	return "[unknown]"
}

var airlineFilters = []string{guardrail.RelevanceName, guardrail.JailbreakName}

func backToTriage() []handoff.Handoff {
	return []handoff.Handoff{{To: TriageAgent}}
}

// AirlineHandlers returns the five handlers of the airline demo in display order.
func AirlineHandlers() []Handler {
	return []Handler{
		{
			Name:        TriageAgent,
			Description: "A triage agent that can delegate a customer's request to the appropriate agent.",
			Instructions: Static(promptPrefix +
				"You are a helpful triaging agent. You can use your tools to delegate questions to other appropriate agents."),
			Filters: airlineFilters,
			Handoffs: []handoff.Handoff{
				{To: FlightStatusAgent},
				{To: CancellationAgent, Setup: OnCancellationHandoff, SetupName: "on_cancellation_handoff"},
				{To: FAQAgent},
				{To: SeatBookingAgent, Setup: OnSeatBookingHandoff, SetupName: "on_seat_booking_handoff"},
			},
		},
		{
			Name:        FAQAgent,
			Description: "A helpful agent that can answer questions about the airline.",
			Instructions: Static(promptPrefix +
				"You are an FAQ agent. If you are speaking to a customer, you probably were transferred to from the triage agent.\n" +
				"Use the following routine to support the customer.\n" +
				"1. Identify the last question asked by the customer.\n" +
				"2. Use the faq lookup tool to get the answer. Do not rely on your own knowledge.\n" +
				"3. Respond to the customer with the answer."),
			Tools:    []string{ToolFAQLookup, ToolBaggage},
			Filters:  airlineFilters,
			Handoffs: backToTriage(),
		},
		{
			Name:         SeatBookingAgent,
			Description:  "A helpful agent that can update a seat on a flight.",
			Instructions: seatBookingInstructions,
			Tools:        []string{ToolUpdateSeat, ToolSeatMap},
			Filters:      airlineFilters,
			Handoffs:     backToTriage(),
		},
		{
			Name:         FlightStatusAgent,
			Description:  "An agent to provide flight status information.",
			Instructions: flightStatusInstructions,
			Tools:        []string{ToolFlightStatus},
			Filters:      airlineFilters,
			Handoffs:     backToTriage(),
		},
		{
			Name:         CancellationAgent,
			Description:  "An agent to cancel flights.",
			Instructions: cancellationInstructions,
			Tools:        []string{ToolCancelFlight},
			Filters:      airlineFilters,
			Handoffs:     backToTriage(),
		},
	}
}

func seatBookingInstructions(rec domain.Record) string {
	var b strings.Builder
	b.WriteString(promptPrefix)
	b.WriteString("You are a seat booking agent. If you are speaking to a customer, you probably were transferred to from the triage agent.\n")
	b.WriteString("Use the following routine to support the customer.\n")
	fmt.Fprintf(&b, "1. The customer's confirmation number is %s. If this is not available, ask the customer for their confirmation number. If you have it, confirm that is the confirmation number they are referencing.\n",
		field(rec, domain.FieldConfirmationNumber))
	b.WriteString("2. Ask the customer what their desired seat number is. You can also use the display_seat_map tool to show them an interactive seat map where they can click to select their preferred seat.\n")
	b.WriteString("3. Use the update seat tool to update the seat on the flight.\n")
	b.WriteString("If the customer asks a question that is not related to the routine, transfer back to the triage agent.")
	return b.String()
}

func flightStatusInstructions(rec domain.Record) string {
	return promptPrefix + fmt.Sprintf(
		"You are a Flight Status Agent. Use the following routine to support the customer:\n"+
			"1. The customer's confirmation number is %s and flight number is %s.\n"+
			"   If either is not available, ask the customer for the missing information. If you have both, confirm with the customer that these are correct.\n"+
			"2. Use the flight_status_tool to report the status of the flight.\n"+
			"If the customer asks a question that is not related to flight status, transfer back to the triage agent.",
		field(rec, domain.FieldConfirmationNumber), field(rec, domain.FieldFlightNumber))
}

func cancellationInstructions(rec domain.Record) string {
	return promptPrefix + fmt.Sprintf(
		"You are a Cancellation Agent. Use the following routine to support the customer:\n"+
			"1. The customer's confirmation number is %s and flight number is %s.\n"+
			"   If either is not available, ask the customer for the missing information. If you have both, confirm with the customer that these are correct.\n"+
			"2. If the customer confirms, use the cancel_flight tool to cancel their flight.\n"+
			"If the customer asks anything else, transfer back to the triage agent.",
		field(rec, domain.FieldConfirmationNumber), field(rec, domain.FieldFlightNumber))
}

// Airline builds the registry of the airline demo.
func Airline(opts ...Option) (*Registry, error) {
	opts = append([]Option{WithInitialContext(InitialAirlineContext)}, opts...)
	return New(TriageAgent, AirlineTools(), AirlineHandlers(), opts...)
}

// MustAirline is Airline for static initialization; the catalog is known to be valid.
func MustAirline() *Registry {
	r, err := Airline()
	if err != nil {
		panic(err)
	}
	return r
}
