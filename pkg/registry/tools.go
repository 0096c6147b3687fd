package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Airline tool names.
const (
	ToolFAQLookup    = "faq_lookup_tool"
	ToolUpdateSeat   = "update_seat"
	ToolSeatMap      = "display_seat_map"
	ToolFlightStatus = "flight_status_tool"
	ToolBaggage      = "baggage_tool"
	ToolCancelFlight = "cancel_flight"
)

// decodeArgs decodes tool arguments into a struct. Missing keys listed in
// required surface as a precondition error the handler can recover from.
func decodeArgs(tool string, args map[string]any, out any, required ...string) error {
	for _, key := range required {
		if v, ok := args[key]; !ok || v == nil || v == "" {
			return &domain.PreconditionError{Tool: tool, Field: key}
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%s: invalid arguments: %w", tool, err)
	}
	return nil
}

func stringParam(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func schema(required []string, props map[string]any) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// AirlineTools returns the tool catalog of the airline demo.
func AirlineTools() []Tool {
	return []Tool{
		{
			Name:        ToolFAQLookup,
			Description: "Lookup frequently asked questions.",
			Parameters:  schema([]string{"question"}, map[string]any{"question": stringParam("The customer's question.")}),
			Fn:          faqLookup,
		},
		{
			Name:        ToolUpdateSeat,
			Description: "Update the seat for a given confirmation number.",
			Parameters: schema([]string{"confirmation_number", "new_seat"}, map[string]any{
				"confirmation_number": stringParam("The confirmation number for the flight."),
				"new_seat":            stringParam("The new seat to update to."),
			}),
			Fn: updateSeat,
		},
		{
			Name:        ToolSeatMap,
			Description: "Display an interactive seat map to the customer so they can choose a new seat.",
			Parameters:  schema(nil, map[string]any{}),
			Fn: func(context.Context, domain.Record, map[string]any) (string, error) {
				return domain.SeatMapSentinel, nil
			},
		},
		{
			Name:        ToolFlightStatus,
			Description: "Lookup status for a flight.",
			Parameters:  schema([]string{"flight_number"}, map[string]any{"flight_number": stringParam("The flight number.")}),
			Fn:          flightStatus,
		},
		{
			Name:        ToolBaggage,
			Description: "Lookup baggage allowance and fees.",
			Parameters:  schema([]string{"query"}, map[string]any{"query": stringParam("The baggage question.")}),
			Fn:          baggage,
		},
		{
			Name:        ToolCancelFlight,
			Description: "Cancel a flight.",
			Parameters:  schema(nil, map[string]any{}),
			Fn:          cancelFlight,
		},
	}
}

func faqLookup(_ context.Context, _ domain.Record, args map[string]any) (string, error) {
	var in struct {
		Question string `mapstructure:"question"`
	}
	if err := decodeArgs(ToolFAQLookup, args, &in, "question"); err != nil {
		return "", err
	}
	q := strings.ToLower(in.Question)
	switch {
	case containsAny(q, "bag", "baggage", "luggage", "carry-on", "hand luggage", "hand carry"):
		return "You are allowed to bring one bag on the plane. " +
			"It must be under 50 pounds and 22 inches x 14 inches x 9 inches.", nil
	case containsAny(q, "seats", "plane"):
		return "There are 120 seats on the plane. " +
			"There are 22 business class seats and 98 economy seats. " +
			"Exit rows are rows 4 and 16. " +
			"Rows 5-8 are Economy Plus, with extra legroom.", nil
	case containsAny(q, "wifi", "internet", "wireless"):
		return "We have free wifi on the plane, join Airline-Wifi", nil
	}
	return "I'm sorry, I don't know the answer to that question.", nil
}

func updateSeat(_ context.Context, rec domain.Record, args map[string]any) (string, error) {
	var in struct {
		ConfirmationNumber string `mapstructure:"confirmation_number"`
		NewSeat            string `mapstructure:"new_seat"`
	}
	if err := decodeArgs(ToolUpdateSeat, args, &in, "confirmation_number", "new_seat"); err != nil {
		return "", err
	}
	if _, err := domain.Require(ToolUpdateSeat, rec, domain.FieldFlightNumber); err != nil {
		return "", err
	}
	rec.Set(domain.FieldConfirmationNumber, in.ConfirmationNumber)
	rec.Set(domain.FieldSeatNumber, in.NewSeat)
	return fmt.Sprintf("Updated seat to %s for confirmation number %s", in.NewSeat, in.ConfirmationNumber), nil
}

func flightStatus(_ context.Context, rec domain.Record, args map[string]any) (string, error) {
	var in struct {
		FlightNumber string `mapstructure:"flight_number"`
	}
	if _, ok := args["flight_number"]; !ok {
		// Fall back to the flight on record.
		fn, err := domain.Require(ToolFlightStatus, rec, domain.FieldFlightNumber)
		if err != nil {
			return "", err
		}
		args = map[string]any{"flight_number": fn}
	}
	if err := decodeArgs(ToolFlightStatus, args, &in, "flight_number"); err != nil {
		return "", err
	}
	return fmt.Sprintf("Flight %s is on time and scheduled to depart at gate A10.", in.FlightNumber), nil
}

func baggage(_ context.Context, _ domain.Record, args map[string]any) (string, error) {
	var in struct {
		Query string `mapstructure:"query"`
	}
	if err := decodeArgs(ToolBaggage, args, &in, "query"); err != nil {
		return "", err
	}
	q := strings.ToLower(in.Query)
	switch {
	case strings.Contains(q, "fee"):
		return "Overweight bag fee is $75.", nil
	case strings.Contains(q, "allowance"):
		return "One carry-on and one checked bag (up to 50 lbs) are included.", nil
	}
	return "Please provide more details about your baggage inquiry.", nil
}

func cancelFlight(_ context.Context, rec domain.Record, _ map[string]any) (string, error) {
	fn, err := domain.Require(ToolCancelFlight, rec, domain.FieldFlightNumber)
	if err != nil {
		return "", err
	}
	cn, err := domain.Require(ToolCancelFlight, rec, domain.FieldConfirmationNumber)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Flight %s successfully cancelled for confirmation number %s", fn, cn), nil
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
