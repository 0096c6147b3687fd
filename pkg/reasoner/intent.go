package reasoner

import (
	"regexp"
	"strings"

	"github.com/aretw0/switchboard/pkg/registry"
)

// Route sends messages containing any keyword to a handler.
type Route struct {
	Handler  string
	Keywords []string
}

// AirlineRoutes is checked in order; the first matching route wins.
// Questions about the plane come before the seat route so "how many seats"
// reaches the FAQ handler rather than seat booking.
var AirlineRoutes = []Route{
	{Handler: registry.CancellationAgent, Keywords: []string{"cancel", "refund"}},
	{Handler: registry.FAQAgent, Keywords: []string{
		"how many", "baggage", "bag", "luggage", "carry-on", "wifi", "wi-fi", "internet",
		"policy", "policies", "allowance", "fee",
	}},
	{Handler: registry.SeatBookingAgent, Keywords: []string{"seat", "aisle", "window"}},
	{Handler: registry.FlightStatusAgent, Keywords: []string{"status", "delay", "gate", "on time", "departure", "arrival"}},
	{Handler: registry.FAQAgent, Keywords: []string{"plane", "aircraft"}},
}

var (
	seatRef         = regexp.MustCompile(`(?i)\b(\d{1,2}[A-F])\b`)
	flightRef       = regexp.MustCompile(`(?i)\bFLT-\d{3}\b`)
	confirmationRef = regexp.MustCompile(`\b[A-Z0-9]{6}\b`)
)

var affirmations = []string{"yes", "yeah", "yep", "sure", "confirm", "go ahead", "please do", "do it", "correct"}

var closings = []string{"thanks", "thank you", "thx", "bye", "goodbye", "that's all", "that is all"}

func match(msg string, routes []Route) string {
	msg = strings.ToLower(msg)
	for _, r := range routes {
		for _, k := range r.Keywords {
			if containsWord(msg, k) {
				return r.Handler
			}
		}
	}
	return ""
}

// containsWord matches k at a word start, so "bag" matches "bags" but not "cabbage".
func containsWord(s, k string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], k)
		if j < 0 {
			return false
		}
		at := i + j
		if at == 0 || !isWordByte(s[at-1]) {
			return true
		}
		i = at + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func hasAny(msg string, words []string) bool {
	msg = strings.ToLower(msg)
	for _, w := range words {
		if containsWord(msg, w) {
			return true
		}
	}
	return false
}
