package guardrail

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/aretw0/switchboard/pkg/domain"
)

// conversational messages always pass, whatever the topic.
var conversational = map[string]bool{
	"hi": true, "hello": true, "hey": true, "hiya": true, "howdy": true, "yo": true,
	"there": true, "ok": true, "okay": true, "k": true, "thanks": true, "thank": true,
	"thankyou": true, "ty": true, "you": true, "thx": true, "cheers": true, "yes": true,
	"yeah": true, "yep": true, "no": true, "nope": true, "sure": true, "please": true,
	"bye": true, "goodbye": true, "good": true, "morning": true, "afternoon": true,
	"evening": true, "night": true, "day": true, "great": true, "cool": true, "perfect": true,
	"awesome": true, "nice": true, "help": true, "correct": true, "right": true, "that": true,
	"is": true, "it": true, "alright": true, "fine": true, "got": true, "a": true, "lot": true,
	"much": true, "so": true, "very": true, "really": true, "again": true, "how": true,
	"are": true, "what": true, "s": true, "up": true, "doing": true, "i": true, "m": true,
	"am": true, "well": true, "too": true, "and": true, "the": true, "to": true, "meet": true,
	"appreciate": true, "welcome": true, "sounds": true, "oh": true, "ah": true, "hmm": true,
}

// domainVocabulary marks a message as airline related. Plural "s" is stripped before lookup.
var domainVocabulary = map[string]bool{
	"flight": true, "fly": true, "flying": true, "seat": true, "plane": true, "airplane": true,
	"aircraft": true, "airline": true, "airport": true, "booking": true, "reservation": true,
	"confirmation": true, "baggage": true, "bag": true, "luggage": true, "suitcase": true,
	"cancel": true, "cancellation": true, "refund": true, "gate": true, "delay": true,
	"delayed": true, "departure": true, "depart": true, "arrival": true, "arrive": true,
	"boarding": true, "ticket": true, "wifi": true, "internet": true, "passenger": true,
	"travel": true, "trip": true, "aisle": true, "legroom": true, "layover": true,
	"terminal": true, "pilot": true, "crew": true, "allowance": true, "itinerary": true,
	"checkin": true, "jet": true, "destination": true, "stopover": true, "overhead": true,
	"mile": true,
}

// contextual words are airline related only around a booking: "change", "name"
// and "number" say nothing on their own.
var contextual = map[string]bool{
	"change": true, "name": true, "number": true, "check": true, "book": true, "exit": true,
	"status": true, "window": true, "business": true, "connection": true, "fee": true,
	"row": true, "board": true, "carry": true, "upgrade": true, "economy": true,
}

// references look like confirmation numbers, flight numbers or seats.
var references = regexp.MustCompile(`\b(FLT-\d{3}|[A-Z0-9]{6}|\d{1,2}[A-F])\b`)

// Relevance fails messages that are unrelated to airline customer service.
type Relevance struct {
	vocabulary map[string]bool
}

// NewRelevance creates the filter with the default airline vocabulary plus extra words.
func NewRelevance(extra ...string) *Relevance {
	vocab := make(map[string]bool, len(domainVocabulary)+len(extra))
	for w := range domainVocabulary {
		vocab[w] = true
	}
	for _, w := range extra {
		vocab[strings.ToLower(w)] = true
	}
	return &Relevance{vocabulary: vocab}
}

func (r *Relevance) Name() string { return RelevanceName }

func (r *Relevance) Evaluate(ctx context.Context, input string, rec domain.Record) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}

	words := tokenize(input)
	if len(words) == 0 {
		return Pass("Empty or symbolic message is conversational."), nil
	}

	filler := true
	var loose string
	for _, w := range words {
		stem := strings.TrimSuffix(w, "s")
		if r.vocabulary[w] || r.vocabulary[stem] {
			return Pass("Message mentions " + quote(w) + "."), nil
		}
		if loose == "" && (contextual[w] || contextual[stem]) {
			loose = w
		}
		if !conversational[w] {
			filler = false
		}
	}
	if filler {
		return Pass("Conversational message."), nil
	}
	if loose != "" && rec.Has(domain.FieldConfirmationNumber) {
		return Pass("Message mentions " + quote(loose) + " during a booking."), nil
	}

	if references.MatchString(input) {
		return Pass("Message carries a booking reference."), nil
	}
	for _, v := range rec {
		if len(v) >= 3 && strings.Contains(input, v) {
			return Pass("Message refers to a known booking detail."), nil
		}
	}

	return Fail("Message is not related to airline customer service."), nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
