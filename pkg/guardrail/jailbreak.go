package guardrail

import (
	"context"
	"regexp"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Pattern is one jailbreak signature.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

const ci = `(?i)`

// DefaultPatterns covers prompt extraction, instruction override, role-play,
// chat-template markers and common code injection payloads.
var DefaultPatterns = []Pattern{
	{"instruction_override", regexp.MustCompile(ci + `\bignore\s+(all\s+)?(the\s+)?(previous|prior|above|earlier|your)\s+(instructions?|prompts?|rules?|guidelines?)`)},
	{"instruction_override", regexp.MustCompile(ci + `\bdisregard\s+(all\s+)?(previous|prior|above|earlier|the\s+above|your)\s*(instructions?|prompts?|rules?|guidelines?)?`)},
	{"instruction_override", regexp.MustCompile(ci + `\bforget\s+(everything|all)\s*(you\s+)?(know|learned|were\s+told)?`)},
	{"instruction_override", regexp.MustCompile(ci + `\b(new|different|updated|override)\s+instructions?\b`)},
	{"role_play", regexp.MustCompile(ci + `\byou\s+are\s+now\s+(a|an|the|in)\b`)},
	{"role_play", regexp.MustCompile(ci + `\bpretend\s+(to\s+be|you\s+are)\b`)},
	{"role_play", regexp.MustCompile(ci + `\bact\s+as\s+(if\s+you\s+are\s+)?(a|an|the)\b`)},
	{"prompt_extraction", regexp.MustCompile(ci + `\b(system|hidden|initial|original|developer)\s+(prompt|instructions?|message)\b`)},
	{"prompt_extraction", regexp.MustCompile(ci + `\b(reveal|show|print|repeat|output|tell\s+me)\s+(me\s+)?(your|the)\s+(prompt|instructions|rules|configuration)\b`)},
	{"template_marker", regexp.MustCompile(ci + `(^|\n)\s*(system|assistant)\s*:`)},
	{"template_marker", regexp.MustCompile(ci + `<\s*/?\s*system\s*>|\[\s*/?INST\s*\]|<\|im_start\|>`)},
	{"template_marker", regexp.MustCompile(ci + `(---+|===+)\s*(system|instructions?|rules?)\s*(---+|===+)`)},
	{"dan", regexp.MustCompile(ci + `\bdo\s+anything\s+now\b|\bjailbreak|\bDAN\s+mode\b`)},
	{"sql_injection", regexp.MustCompile(ci + `\b(drop|truncate|alter)\s+(table|database)\b`)},
	{"sql_injection", regexp.MustCompile(ci + `\bunion\s+(all\s+)?select\b|\bdelete\s+from\b|\binsert\s+into\b|\bselect\s+\*\s+from\b`)},
	{"sql_injection", regexp.MustCompile(ci + `'\s*or\s+'?1'?\s*=\s*'?1|;\s*--`)},
	{"shell_injection", regexp.MustCompile(ci + `(;|&&|\|\|?)\s*(rm|curl|wget|bash|sh|nc|cat|chmod|sudo)\b`)},
	{"shell_injection", regexp.MustCompile(ci + `\brm\s+-[rf]{1,2}\b|\$\([^)]*\)|/etc/(passwd|shadow)`)},
	{"script_injection", regexp.MustCompile(ci + `<\s*script\b|javascript\s*:`)},
}

// Jailbreak fails messages that try to bypass policy or smuggle code.
type Jailbreak struct {
	patterns []Pattern
}

// NewJailbreak creates the filter with DefaultPatterns plus any extra patterns.
func NewJailbreak(extra ...Pattern) *Jailbreak {
	patterns := make([]Pattern, 0, len(DefaultPatterns)+len(extra))
	patterns = append(patterns, DefaultPatterns...)
	patterns = append(patterns, extra...)
	return &Jailbreak{patterns: patterns}
}

func (j *Jailbreak) Name() string { return JailbreakName }

func (j *Jailbreak) Evaluate(ctx context.Context, input string, _ domain.Record) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}
	for _, p := range j.patterns {
		if loc := p.Re.FindStringIndex(input); loc != nil {
			return Fail("Message matches " + p.Name + " pattern: " + quote(input[loc[0]:loc[1]])), nil
		}
	}
	return Pass("No jailbreak attempt detected."), nil
}

func quote(s string) string {
	const max = 40
	if r := []rune(s); len(r) > max {
		s = string(r[:max]) + "..."
	}
	return `"` + s + `"`
}
