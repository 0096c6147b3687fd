package guardrail

// Names of the canonical filters, as declared by handlers.
const (
	RelevanceName = "Relevance Guardrail"
	JailbreakName = "Jailbreak Guardrail"
)
