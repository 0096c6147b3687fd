package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// HandlerOverride replaces the text of one handler. Empty fields keep the original.
type HandlerOverride struct {
	Description  string `mapstructure:"description"`
	Instructions string `mapstructure:"instructions"`
}

// Overrides is the administrative configuration applied on top of a catalog.
// Only text can change; the decoder rejects any other key so edges, tools and
// filters stay fixed.
type Overrides struct {
	Handlers map[string]HandlerOverride `mapstructure:"handlers"`
}

// LoadOverrides reads overrides from a YAML file.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("failed to read overrides: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes YAML overrides.
func ParseOverrides(data []byte) (Overrides, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Overrides{}, fmt.Errorf("failed to parse overrides: %w", err)
	}
	return DecodeOverrides(raw)
}

// DecodeOverrides decodes overrides from a generic map (YAML, JSON or an API body).
func DecodeOverrides(raw map[string]any) (Overrides, error) {
	var o Overrides
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &o,
		ErrorUnused: true,
	})
	if err != nil {
		return Overrides{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Overrides{}, fmt.Errorf("invalid overrides: %w", err)
	}
	return o, nil
}

// Apply returns a new registry with the overrides applied. The receiver is unchanged.
func (r *Registry) Apply(o Overrides) (*Registry, error) {
	for name := range o.Handlers {
		if !r.Has(name) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownHandler, name)
		}
	}

	handlers := r.List()
	for i, h := range handlers {
		ov, ok := o.Handlers[h.Name]
		if !ok {
			continue
		}
		if ov.Description != "" {
			handlers[i].Description = ov.Description
		}
		if ov.Instructions != "" {
			handlers[i].Instructions = Template(ov.Instructions)
		}
	}

	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return New(r.triage, tools, handlers, WithInitialContext(r.initial))
}

// Template returns an InstructionFunc that replaces {{field}} placeholders
// with Record values, or "[unknown]" when a field is unset.
func Template(text string) InstructionFunc {
	return func(rec domain.Record) string {
		out := text
		for _, field := range domain.KnownFields {
			v, ok := rec.Get(field)
			if !ok {
				v = "[unknown]"
			}
			out = strings.ReplaceAll(out, "{{"+field+"}}", v)
		}
		return out
	}
}
