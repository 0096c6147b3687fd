package domain

// Record is the shared, mutable context of one conversation.
// A missing key means the field is still null. Only tools and handoff setup
// routines write to it; instruction functions receive a clone.
type Record map[string]string

// NewRecord creates an empty record.
func NewRecord() Record {
	return make(Record)
}

// Get returns the value of a field and whether it is set.
func (r Record) Get(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Set writes a field. An empty value clears it.
func (r Record) Set(key, value string) {
	if value == "" {
		delete(r, key)
		return
	}
	r[key] = value
}

// Has reports whether a field is set.
func (r Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Clone returns an isolated copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Snapshot renders the record for clients. Every known field is present,
// unset ones as nil, followed by any extra fields a tool may have written.
func (r Record) Snapshot() map[string]any {
	out := make(map[string]any, len(KnownFields)+len(r))
	for _, k := range KnownFields {
		out[k] = nil
	}
	for k, v := range r {
		out[k] = v
	}
	return out
}
