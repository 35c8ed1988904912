package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is an ordered mapping from field name to Value. Field order in
// the first record a caller produces defines iteration order for the
// rest of a scan; later records may omit or add fields freely.
type Record struct {
	order  []string
	values map[string]Value
}

// NewRecord builds a Record from a plain map, preserving the order given
// in fieldOrder (fields in the map but missing from fieldOrder are
// appended in map-iteration order, which is only used as a fallback for
// callers that don't track order themselves).
func NewRecord(fieldOrder []string, values map[string]any) Record {
	r := Record{
		order:  make([]string, 0, len(values)),
		values: make(map[string]Value, len(values)),
	}
	seen := make(map[string]struct{}, len(values))
	for _, f := range fieldOrder {
		if v, ok := values[f]; ok {
			r.order = append(r.order, f)
			r.values[f] = FromAny(v)
			seen[f] = struct{}{}
		}
	}
	for f, v := range values {
		if _, ok := seen[f]; ok {
			continue
		}
		r.order = append(r.order, f)
		r.values[f] = FromAny(v)
	}
	return r
}

// DecodeOrderedJSONObject parses a single JSON object, returning its
// top-level keys in the order they appear on the wire alongside the
// usual map[string]any values. A plain json.Unmarshal into
// map[string]any loses this order because Go map iteration is
// randomized, which would make field order (and therefore a
// ScanReport's field order) differ across two scans of the same input;
// walking the token stream keeps it stable.
func DecodeOrderedJSONObject(data []byte) ([]string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("model: expected a JSON object")
	}

	order := make([]string, 0, 8)
	values := make(map[string]any, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("model: expected a string key")
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, nil, err
		}
		if _, exists := values[key]; !exists {
			order = append(order, key)
		}
		values[key] = val
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return order, values, nil
}

// Fields returns field names in this record's order.
func (r Record) Fields() []string { return r.order }

// Get returns the value at field, or the null Value if absent.
func (r Record) Get(field string) Value {
	if v, ok := r.values[field]; ok {
		return v
	}
	return Null()
}

// Has reports whether field was present in this record.
func (r Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Source is the pull-iterator contract the core consumes. Next returns
// (record, true) for each row in turn and (zero, false) once exhausted.
// Every record source in this module — file, SQL, Kafka, MQTT, or an
// in-memory slice — implements this instead of a push callback. C3 walks
// the sequence under its row limit and keeps each field's sampled values
// in FieldStat.Values, which is what C4 reads; C4 never walks a Source.
type Source interface {
	Next() (Record, bool)
}

// SliceSource adapts a fixed slice of records into a Source, used by
// tests and by callers handed an already-materialized batch.
type SliceSource struct {
	records []Record
	pos     int
}

func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (Record, bool) {
	if s.pos >= len(s.records) {
		return Record{}, false
	}
	r := s.records[s.pos]
	s.pos++
	return r, true
}

// Reset rewinds a SliceSource so it can be consumed again; the analyzer
// walks a source once, so a caller that needs a second pass over the
// same records constructs a second source or calls Reset.
func (s *SliceSource) Reset() { s.pos = 0 }
