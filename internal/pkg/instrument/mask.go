package instrument

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// MaskedValue replaces the value of every masked field.
const MaskedValue = "***"

// Masker hides the values of configured field names, case-insensitively,
// in log attributes, JSON payloads and HTTP headers.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker for fields. Blank names are ignored.
func NewMasker(fields []string) Masker {
	keys := lo.Compact(lo.Map(fields, func(f string, _ int) string {
		return strings.ToLower(strings.TrimSpace(f))
	}))
	return Masker{keys: lo.SliceToMap(keys, func(k string) (string, struct{}) { return k, struct{}{} })}
}

// Empty reports whether no field is masked.
func (m Masker) Empty() bool {
	return len(m.keys) == 0
}

// Masked reports whether key is a masked field name.
func (m Masker) Masked(key string) bool {
	_, found := m.keys[strings.ToLower(key)]
	return found
}

// Headers returns a copy of h with masked header values replaced.
func (m Masker) Headers(h http.Header) http.Header {
	if m.Empty() {
		return h
	}

	out := h.Clone()
	for key := range out {
		if m.Masked(key) {
			out.Set(key, MaskedValue)
		}
	}
	return out
}

// Data masks decoded JSON: maps are walked recursively, other values are returned as is.
func (m Masker) Data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Masked(k) {
				out[k] = MaskedValue
			} else {
				out[k] = m.Data(v2)
			}
		}
		return out
	case []any:
		return lo.Map(val, func(v2 any, _ int) any { return m.Data(v2) })
	default:
		return v
	}
}

// JSON masks a JSON object or array payload. It reports false when payload is not JSON.
func (m Masker) JSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}

	out, err := json.Marshal(m.Data(body))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Attr masks a log attribute, descending into groups, maps and JSON strings.
func (m Masker) Attr(attr slog.Attr) slog.Attr {
	if m.Masked(attr.Key) {
		return slog.String(attr.Key, MaskedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		attr.Value = slog.GroupValue(lo.Map(attr.Value.Group(), func(ga slog.Attr, _ int) slog.Attr {
			return m.Attr(ga)
		})...)
	case slog.KindString:
		if masked, ok := m.JSON([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(masked)
		}
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any, []any:
			attr.Value = slog.AnyValue(m.Data(v))
		case map[string]string:
			attr.Value = slog.AnyValue(m.Data(lo.MapValues(v, func(s, _ string) any { return s })))
		case []byte:
			if masked, ok := m.JSON(v); ok {
				attr.Value = slog.StringValue(masked)
			}
		}
	}

	return attr
}
