package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

var ErrScanValueNotBytes = errors.New("valueobject: unsupported JSONMap source")

// JSONMap is a jsonb column decoded into a map.
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		j = JSONMap{}
	}
	return json.Marshal(map[string]any(j))
}

// Scan accepts the encoded forms database/sql hands over as well as the
// already-decoded map pgx produces for jsonb. NULL scans to an empty map.
func (j *JSONMap) Scan(src any) error {
	if decoded, ok := src.(map[string]any); ok {
		*j = decoded
		return nil
	}

	raw, err := rawJSON(src)
	if err != nil {
		return err
	}

	out := make(JSONMap)
	if len(raw) != 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*j = out

	return nil
}

func rawJSON(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, ErrScanValueNotBytes
	}
}

// GetString is "" unless key holds a string.
func (j JSONMap) GetString(key string) string {
	s, _ := j[key].(string)
	return s
}

// GetBool is strict: only the JSON literal true counts.
func (j JSONMap) GetBool(key string) bool {
	b, _ := j[key].(bool)
	return b
}
