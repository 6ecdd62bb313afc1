package model

import "encoding/json"

// jsonQuote/jsonUnquote wrap a Go string as a JSON string literal and
// unwrap it again.
func jsonQuote(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

func jsonUnquote(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", err
	}
	return s, nil
}

// marshalPair/unmarshalPair render a (string, float64) tuple as a JSON
// 2-element array, matching Python's json encoding of a tuple.
func marshalPair(a string, b float64) ([]byte, error) {
	return json.Marshal([2]any{a, b})
}

func unmarshalPair(raw []byte) (string, float64, error) {
	var pair [2]any
	if err := json.Unmarshal(raw, &pair); err != nil {
		return "", 0, err
	}
	s, _ := pair[0].(string)
	f, _ := pair[1].(float64)
	return s, f, nil
}

func marshalJSON(v any) ([]byte, error)      { return json.Marshal(v) }
func unmarshalJSON(b []byte, v any) error    { return json.Unmarshal(b, v) }
