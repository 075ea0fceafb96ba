package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// parsePayload decodes a request body into a key map so reserved-field
// and link-stripping checks can run before the typed decode. Undecodable
// or non-object bodies are a ValueError.
func parsePayload(data []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errValueError(err.Error())
	}
	return m, nil
}

// checkReserved rejects payloads that write server-owned keys.
func checkReserved(m map[string]json.RawMessage, reserved []string) error {
	for _, k := range reserved {
		if _, ok := m[k]; ok {
			return errBadRequest("Reserved keys in payload")
		}
	}
	return nil
}

// stripLinks drops the navigational keys clients may echo back from a
// previous read.
func stripLinks(m map[string]json.RawMessage) {
	delete(m, "link")
	delete(m, "links")
}

// strictUnmarshal decodes data into v, rejecting unknown fields. Type
// mismatches and unknown fields map to TypeError, everything else to
// ValueError.
func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errTypeError(err.Error())
		}
		if strings.Contains(err.Error(), "unknown field") {
			return errTypeError(err.Error())
		}
		return errValueError(err.Error())
	}
	return nil
}

// remarshal re-encodes a parsed payload map for the typed decode.
func remarshal(m map[string]json.RawMessage) []byte {
	data, _ := json.Marshal(m)
	return data
}
