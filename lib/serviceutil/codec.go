package serviceutil

import (
	"encoding/json"
)

// JSONCodec lets connect handlers and clients exchange plain Go structs
// as application/json, it replaces connect's protojson codec under the
// same name.
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return "json"
}

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}
