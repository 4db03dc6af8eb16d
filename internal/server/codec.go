package server

import (
	"encoding/json"
	"fmt"
)

// jsonCodec serializes plain Go message structs. It replaces Connect's
// built-in JSON codec, which only accepts generated protobuf messages.
type jsonCodec struct{}

const codecNameJSON = "json"

func (jsonCodec) Name() string { return codecNameJSON }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to decode %T: %w", msg, err)
	}
	return nil
}
