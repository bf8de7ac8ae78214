package ws

import (
	"encoding/json"
	"fmt"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// Action is used for routing; Data is passed through untouched.
type InboundEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// UnmarshalJSON requires an action and normalizes a missing data field to nil.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type envelope InboundEnvelope
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Action == "" {
		return fmt.Errorf("envelope without action")
	}
	if string(env.Data) == "null" {
		env.Data = nil
	}
	*e = InboundEnvelope(env)
	return nil
}
