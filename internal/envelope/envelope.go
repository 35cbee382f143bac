// Package envelope converts between the domain view of a collection's
// identity (owner, name, user metadata) and the single JSON document that
// stores all three.
package envelope

import (
	"encoding/json"
	"fmt"
)

const (
	KeyOwnerID = "owner_id"
	KeyName    = "name"

	// DefaultName is reported for stored envelopes that lost their name key.
	DefaultName = "Unnamed"
)

type Envelope struct {
	OwnerID  string
	Name     string
	Metadata map[string]interface{}
}

// IsReserved reports whether key is owned by the envelope itself.
func IsReserved(key string) bool {
	return key == KeyOwnerID || key == KeyName
}

// UserMetadata copies m without the reserved keys. It never returns nil.
func UserMetadata(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if IsReserved(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Map flattens the envelope. Reserved keys always win over user metadata.
func (e Envelope) Map() map[string]interface{} {
	out := UserMetadata(e.Metadata)
	out[KeyOwnerID] = e.OwnerID
	out[KeyName] = e.Name
	return out
}

func (e Envelope) Encode() ([]byte, error) {
	if e.OwnerID == "" {
		return nil, fmt.Errorf("envelope owner_id is required")
	}
	data, err := json.Marshal(e.Map())
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// Decode splits a stored document back into its parts.
func Decode(data []byte) (Envelope, error) {
	raw := map[string]interface{}{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Envelope{}, fmt.Errorf("decode envelope: %w", err)
		}
	}
	env := Envelope{Name: DefaultName, Metadata: UserMetadata(raw)}
	if owner, ok := raw[KeyOwnerID].(string); ok {
		env.OwnerID = owner
	}
	if name, ok := raw[KeyName].(string); ok {
		env.Name = name
	}
	return env, nil
}

// EncodeMetadata serializes free-form metadata (chunk metadata, user
// metadata without reserved keys). nil encodes as {}.
func EncodeMetadata(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func DecodeMetadata(data []byte) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out, nil
}
