package connection

import "encoding/json"

// DefaultSerializeVersion is the envelope version stamped on every
// serialized connection.
const DefaultSerializeVersion = "1.0"

// envelope is the versioned textual wrapper a connection is persisted under.
type envelope struct {
	Version string          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// ToString emits the versioned JSON envelope for entity.
func ToString(entity *Entity) (string, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return "", ErrInvalidJSON(err)
	}
	env := envelope{Version: DefaultSerializeVersion, Data: data}
	out, err := json.Marshal(env)
	if err != nil {
		return "", ErrInvalidJSON(err)
	}
	return string(out), nil
}

// FromString parses a versioned JSON envelope back into an Entity.
func FromString(text string) (*Entity, error) {
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, ErrInvalidJSON(err)
	}
	if len(env.Data) == 0 {
		return nil, ErrInvalidJSON(nil)
	}
	var entity Entity
	if err := json.Unmarshal(env.Data, &entity); err != nil {
		return nil, ErrInvalidJSON(err)
	}
	return &entity, nil
}
