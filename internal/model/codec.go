package model

import (
	"encoding/json"
	"fmt"
)

// Deserializer decodes the body of one model kind.
type Deserializer func(d []byte) (Classifier, error)

// Deserializers maps a serialized kind to its decoder.
var Deserializers = map[string]Deserializer{
	KindLogisticRegression: func(d []byte) (Classifier, error) {
		m := &LogisticRegression{}
		if err := json.Unmarshal(d, m); err != nil {
			return nil, err
		}
		return m, m.Validate()
	},
	KindTreeEnsemble: func(d []byte) (Classifier, error) {
		m := &TreeEnsemble{}
		if err := json.Unmarshal(d, m); err != nil {
			return nil, err
		}
		return m, m.Validate()
	},
}

type envelope struct {
	Kind  string          `json:"kind"`
	Model json.RawMessage `json:"model"`
}

// Decode reads a model blob of the form {"kind": ..., "model": {...}}.
func Decode(d []byte) (Classifier, error) {
	var env envelope
	if err := json.Unmarshal(d, &env); err != nil {
		return nil, fmt.Errorf("decode model envelope: %w", err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("model kind is missing")
	}
	if len(env.Model) == 0 {
		return nil, fmt.Errorf("model body is missing")
	}
	decode, ok := Deserializers[env.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown model kind %q", env.Kind)
	}
	c, err := decode(env.Model)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return c, nil
}

// Encode writes a model in the form Decode reads.
func Encode(c Classifier) ([]byte, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Kind(), err)
	}
	return json.MarshalIndent(envelope{Kind: c.Kind(), Model: body}, "", "  ")
}
