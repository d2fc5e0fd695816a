package graph

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Command is the canonical command envelope from spec.md §6: a
// `command` string, optional source/listener selectors, and
// command-specific parameters. This is the "richer schema" the design
// note in spec.md §9 says the toolbox assumes.
type Command struct {
	Name       string         `json:"command"`
	SourceID   string         `json:"sourceID,omitempty"`
	ListenerID string         `json:"listenerID,omitempty"`
	Params     map[string]any `json:"-"`
	raw        []byte
}

// ParseCommand decodes a JSON command, rewriting the legacy
// `address`-style schema (spec.md §9 open question: "two coexisting
// definitions of CCommand ... If legacy address-style commands must
// be supported, route them through a shim that rewrites to the
// canonical form") to the canonical `command` field first.
func ParseCommand(data []byte) (Command, error) {
	data = rewriteLegacyAddress(data)

	var envelope struct {
		Name       string `json:"command"`
		SourceID   string `json:"sourceID"`
		ListenerID string `json:"listenerID"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Command{}, fmt.Errorf("graph: parse command: %w", err)
	}
	if envelope.Name == "" {
		return Command{}, fmt.Errorf("graph: command missing \"command\" field")
	}

	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return Command{}, fmt.Errorf("graph: parse command params: %w", err)
	}
	delete(params, "command")
	delete(params, "sourceID")
	delete(params, "listenerID")

	return Command{
		Name:       envelope.Name,
		SourceID:   envelope.SourceID,
		ListenerID: envelope.ListenerID,
		Params:     params,
		raw:        data,
	}, nil
}

// rewriteLegacyAddress rewrites {"address": "...", ...} to
// {"command": "...", ...} using gjson/sjson rather than a full
// unmarshal/remarshal round trip, so unknown legacy fields pass
// through untouched.
func rewriteLegacyAddress(data []byte) []byte {
	if !gjson.GetBytes(data, "address").Exists() {
		return data
	}
	addr := gjson.GetBytes(data, "address").String()
	out, err := sjson.SetBytes(data, "command", addr)
	if err != nil {
		return data
	}
	out, err = sjson.DeleteBytes(out, "address")
	if err != nil {
		return data
	}
	return out
}

// Float64 reads a float64 parameter, returning ok=false if absent or
// not a number.
func (c Command) Float64(key string) (float64, bool) {
	v, ok := c.Params[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Bool reads a bool parameter.
func (c Command) Bool(key string) (bool, bool) {
	v, ok := c.Params[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Vec3 reads a 3-element numeric array parameter (e.g. `location`,
// `orientation`).
func (c Command) Vec3(key string) ([3]float64, bool) {
	v, ok := c.Params[key]
	if !ok {
		return [3]float64{}, false
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return [3]float64{}, false
	}
	var out [3]float64
	for i, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return [3]float64{}, false
		}
		out[i] = f
	}
	return out, true
}

// Vec4 reads a 4-element numeric array parameter (e.g. the quaternion
// under `orientation` in a /source/orientationQuaternion command).
func (c Command) Vec4(key string) ([4]float64, bool) {
	v, ok := c.Params[key]
	if !ok {
		return [4]float64{}, false
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 4 {
		return [4]float64{}, false
	}
	var out [4]float64
	for i, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return [4]float64{}, false
		}
		out[i] = f
	}
	return out, true
}
