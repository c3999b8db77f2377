package network

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client -> server intents.
const (
	MsgClick       = "click"
	MsgBuyUpgrade  = "buy_upgrade"
	MsgBuySkill    = "buy_skill"
	MsgRebirth     = "rebirth"
	MsgClaimEureka = "claim_eureka"
)

// Server -> client messages.
const (
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgCue     = "cue"
	MsgResult  = "result"
	MsgError   = "error"
)

// Envelope wraps every frame on the wire: {"t": type, "p": payload}.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

// IDPayload carries the target of buy_upgrade, buy_skill and claim_eureka.
type IDPayload struct {
	ID string `json:"id"`
}

// WelcomePayload greets a freshly connected client.
type WelcomePayload struct {
	ClientID string `json:"client_id"`
}

// ResultPayload answers one intent so the client can play the right sound.
type ResultPayload struct {
	Intent string  `json:"intent"`
	ID     string  `json:"id,omitempty"`
	OK     bool    `json:"ok"`
	Points float64 `json:"points,omitempty"` // Click yield
	XP     float64 `json:"xp,omitempty"`
	Combo  int     `json:"combo,omitempty"`
}

// ErrorPayload reports a malformed or throttled frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode builds one wire frame.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errors.New("encode envelope: empty type")
	}
	var raw json.RawMessage
	if payload != nil {
		pb, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		raw = pb
	}
	return json.Marshal(Envelope{T: t, P: raw})
}

// DecodeEnvelope parses one wire frame.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, errors.New("decode envelope: empty frame")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.T == "" {
		return Envelope{}, errors.New("decode envelope: missing type")
	}
	return e, nil
}

// DecodePayload unmarshals the payload of env into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}
