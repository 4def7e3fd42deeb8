package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"signalhub/internal/core"
	"signalhub/internal/domain"
)

// Outbound wire messages produced by call and presence flows. Inbound
// decoding lives in the websocket adapter; these are here so the flows
// stay testable without a transport.

type presenceUpdateMsg struct {
	Type  string   `json:"type"`
	Names []string `json:"names"`
}

type presenceDeltaMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type incomingCallMsg struct {
	Type    string          `json:"type"`
	CallID  domain.CallID   `json:"callId"`
	From    string          `json:"from"`
	Kind    domain.CallKind `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type callAcceptedMsg struct {
	Type    string          `json:"type"`
	CallID  domain.CallID   `json:"callId"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type callClosedMsg struct {
	Type   string        `json:"type"`
	CallID domain.CallID `json:"callId"`
	From   string        `json:"from"`
}

func encode(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.wire").Msg("encode")
		return nil
	}
	return core.Frame(b)
}
