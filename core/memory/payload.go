package memory

import (
	"encoding/json"
	"fmt"

	"github.com/insightify-ai/insightify/core/types"
)

// Kind names one of the independently stored and cached memory streams.
type Kind string

const (
	KindConversation        Kind = "conversation"
	KindConversationSummary Kind = "conversation_summary"
	KindCodeSummary         Kind = "code_summary"
	KindVariables           Kind = "variables"
)

var Kinds = []Kind{KindConversation, KindConversationSummary, KindCodeSummary, KindVariables}

// PayloadVersion tags every serialized payload so the on-disk format can
// evolve without a language-specific object serializer.
const PayloadVersion = 1

type ConversationPayload struct {
	Version int            `json:"version"`
	Turns   []types.QAPair `json:"turns"`
}

type SummaryPayload struct {
	Version int    `json:"version"`
	Text    string `json:"text"`
}

// VariableRef is the durable form of a runtime binding. Dataset handles are
// persisted as a reference and rehydrated through the loader; plain values are
// stored inline.
type VariableRef struct {
	Kind    string   `json:"kind"` // "dataset" or "value"
	URI     string   `json:"uri,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Value   any      `json:"value,omitempty"`
}

type VariablesPayload struct {
	Version int                    `json:"version"`
	Refs    map[string]VariableRef `json:"refs"`
}

func EncodeConversation(turns []types.QAPair) ([]byte, error) {
	if turns == nil {
		turns = []types.QAPair{}
	}
	return json.Marshal(ConversationPayload{Version: PayloadVersion, Turns: turns})
}

func DecodeConversation(raw []byte) ([]types.QAPair, error) {
	var p ConversationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding conversation payload: %w", err)
	}
	return p.Turns, nil
}

func EncodeSummary(text string) ([]byte, error) {
	return json.Marshal(SummaryPayload{Version: PayloadVersion, Text: text})
}

func DecodeSummary(raw []byte) (string, error) {
	var p SummaryPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("decoding summary payload: %w", err)
	}
	return p.Text, nil
}

func EncodeVariables(refs map[string]VariableRef) ([]byte, error) {
	if refs == nil {
		refs = map[string]VariableRef{}
	}
	return json.Marshal(VariablesPayload{Version: PayloadVersion, Refs: refs})
}

func DecodeVariables(raw []byte) (map[string]VariableRef, error) {
	var p VariablesPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding variables payload: %w", err)
	}
	return p.Refs, nil
}
