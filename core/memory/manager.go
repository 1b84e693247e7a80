package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/insightify-ai/insightify/core/types"
	"github.com/insightify-ai/insightify/pkg/dataset"
	"github.com/mudler/xlog"
)

// DatasetVariable is the fixed binding name of the loaded dataset frame.
const DatasetVariable = "df"

// Manager owns the four per-kind services and the projection between them and
// an AgentState.
type Manager struct {
	Conversation        *Service
	ConversationSummary *Service
	CodeSummary         *Service
	Variables           *Service

	loader dataset.Loader
}

func NewManager(store Store, cache Cache, loader dataset.Loader, legacy LegacySource) *Manager {
	m := &Manager{loader: loader}

	m.Conversation = NewService(KindConversation, store, cache,
		func(ctx context.Context, key Key, _ string) ([]byte, error) {
			if rec := lookupLegacy(ctx, legacy, key); rec != nil && len(rec.Solutions) > 0 {
				return EncodeConversation(rec.Solutions)
			}
			return EncodeConversation(nil)
		})

	m.ConversationSummary = NewService(KindConversationSummary, store, cache,
		func(ctx context.Context, key Key, _ string) ([]byte, error) {
			return EncodeSummary("")
		})

	m.CodeSummary = NewService(KindCodeSummary, store, cache,
		func(ctx context.Context, key Key, _ string) ([]byte, error) {
			if rec := lookupLegacy(ctx, legacy, key); rec != nil && rec.Code != "" {
				return EncodeSummary(rec.Code)
			}
			return EncodeSummary("")
		})

	m.Variables = NewService(KindVariables, store, cache,
		func(ctx context.Context, key Key, storageURI string) ([]byte, error) {
			ds, err := loader.Load(ctx, storageURI)
			if err != nil {
				return nil, err
			}
			return EncodeVariables(map[string]VariableRef{
				DatasetVariable: {Kind: "dataset", URI: storageURI, Columns: ds.Columns},
			})
		})

	return m
}

func lookupLegacy(ctx context.Context, legacy LegacySource, key Key) *LegacyRecord {
	if legacy == nil {
		return nil
	}
	rec, err := legacy.Lookup(ctx, key.UserID, key.SessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		xlog.Warn("Legacy chat history lookup failed", "session", key.SessionID, "error", err)
		return nil
	}
	xlog.Info("Seeding memory from legacy chat history", "session", key.SessionID, "kind", key.Kind)
	return rec
}

// Hydrate loads all four memory kinds into the state and opens the new turn.
func (m *Manager) Hydrate(ctx context.Context, state *types.AgentState) error {
	raw, err := m.Conversation.Get(ctx, state.UserID, state.SessionID, state.FileName, state.StorageURI)
	if err != nil {
		return err
	}
	if state.Conversation, err = DecodeConversation(raw); err != nil {
		return err
	}

	if raw, err = m.ConversationSummary.Get(ctx, state.UserID, state.SessionID, state.FileName, state.StorageURI); err != nil {
		return err
	}
	if state.ConversationSummary, err = DecodeSummary(raw); err != nil {
		return err
	}

	if raw, err = m.CodeSummary.Get(ctx, state.UserID, state.SessionID, state.FileName, state.StorageURI); err != nil {
		return err
	}
	if state.CodeSummary, err = DecodeSummary(raw); err != nil {
		return err
	}

	if raw, err = m.Variables.Get(ctx, state.UserID, state.SessionID, state.FileName, state.StorageURI); err != nil {
		return err
	}
	refs, err := DecodeVariables(raw)
	if err != nil {
		return err
	}
	if state.Variables, err = m.rehydrate(ctx, refs); err != nil {
		return err
	}

	state.BeginTurn()
	return nil
}

func (m *Manager) rehydrate(ctx context.Context, refs map[string]VariableRef) (map[string]any, error) {
	vars := make(map[string]any, len(refs))
	for name, ref := range refs {
		switch ref.Kind {
		case "dataset":
			ds, err := m.loader.Load(ctx, ref.URI)
			if err != nil {
				return nil, fmt.Errorf("rehydrating variable %s: %w", name, err)
			}
			vars[name] = ds.Frame()
		default:
			vars[name] = ref.Value
		}
	}
	return vars, nil
}

// Persist projects the state's memory fields back through the four services.
func (m *Manager) Persist(ctx context.Context, state *types.AgentState) error {
	payload, err := EncodeConversation(state.Conversation)
	if err != nil {
		return err
	}
	if err := m.Conversation.Update(ctx, state.UserID, state.SessionID, state.FileName, payload); err != nil {
		return err
	}

	if payload, err = EncodeSummary(state.ConversationSummary); err != nil {
		return err
	}
	if err := m.ConversationSummary.Update(ctx, state.UserID, state.SessionID, state.FileName, payload); err != nil {
		return err
	}

	if payload, err = EncodeSummary(state.CodeSummary); err != nil {
		return err
	}
	if err := m.CodeSummary.Update(ctx, state.UserID, state.SessionID, state.FileName, payload); err != nil {
		return err
	}

	refs, err := m.variableRefs(ctx, state)
	if err != nil {
		return err
	}
	if payload, err = EncodeVariables(refs); err != nil {
		return err
	}
	return m.Variables.Update(ctx, state.UserID, state.SessionID, state.FileName, payload)
}

// variableRefs rebuilds the durable form of the bindings: existing dataset
// refs are kept, everything else JSON-marshalable is stored inline. Bindings
// removed during the run are dropped.
func (m *Manager) variableRefs(ctx context.Context, state *types.AgentState) (map[string]VariableRef, error) {
	existing := map[string]VariableRef{}
	if raw, err := m.Variables.Get(ctx, state.UserID, state.SessionID, state.FileName, state.StorageURI); err == nil {
		if decoded, err := DecodeVariables(raw); err == nil {
			existing = decoded
		}
	}

	refs := make(map[string]VariableRef, len(state.Variables))
	for name, value := range state.Variables {
		if ref, ok := existing[name]; ok && ref.Kind == "dataset" {
			refs[name] = ref
			continue
		}
		if _, err := json.Marshal(value); err != nil {
			xlog.Debug("Skipping non-serializable variable", "name", name)
			continue
		}
		refs[name] = VariableRef{Kind: "value", Value: value}
	}
	return refs, nil
}
