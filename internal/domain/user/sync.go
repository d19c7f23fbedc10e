package user

import (
	"context"
	"encoding/json"
)

// SyncHandler applies account events from the identity platform to the
// local projection. It satisfies the events consumer's Handler interface.
type SyncHandler struct {
	svc *Service
}

func NewSyncHandler(svc *Service) *SyncHandler {
	return &SyncHandler{svc: svc}
}

func (h *SyncHandler) HandleCreate(ctx context.Context, sub string, payload json.RawMessage) error {
	return h.apply(ctx, sub, payload)
}

func (h *SyncHandler) HandleUpdate(ctx context.Context, sub string, payload json.RawMessage) error {
	return h.apply(ctx, sub, payload)
}

func (h *SyncHandler) HandleDelete(ctx context.Context, sub string) error {
	return h.svc.Remove(ctx, sub)
}

func (h *SyncHandler) apply(ctx context.Context, sub string, payload json.RawMessage) error {
	var p EventPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
	}
	return h.svc.Apply(ctx, sub, &p)
}
