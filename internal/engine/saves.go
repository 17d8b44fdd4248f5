package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tatianab/survival-run/internal/game"
	"github.com/tatianab/survival-run/internal/models"
	"github.com/tatianab/survival-run/internal/storage"
)

func (e *Engine) snapshot(st models.RunState, name string) *models.Snapshot {
	return models.NewSnapshot(st, name, e.opts.Now().Format(time.RFC3339))
}

func (e *Engine) autosave(ctx context.Context, st models.RunState) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(ctx, storage.SlotAuto, e.snapshot(st, "autosave")); err != nil {
		e.metrics.AutosaveFailed()
		e.logger.Warn("autosave failed", zap.String("run_id", st.RunID), zap.Error(err))
		return fmt.Errorf("autosave: %w", err)
	}
	return nil
}

// Reset returns to the starting state, superseding anything in flight, and
// deletes the autosave.
func (e *Engine) Reset(ctx context.Context) (models.RunState, error) {
	e.mu.Lock()
	e.state = e.initialState(e.state.Version + 1)
	e.busy = false
	e.finishing = false
	out := e.state.Clone()
	e.mu.Unlock()

	if e.store == nil {
		return out, nil
	}
	if err := e.store.Delete(ctx, storage.SlotAuto); err != nil {
		return out, fmt.Errorf("delete autosave: %w", err)
	}
	return out, nil
}

// Resume loads the autosave.
func (e *Engine) Resume(ctx context.Context) (models.RunState, error) {
	return e.LoadSlot(ctx, storage.SlotAuto)
}

// LoadSlot replaces the current run with a saved one.
func (e *Engine) LoadSlot(ctx context.Context, slot storage.Slot) (models.RunState, error) {
	if e.store == nil {
		return e.State(), ErrNoStore
	}
	snap, err := e.store.Load(ctx, slot)
	if err != nil {
		return e.State(), fmt.Errorf("load slot %s: %w", slot, err)
	}
	if snap == nil {
		return e.State(), fmt.Errorf("load slot %s: %w", slot, ErrNoSave)
	}
	st := snap.RunState(models.LoadDefaults{
		Stats:    e.opts.StartStats,
		MaxTurns: e.opts.MaxTurns,
		Mode:     e.opts.GenreMode,
		Classify: game.ClassifyItem,
	})
	if st.RunID == "" {
		st.RunID = uuid.NewString()
	}

	e.mu.Lock()
	st.Version = e.state.Version + 1
	e.state = st
	e.busy = false
	e.finishing = false
	out := e.state.Clone()
	e.mu.Unlock()

	e.logger.Info("run loaded", zap.String("slot", string(slot)), zap.String("run_id", out.RunID), zap.Int("turn_count", out.TurnCount))
	return out, nil
}

// SaveSlot writes the current run under slot. An empty name gets a default.
func (e *Engine) SaveSlot(ctx context.Context, slot storage.Slot, name string) error {
	if e.store == nil {
		return ErrNoStore
	}
	if name == "" {
		name = fmt.Sprintf("slot %s", slot)
	}
	st := e.State()
	if err := e.store.Save(ctx, slot, e.snapshot(st, name)); err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	e.logger.Info("run saved", zap.String("slot", string(slot)), zap.String("run_id", st.RunID))
	return nil
}

func (e *Engine) DeleteSlot(ctx context.Context, slot storage.Slot) error {
	if e.store == nil {
		return ErrNoStore
	}
	if err := e.store.Delete(ctx, slot); err != nil {
		return fmt.Errorf("delete slot %s: %w", slot, err)
	}
	return nil
}

// ListSlots describes the manual slots.
func (e *Engine) ListSlots(ctx context.Context) ([]storage.SlotInfo, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}
	slots, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}
