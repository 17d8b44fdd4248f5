// Package storage persists run snapshots in named slots.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tatianab/survival-run/internal/models"
)

// ErrInvalidSlot is returned for slot names outside 1..3 and "auto".
var ErrInvalidSlot = errors.New("invalid save slot")

// Slot names a save location: one of the manual slots or the autosave.
type Slot string

const (
	SlotAuto Slot = "auto"

	// ManualSlotCount is the number of player-managed slots.
	ManualSlotCount = 3
)

// ManualSlots lists the player-managed slots in display order.
func ManualSlots() []Slot {
	out := make([]Slot, 0, ManualSlotCount)
	for i := 1; i <= ManualSlotCount; i++ {
		out = append(out, Slot(strconv.Itoa(i)))
	}
	return out
}

// ParseSlot accepts "1".."3" or "auto".
func ParseSlot(s string) (Slot, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == string(SlotAuto) {
		return SlotAuto, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > ManualSlotCount {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
	return Slot(strconv.Itoa(n)), nil
}

// Key is the storage key for the slot.
func (s Slot) Key() (string, error) {
	if s == SlotAuto {
		return "ai_game_auto_save", nil
	}
	if _, err := ParseSlot(string(s)); err != nil {
		return "", err
	}
	return "ai_game_save_" + string(s), nil
}

// SlotInfo describes the contents of one slot for listings.
type SlotInfo struct {
	Slot    Slot
	Name    string
	SavedAt string
	Empty   bool
}

// Gateway loads and stores snapshots. Load returns (nil, nil) for an empty slot.
type Gateway interface {
	Save(ctx context.Context, slot Slot, snap *models.Snapshot) error
	Load(ctx context.Context, slot Slot) (*models.Snapshot, error)
	Delete(ctx context.Context, slot Slot) error
	List(ctx context.Context) ([]SlotInfo, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the gateway for backend. dir is used by the file store and
// sqlitePath by the SQLite store.
func Open(backend, dir, sqlitePath string) (Gateway, error) {
	switch strings.ToLower(backend) {
	case BackendFile, "":
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendSQLite:
		db, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// UnreadableSlotName labels a slot whose save exists but cannot be decoded.
const UnreadableSlotName = "(unreadable)"

// listSlots builds the manual slot listing from a per-slot loader. A slot that
// fails to load is listed as unreadable; only context errors abort the listing.
func listSlots(ctx context.Context, load func(context.Context, Slot) (*models.Snapshot, error)) ([]SlotInfo, error) {
	var out []SlotInfo
	for _, slot := range ManualSlots() {
		snap, err := load(ctx, slot)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			out = append(out, SlotInfo{Slot: slot, Name: UnreadableSlotName})
			continue
		}
		if snap == nil {
			out = append(out, SlotInfo{Slot: slot, Empty: true})
			continue
		}
		out = append(out, SlotInfo{Slot: slot, Name: snap.Name, SavedAt: snap.SavedAt})
	}
	return out, nil
}
