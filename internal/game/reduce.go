package game

import (
	"fmt"
	"strings"

	"github.com/tatianab/survival-run/internal/models"
)

// CompletionNote is pushed onto the HUD when a run reaches its turn limit.
const CompletionNote = "max turns reached: recording the ending"

// BonusLookup supplies curated bonuses for items picked up during a turn.
// *Catalog implements it; a nil lookup leaves bonuses unset.
type BonusLookup interface {
	BonusFor(name string) (atk, def *int)
}

// ApplyTurn computes the state that follows st once payload is applied. st is
// not modified. Stats, inventory, turn counters, terminal flags, HUD notes and
// LastDelta are all derived here; narrative fields are left to the caller.
func ApplyTurn(st models.RunState, payload models.TurnPayload, bonuses BonusLookup) models.RunState {
	next := st.Clone()

	var d models.LastDelta
	for _, sd := range payload.StatDeltas {
		switch sd.Stat {
		case models.StatHP:
			d.HP += sd.Amount
		case models.StatATK:
			d.ATK += sd.Amount
		case models.StatMP:
			d.MP += sd.Amount
		}
	}

	next.Stats.HP = max(0, st.Stats.HP+d.HP)
	next.Stats.ATK = st.Stats.ATK + d.ATK
	next.Stats.MP = st.Stats.MP + d.MP

	for _, name := range payload.ItemsAdded {
		next.Inventory = addItem(next.Inventory, name, bonuses)
	}
	for _, name := range payload.ItemsRemoved {
		next.Inventory = removeItem(next.Inventory, name)
	}

	next.IsDead = next.Stats.HP <= 0
	if !next.IsDead {
		next.TurnCount = st.TurnCount + 1
	}
	next.IsRunComplete = !next.IsDead && next.MaxTurns > 0 && next.TurnCount >= next.MaxTurns

	notes := HUDNotes(payload)
	if next.IsRunComplete {
		notes = append([]string{CompletionNote}, notes...)
	}
	next.HUDNotes = PushNotes(st.HUDNotes, notes...)
	next.LastDelta = d
	return next
}

// HUDNotes renders the log lines for one payload, in payload order.
func HUDNotes(p models.TurnPayload) []string {
	var notes []string
	for _, sd := range p.StatDeltas {
		if sd.Amount == 0 {
			continue
		}
		sign := ""
		if sd.Amount > 0 {
			sign = "+"
		}
		line := fmt.Sprintf("%s %s%d", strings.ToUpper(string(sd.Stat)), sign, sd.Amount)
		if sd.Reason != "" {
			line += " (" + sd.Reason + ")"
		}
		notes = append(notes, line)
	}
	for _, name := range p.ItemsAdded {
		notes = append(notes, "new item: "+name)
	}
	for _, name := range p.ItemsRemoved {
		notes = append(notes, "item lost: "+name)
	}
	return notes
}

// PushNotes prepends notes to existing, newest first, keeping the most recent MaxHUDNotes.
func PushNotes(existing []string, notes ...string) []string {
	out := make([]string, 0, len(notes)+len(existing))
	out = append(out, notes...)
	out = append(out, existing...)
	if len(out) > models.MaxHUDNotes {
		out = out[:models.MaxHUDNotes]
	}
	return out
}

// ExpireLastDelta clears the transient highlight, but only if st is still the
// state the expiry was scheduled for.
func ExpireLastDelta(st models.RunState, version uint64) (models.RunState, bool) {
	if st.Version != version || st.LastDelta.IsZero() {
		return st, false
	}
	st.LastDelta = models.LastDelta{}
	return st, true
}

func findItem(items []models.Item, name string) int {
	for i := range items {
		if items[i].Name == name {
			return i
		}
	}
	return -1
}

func addItem(items []models.Item, name string, bonuses BonusLookup) []models.Item {
	if i := findItem(items, name); i >= 0 {
		items[i].Quantity++
		return items
	}
	it := models.Item{Name: name, Quantity: 1, Type: ClassifyItem(name)}
	if bonuses != nil {
		it.ATKBonus, it.DEFBonus = bonuses.BonusFor(name)
	}
	return append(items, it)
}

func removeItem(items []models.Item, name string) []models.Item {
	i := findItem(items, name)
	if i < 0 {
		return items
	}
	if items[i].Quantity > 1 {
		items[i].Quantity--
		return items
	}
	return append(items[:i], items[i+1:]...)
}
