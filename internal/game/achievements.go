package game

import (
	"fmt"

	"github.com/tatianab/survival-run/internal/models"
)

const maxAchievements = 6

// FallbackAchievement is awarded when nothing else applies.
const FallbackAchievement = "Unremarkable survivor: nothing flashy, but you kept going"

// ComputeAchievements evaluates the fixed achievement list against a finished run.
func ComputeAchievements(st models.RunState) []string {
	var out []string
	if st.Stats.HP >= 100 {
		out = append(out, "Iron constitution: finished with 100 HP or more")
	}
	if hasStrongWeapon(st) {
		out = append(out, "Armed to the teeth: secured a powerful weapon")
	}
	if foodHeld(st) >= 3 {
		out = append(out, "Hoarder: held three or more food items")
	}
	if st.MaxTurns > 0 && st.TurnCount >= st.MaxTurns {
		out = append(out, fmt.Sprintf("Held out to the end: survived %d turns", st.MaxTurns))
	}
	if w := st.Equipped.Weapon; w != nil {
		out = append(out, "Weapon equipped: "+w.Name)
	}
	if a := st.Equipped.Armor; a != nil {
		out = append(out, "Armor equipped: "+a.Name)
	}
	if len(out) == 0 {
		out = append(out, FallbackAchievement)
	}
	if len(out) > maxAchievements {
		out = out[:maxAchievements]
	}
	return out
}

func hasStrongWeapon(st models.RunState) bool {
	strong := func(it *models.Item) bool {
		return it != nil && it.Type == models.ItemWeapon && it.ATKBonus != nil && *it.ATKBonus >= 10
	}
	if strong(st.Equipped.Weapon) {
		return true
	}
	for i := range st.Inventory {
		if strong(&st.Inventory[i]) {
			return true
		}
	}
	return false
}

func foodHeld(st models.RunState) int {
	n := 0
	for _, it := range st.Inventory {
		if it.Type == models.ItemFood {
			n += it.Quantity
		}
	}
	return n
}
