package game

import (
	"errors"
	"fmt"

	"github.com/tatianab/survival-run/internal/models"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrNotEquippable = errors.New("item cannot be equipped")
	ErrNotUsable     = errors.New("item cannot be used")
)

// Healing applied when an item of the given type is used.
var healAmounts = map[models.ItemType]int{
	models.ItemFood:   10,
	models.ItemPotion: 30,
}

// AdjustedATK is ATK including the equipped weapon's bonus.
func AdjustedATK(st models.RunState) int {
	atk := st.Stats.ATK
	if w := st.Equipped.Weapon; w != nil && w.ATKBonus != nil {
		atk += *w.ATKBonus
	}
	return atk
}

// UseItem consumes one unit of a food or potion item and heals the player.
func UseItem(st models.RunState, name string) (models.RunState, error) {
	i := findItem(st.Inventory, name)
	if i < 0 {
		return st, fmt.Errorf("use %q: %w", name, ErrItemNotFound)
	}
	heal, ok := healAmounts[st.Inventory[i].Type]
	if !ok {
		return st, fmt.Errorf("use %q: %w", name, ErrNotUsable)
	}
	next := st.Clone()
	next.Stats.HP += heal
	next.Inventory = removeItem(next.Inventory, name)
	next.HUDNotes = PushNotes(next.HUDNotes, fmt.Sprintf("HP +%d (%s)", heal, name))
	return next, nil
}

// EquipItem moves one unit of a weapon or armor from the inventory into its
// slot. Whatever occupied the slot goes back into the inventory.
func EquipItem(st models.RunState, name string) (models.RunState, error) {
	i := findItem(st.Inventory, name)
	if i < 0 {
		return st, fmt.Errorf("equip %q: %w", name, ErrItemNotFound)
	}
	typ := st.Inventory[i].Type
	if typ != models.ItemWeapon && typ != models.ItemArmor {
		return st, fmt.Errorf("equip %q: %w", name, ErrNotEquippable)
	}

	next := st.Clone()
	item := next.Inventory[i].Clone()
	item.Quantity = 1
	next.Inventory = removeItem(next.Inventory, name)

	slot := &next.Equipped.Weapon
	if typ == models.ItemArmor {
		slot = &next.Equipped.Armor
	}
	var notes []string
	if prev := *slot; prev != nil {
		next.Inventory = stackItem(next.Inventory, *prev)
		notes = append(notes, "unequipped: "+prev.Name)
	}
	*slot = &item
	notes = append([]string{"equipped: " + item.Name}, notes...)
	next.HUDNotes = PushNotes(next.HUDNotes, notes...)
	return next, nil
}

// UnequipItem returns an equipped item, matched by name, to the inventory.
func UnequipItem(st models.RunState, name string) (models.RunState, error) {
	next := st.Clone()
	var slot **models.Item
	switch {
	case next.Equipped.Weapon != nil && next.Equipped.Weapon.Name == name:
		slot = &next.Equipped.Weapon
	case next.Equipped.Armor != nil && next.Equipped.Armor.Name == name:
		slot = &next.Equipped.Armor
	default:
		return st, fmt.Errorf("unequip %q: %w", name, ErrItemNotFound)
	}
	next.Inventory = stackItem(next.Inventory, **slot)
	*slot = nil
	next.HUDNotes = PushNotes(next.HUDNotes, "unequipped: "+name)
	return next, nil
}

func stackItem(items []models.Item, it models.Item) []models.Item {
	if i := findItem(items, it.Name); i >= 0 {
		items[i].Quantity += max(1, it.Quantity)
		return items
	}
	return append(items, it.Clone())
}
