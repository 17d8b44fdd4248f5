package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxHUDNotes bounds RunState.HUDNotes.
const MaxHUDNotes = 6

// Snapshot is the flat serialized form of a RunState. Every field is optional on
// load so that saves written by older builds keep loading.
type Snapshot struct {
	Name    string `json:"name,omitempty"`
	SavedAt string `json:"savedAt,omitempty"`

	RunID             string              `json:"runId,omitempty"`
	Story             string              `json:"story"`
	HP                *int                `json:"hp,omitempty"`
	ATK               *int                `json:"atk,omitempty"`
	MP                *int                `json:"mp,omitempty"`
	Items             []SavedItem         `json:"items"`
	EquippedWeapon    *SavedItem          `json:"equippedWeapon,omitempty"`
	EquippedArmor     *SavedItem          `json:"equippedArmor,omitempty"`
	TurnCount         *int                `json:"turnCount,omitempty"`
	MaxTurns          *int                `json:"maxTurns,omitempty"`
	IsDead            *bool               `json:"isDead,omitempty"`
	IsRunComplete     *bool               `json:"isRunComplete,omitempty"`
	RecommendedAction string              `json:"recommendedAction,omitempty"`
	GenreMode         GenreMode           `json:"genreMode,omitempty"`
	SelectedGenreID   string              `json:"selectedGenreId,omitempty"`
	Achievements      []string            `json:"achievements,omitempty"`
	Ending            string              `json:"ending,omitempty"`
	HUDNotes          []string            `json:"hudNotes,omitempty"`
	BGM               string              `json:"currentBgm,omitempty"`
	Highlights        map[string][]string `json:"highlights,omitempty"`
	SceneImage        []byte              `json:"sceneImage,omitempty"`

	// Field names used by earlier save formats.
	SurvivalTurns *int  `json:"survivalTurns,omitempty"`
	IsGameOver    *bool `json:"isGameOver,omitempty"`
}

// SavedItem decodes either a full item object or a bare item name.
type SavedItem struct {
	Name     string
	Quantity int
	ATKBonus *int
	DEFBonus *int
}

type savedItemObject struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity,omitempty"`
	Type     string `json:"type,omitempty"`
	ATKBonus *int   `json:"atkBonus,omitempty"`
	DEFBonus *int   `json:"defBonus,omitempty"`
}

func (s *SavedItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = SavedItem{Name: name, Quantity: 1}
		return nil
	}
	var obj savedItemObject
	if err := json.Unmarshal(data, &obj); err != nil {
		// Unreadable entries are dropped on load rather than failing the save.
		*s = SavedItem{}
		return nil
	}
	*s = SavedItem{Name: obj.Name, Quantity: obj.Quantity, ATKBonus: obj.ATKBonus, DEFBonus: obj.DEFBonus}
	return nil
}

func (s SavedItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(savedItemObject{Name: s.Name, Quantity: s.Quantity, ATKBonus: s.ATKBonus, DEFBonus: s.DEFBonus})
}

// LoadDefaults supplies values for fields a snapshot does not carry.
type LoadDefaults struct {
	Stats    Stats
	MaxTurns int
	Mode     GenreMode
	Classify func(name string) ItemType
}

// NewSnapshot flattens a RunState for storage.
func NewSnapshot(st RunState, name, savedAt string) *Snapshot {
	hp, atk, mp := st.Stats.HP, st.Stats.ATK, st.Stats.MP
	turns, maxTurns := st.TurnCount, st.MaxTurns
	dead, complete := st.IsDead, st.IsRunComplete
	snap := &Snapshot{
		Name:              name,
		SavedAt:           savedAt,
		RunID:             st.RunID,
		Story:             st.NarrativeText,
		HP:                &hp,
		ATK:               &atk,
		MP:                &mp,
		Items:             make([]SavedItem, 0, len(st.Inventory)),
		TurnCount:         &turns,
		MaxTurns:          &maxTurns,
		IsDead:            &dead,
		IsRunComplete:     &complete,
		RecommendedAction: st.RecommendedAction,
		GenreMode:         st.Genre.Mode,
		SelectedGenreID:   st.Genre.SelectedID,
		Achievements:      st.Achievements,
		Ending:            st.Ending,
		HUDNotes:          st.HUDNotes,
		BGM:               st.BGM,
		Highlights:        st.Highlights,
		SceneImage:        st.SceneImage,
	}
	for _, it := range st.Inventory {
		snap.Items = append(snap.Items, toSaved(it))
	}
	if st.Equipped.Weapon != nil {
		w := toSaved(*st.Equipped.Weapon)
		snap.EquippedWeapon = &w
	}
	if st.Equipped.Armor != nil {
		a := toSaved(*st.Equipped.Armor)
		snap.EquippedArmor = &a
	}
	return snap
}

func toSaved(it Item) SavedItem {
	c := it.Clone()
	return SavedItem{Name: c.Name, Quantity: c.Quantity, ATKBonus: c.ATKBonus, DEFBonus: c.DEFBonus}
}

// RunState rebuilds a RunState, defaulting anything missing and re-deriving
// item types from names.
func (s *Snapshot) RunState(d LoadDefaults) RunState {
	classify := d.Classify
	if classify == nil {
		classify = func(string) ItemType { return ItemMisc }
	}
	st := RunState{
		RunID:             s.RunID,
		NarrativeText:     s.Story,
		Stats:             d.Stats,
		MaxTurns:          d.MaxTurns,
		RecommendedAction: s.RecommendedAction,
		Genre:             GenreSelection{Mode: d.Mode, SelectedID: s.SelectedGenreID},
		Achievements:      append([]string(nil), s.Achievements...),
		Ending:            s.Ending,
		BGM:               s.BGM,
		SceneImage:        append([]byte(nil), s.SceneImage...),
	}
	if s.HP != nil {
		st.Stats.HP = max(0, *s.HP)
	}
	if s.ATK != nil {
		st.Stats.ATK = *s.ATK
	}
	if s.MP != nil {
		st.Stats.MP = *s.MP
	}
	switch {
	case s.TurnCount != nil:
		st.TurnCount = *s.TurnCount
	case s.SurvivalTurns != nil:
		st.TurnCount = *s.SurvivalTurns
	}
	if s.MaxTurns != nil {
		st.MaxTurns = *s.MaxTurns
	}
	switch {
	case s.IsDead != nil:
		st.IsDead = *s.IsDead
	case s.IsGameOver != nil:
		st.IsDead = *s.IsGameOver
	}
	st.IsDead = st.IsDead || st.Stats.HP <= 0
	if s.IsRunComplete != nil {
		st.IsRunComplete = *s.IsRunComplete
	}
	if st.MaxTurns > 0 && st.TurnCount >= st.MaxTurns {
		st.IsRunComplete = true
	}
	st.IsRunComplete = st.IsRunComplete && !st.IsDead
	if s.GenreMode.Valid() {
		st.Genre.Mode = s.GenreMode
	}
	for _, it := range s.Items {
		item, ok := fromSaved(it, classify)
		if !ok {
			continue
		}
		st.Inventory = mergeItem(st.Inventory, item)
	}
	if s.EquippedWeapon != nil {
		if w, ok := fromSaved(*s.EquippedWeapon, classify); ok {
			st.Equipped.Weapon = &w
		}
	}
	if s.EquippedArmor != nil {
		if a, ok := fromSaved(*s.EquippedArmor, classify); ok {
			st.Equipped.Armor = &a
		}
	}
	notes := s.HUDNotes
	if len(notes) > MaxHUDNotes {
		notes = notes[:MaxHUDNotes]
	}
	st.HUDNotes = append([]string(nil), notes...)
	if len(s.Highlights) > 0 {
		st.Highlights = make(map[string][]string, len(s.Highlights))
		for k, v := range s.Highlights {
			st.Highlights[k] = append([]string(nil), v...)
		}
	}
	return st
}

func fromSaved(s SavedItem, classify func(string) ItemType) (Item, bool) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return Item{}, false
	}
	qty := s.Quantity
	if qty < 1 {
		qty = 1
	}
	it := Item{Name: name, Quantity: qty, Type: classify(name), ATKBonus: s.ATKBonus, DEFBonus: s.DEFBonus}
	return it.Clone(), true
}

// mergeItem keeps names unique when an old save listed the same item twice.
func mergeItem(items []Item, it Item) []Item {
	for i := range items {
		if items[i].Name == it.Name {
			items[i].Quantity += it.Quantity
			return items
		}
	}
	return append(items, it)
}

// EncodeSnapshot serializes a snapshot as a JSON object.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
