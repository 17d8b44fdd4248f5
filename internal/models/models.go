package models

// StatKey names one of the three player stats a turn can change.
type StatKey string

const (
	StatHP  StatKey = "hp"
	StatATK StatKey = "atk"
	StatMP  StatKey = "mp"
)

// ItemType is the coarse category of an inventory item.
type ItemType string

const (
	ItemWeapon ItemType = "weapon"
	ItemArmor  ItemType = "armor"
	ItemFood   ItemType = "food"
	ItemPotion ItemType = "potion"
	ItemKey    ItemType = "key"
	ItemBook   ItemType = "book"
	ItemMisc   ItemType = "misc"
)

// GenreMode controls how the active genre is chosen for a turn.
type GenreMode string

const (
	GenreFixed         GenreMode = "fixed"
	GenreRandomPerRun  GenreMode = "random-run"
	GenreRotatePerTurn GenreMode = "rotate-turn"
)

// Valid reports whether m is one of the known modes.
func (m GenreMode) Valid() bool {
	switch m {
	case GenreFixed, GenreRandomPerRun, GenreRotatePerTurn:
		return true
	}
	return false
}

// Stats holds the player's numeric stats. HP never drops below zero.
type Stats struct {
	HP  int `json:"hp"`
	ATK int `json:"atk"`
	MP  int `json:"mp"`
}

// Item is one inventory entry. Name is unique within an inventory.
type Item struct {
	Name     string   `json:"name" yaml:"name"`
	Quantity int      `json:"quantity" yaml:"quantity"`
	Type     ItemType `json:"type" yaml:"type"`
	ATKBonus *int     `json:"atkBonus,omitempty" yaml:"atkBonus,omitempty"`
	DEFBonus *int     `json:"defBonus,omitempty" yaml:"defBonus,omitempty"`
}

// Equipment holds at most one weapon and one armor.
type Equipment struct {
	Weapon *Item `json:"weapon,omitempty"`
	Armor  *Item `json:"armor,omitempty"`
}

// Genre is a tone/keyword preset injected into prompts.
type Genre struct {
	ID          string `yaml:"id"`
	Label       string `yaml:"label"`
	SystemStyle string `yaml:"systemStyle"`
	PromptSeed  string `yaml:"promptSeed"`
}

// GenreSelection is the configured genre mode plus the selected id for the run.
type GenreSelection struct {
	Mode       GenreMode `json:"mode"`
	SelectedID string    `json:"selectedId,omitempty"`
}

// LastDelta is the summed stat change of the most recent turn, shown briefly by the UI.
type LastDelta struct {
	HP  int `json:"hp"`
	ATK int `json:"atk"`
	MP  int `json:"mp"`
}

// IsZero reports whether no stat changed.
func (d LastDelta) IsZero() bool {
	return d.HP == 0 && d.ATK == 0 && d.MP == 0
}

// RunState is the single source of truth for one play session.
type RunState struct {
	RunID             string              `json:"runId"`
	NarrativeText     string              `json:"narrativeText"`
	Stats             Stats               `json:"stats"`
	Equipped          Equipment           `json:"equipped"`
	Inventory         []Item              `json:"inventory"`
	TurnCount         int                 `json:"turnCount"`
	MaxTurns          int                 `json:"maxTurns"`
	IsDead            bool                `json:"isDead"`
	IsRunComplete     bool                `json:"isRunComplete"`
	RecommendedAction string              `json:"recommendedAction"`
	Genre             GenreSelection      `json:"genre"`
	Achievements      []string            `json:"achievements"`
	Ending            string              `json:"ending"`
	HUDNotes          []string            `json:"hudNotes"`
	BGM               string              `json:"bgm,omitempty"`
	Highlights        map[string][]string `json:"highlights,omitempty"`
	SceneImage        []byte              `json:"sceneImage,omitempty"`
	ImageError        string              `json:"imageError,omitempty"`

	// NarrativeError replaces NarrativeText on screen after a failed text
	// request. NarrativeText keeps the last good story as prompt context.
	NarrativeError string `json:"-"`

	// LastDelta and Version are transient and never persisted.
	LastDelta LastDelta `json:"-"`
	Version   uint64    `json:"-"`
}

// IsTerminal reports whether the run is dead or complete.
func (s RunState) IsTerminal() bool {
	return s.IsDead || s.IsRunComplete
}

// HasStory reports whether the run has produced any narrative yet.
func (s RunState) HasStory() bool {
	return s.NarrativeText != ""
}

// Clone returns a deep copy so reducers can build the next state without aliasing.
func (s RunState) Clone() RunState {
	out := s
	out.Inventory = cloneItems(s.Inventory)
	out.Equipped = Equipment{Weapon: cloneItemPtr(s.Equipped.Weapon), Armor: cloneItemPtr(s.Equipped.Armor)}
	out.Achievements = append([]string(nil), s.Achievements...)
	out.HUDNotes = append([]string(nil), s.HUDNotes...)
	if s.Highlights != nil {
		out.Highlights = make(map[string][]string, len(s.Highlights))
		for k, v := range s.Highlights {
			out.Highlights[k] = append([]string(nil), v...)
		}
	}
	out.SceneImage = append([]byte(nil), s.SceneImage...)
	return out
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func cloneItemPtr(it *Item) *Item {
	if it == nil {
		return nil
	}
	c := it.Clone()
	return &c
}

// Clone copies the item including its bonus pointers.
func (it Item) Clone() Item {
	out := it
	if it.ATKBonus != nil {
		v := *it.ATKBonus
		out.ATKBonus = &v
	}
	if it.DEFBonus != nil {
		v := *it.DEFBonus
		out.DEFBonus = &v
	}
	return out
}

// Subject is the single object the model picked as the focus of a scene.
type Subject struct {
	PrimaryLabel string `json:"primaryLabel"`
	RenderHint   string `json:"renderHint"`
}

// StatDelta is one stat change requested by the model.
type StatDelta struct {
	Stat   StatKey `json:"stat"`
	Amount int     `json:"delta"`
	Reason string  `json:"reason,omitempty"`
}

// Highlight categories the prompt asks the model to fill.
var HighlightCategories = []string{"item", "location", "npc", "stat_hp", "stat_atk", "stat_mp", "misc"}

// TurnPayload is the decoded, defaulted result of one model call.
type TurnPayload struct {
	Story             string
	Subject           *Subject
	StatDeltas        []StatDelta
	ItemsAdded        []string
	ItemsRemoved      []string
	RecommendedAction string
	BGMMood           string
	Highlights        map[string][]string
}
