package engine

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/tatianab/survival-run/internal/game"
	"github.com/tatianab/survival-run/internal/llm"
	"github.com/tatianab/survival-run/internal/models"
)

//go:embed prompts/*.txt
var promptFS embed.FS

var prompts = template.Must(template.New("").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(promptFS, "prompts/*.txt"))

var (
	storyOptions  = llm.GenerateOptions{Temperature: 0.8, MaxOutputTokens: 3000, TopP: 0.95, TopK: 40}
	endingOptions = llm.GenerateOptions{Temperature: 0.8, MaxOutputTokens: 500}
)

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

type inventoryLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Type     models.ItemType `json:"type"`
	ATKBonus *int            `json:"atkBonus,omitempty"`
	DEFBonus *int            `json:"defBonus,omitempty"`
}

type playerState struct {
	HP        int             `json:"hp"`
	ATK       int             `json:"atk"`
	MP        int             `json:"mp"`
	Turn      int             `json:"turn"`
	MaxTurns  int             `json:"maxTurns"`
	Weapon    *inventoryLine  `json:"weapon,omitempty"`
	Armor     *inventoryLine  `json:"armor,omitempty"`
	Inventory []inventoryLine `json:"inventory"`
}

func lineFor(it *models.Item) *inventoryLine {
	if it == nil {
		return nil
	}
	return &inventoryLine{Name: it.Name, Quantity: it.Quantity, Type: it.Type, ATKBonus: it.ATKBonus, DEFBonus: it.DEFBonus}
}

// playerStateJSON is what the model sees of the player. ATK includes the
// equipped weapon's bonus.
func playerStateJSON(st models.RunState) (string, error) {
	ps := playerState{
		HP:        st.Stats.HP,
		ATK:       game.AdjustedATK(st),
		MP:        st.Stats.MP,
		Turn:      st.TurnCount,
		MaxTurns:  st.MaxTurns,
		Weapon:    lineFor(st.Equipped.Weapon),
		Armor:     lineFor(st.Equipped.Armor),
		Inventory: make([]inventoryLine, 0, len(st.Inventory)),
	}
	for i := range st.Inventory {
		ps.Inventory = append(ps.Inventory, *lineFor(&st.Inventory[i]))
	}
	b, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode player state: %w", err)
	}
	return string(b), nil
}

func (e *Engine) turnPrompts(st models.RunState, action string, directive game.Directive) (system, user string, err error) {
	system, err = render("turn_system.txt", struct {
		Moods    []string
		Language string
	}{Moods: e.opts.Catalog.BGMMoods, Language: e.opts.Language})
	if err != nil {
		return "", "", err
	}
	if directive.Active != nil {
		system += "\n" + directive.Active.SystemStyle
	}

	player, err := playerStateJSON(st)
	if err != nil {
		return "", "", err
	}
	user, err = render("turn.txt", struct {
		Opening     bool
		PlayerState string
		Directive   string
		Language    string
		Story       string
		Action      string
	}{
		Opening:     action == "",
		PlayerState: player,
		Directive:   directive.Text,
		Language:    e.opts.Language,
		Story:       st.NarrativeText,
		Action:      action,
	})
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

// EndingSummary condenses the final state into the line the ending prompt reflects on.
func EndingSummary(st models.RunState) string {
	weapon, armor := "none", "none"
	if w := st.Equipped.Weapon; w != nil {
		weapon = w.Name
	}
	if a := st.Equipped.Armor; a != nil {
		armor = a.Name
	}
	items := "none"
	if len(st.Inventory) > 0 {
		parts := make([]string, 0, len(st.Inventory))
		for _, it := range st.Inventory {
			parts = append(parts, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
		}
		items = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("HP=%d, ATK=%d(adjusted), MP=%d | turns=%d/%d | weapon=%s, armor=%s | items=%s",
		st.Stats.HP, game.AdjustedATK(st), st.Stats.MP, st.TurnCount, st.MaxTurns, weapon, armor, items)
}

func scenePrompt(subject models.Subject) (string, error) {
	hint := strings.TrimSpace(subject.RenderHint)
	if hint == "" {
		hint = subject.PrimaryLabel
	}
	return render("scene_image.txt", struct{ Label, Hint string }{Label: subject.PrimaryLabel, Hint: hint})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
