package game

import (
	"fmt"

	"github.com/tatianab/survival-run/internal/models"
)

// Directive is the genre instruction injected into a turn prompt.
type Directive struct {
	Active *models.Genre
	Text   string
}

const openDirective = "Genre directive: do not lock the story into one genre (realistic, fantasy, science fiction, near future, disaster, stealth and so on). " +
	"Design a fresh survival situation every turn, vary the mood so it does not repeat the previous beat, " +
	"and let the way problems get solved depend on the player's stats."

// BuildDirective picks the active genre for a turn and renders its instruction text.
// It is pure: the same genres, mode, selection and turn always give the same result.
func BuildDirective(genres []models.Genre, mode models.GenreMode, selectedID string, turnIndex int) Directive {
	var active *models.Genre
	switch mode {
	case models.GenreFixed, models.GenreRandomPerRun:
		if i := genreIndex(genres, selectedID); i >= 0 {
			g := genres[i]
			active = &g
		}
	case models.GenreRotatePerTurn:
		if len(genres) > 0 {
			base := max(0, genreIndex(genres, selectedID))
			g := genres[(base+max(0, turnIndex))%len(genres)]
			active = &g
		}
	}

	if active == nil {
		return Directive{Text: openDirective}
	}
	text := fmt.Sprintf("Genre directive: build the scene around a %q feel while avoiding clichés; %s.\nGenre keywords: %s\n",
		active.Label, active.SystemStyle, active.PromptSeed)
	return Directive{Active: active, Text: text}
}

// genreIndex returns the position of id in genres, or -1.
func genreIndex(genres []models.Genre, id string) int {
	if id == "" {
		return -1
	}
	for i, g := range genres {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// IntN is the random source PickGenre draws from; *rand.Rand from math/rand/v2 satisfies it.
type IntN interface {
	IntN(n int) int
}

// PickGenre draws one genre uniformly. It is used once per run in random-run mode.
func PickGenre(genres []models.Genre, rng IntN) (models.Genre, bool) {
	if len(genres) == 0 {
		return models.Genre{}, false
	}
	return genres[rng.IntN(len(genres))], true
}
