package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/survival-run/internal/models"
)

func TestBuildDirective_Rotation(t *testing.T) {
	genres := DefaultCatalog().Genres
	require.Len(t, genres, 12)
	zombie := genreIndex(genres, "zombie")
	require.GreaterOrEqual(t, zombie, 0)

	d := BuildDirective(genres, models.GenreRotatePerTurn, "zombie", 3)
	require.NotNil(t, d.Active)
	assert.Equal(t, genres[(zombie+3)%len(genres)].ID, d.Active.ID)
	assert.Contains(t, d.Text, d.Active.Label)

	again := BuildDirective(genres, models.GenreRotatePerTurn, "zombie", 3)
	assert.Equal(t, d, again)

	wrapped := BuildDirective(genres, models.GenreRotatePerTurn, "zombie", 3+len(genres))
	assert.Equal(t, d.Active.ID, wrapped.Active.ID)
}

func TestBuildDirective_RotationWithoutSelectionStartsAtZero(t *testing.T) {
	genres := DefaultCatalog().Genres
	for _, sel := range []string{"", "no-such-genre"} {
		d := BuildDirective(genres, models.GenreRotatePerTurn, sel, 1)
		require.NotNil(t, d.Active)
		assert.Equal(t, genres[1].ID, d.Active.ID)
	}

	neg := BuildDirective(genres, models.GenreRotatePerTurn, "", -4)
	assert.Equal(t, genres[0].ID, neg.Active.ID)
}

func TestBuildDirective_FixedAndOpen(t *testing.T) {
	genres := DefaultCatalog().Genres

	d := BuildDirective(genres, models.GenreFixed, "cave", 9)
	require.NotNil(t, d.Active)
	assert.Equal(t, "cave", d.Active.ID)
	assert.Contains(t, d.Text, d.Active.PromptSeed)

	for _, tt := range []struct {
		mode models.GenreMode
		sel  string
	}{
		{models.GenreFixed, ""},
		{models.GenreRandomPerRun, "unknown"},
		{models.GenreMode("bogus"), "cave"},
	} {
		open := BuildDirective(genres, tt.mode, tt.sel, 0)
		assert.Nil(t, open.Active)
		assert.Equal(t, openDirective, open.Text)
	}

	empty := BuildDirective(nil, models.GenreRotatePerTurn, "", 2)
	assert.Nil(t, empty.Active)
}

type fixedRNG int

func (f fixedRNG) IntN(n int) int { return int(f) % n }

func TestPickGenre(t *testing.T) {
	genres := DefaultCatalog().Genres
	g, ok := PickGenre(genres, fixedRNG(4))
	require.True(t, ok)
	assert.Equal(t, genres[4], g)

	_, ok = PickGenre(nil, fixedRNG(0))
	assert.False(t, ok)
}
