package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tatianab/survival-run/internal/game"
	"github.com/tatianab/survival-run/internal/llm"
	"github.com/tatianab/survival-run/internal/metrics"
	"github.com/tatianab/survival-run/internal/models"
	"github.com/tatianab/survival-run/internal/storage"
)

const (
	sword = "허름한 검"
	bread = "빵 한 조각"
)

const openingJSON = `{
  "story": "The subway car shudders to a halt in the dark.",
  "subject": {"primaryLabel": "flashlight", "renderHint": "a battered yellow flashlight"},
  "deltas": [],
  "itemsAdd": ["rope"],
  "itemsRemove": [],
  "recommendedAction": "Search the next car",
  "bgm": "tense",
  "highlights": {"item": ["rope"], "location": ["subway car"]}
}`

func newTestEngine(t *testing.T, narrator llm.NarrativeClient, images llm.ImageClient, opts Options) (*Engine, storage.Gateway) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	if opts.StartStats == (models.Stats{}) {
		opts.StartStats = models.Stats{HP: 100, ATK: 10, MP: 10}
	}
	if opts.GenreMode == "" {
		opts.GenreMode = models.GenreFixed
	}
	opts.Now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return NewEngine(narrator, images, store, zap.NewNop(), metrics.NewRecorder(), opts), store
}

func isStory(opts llm.GenerateOptions) bool  { return opts == storyOptions }
func isEnding(opts llm.GenerateOptions) bool { return opts == endingOptions }

func onTurn(n *mockNarrator, raw string) *mock.Call {
	return n.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(isStory)).Return(raw, nil).Once()
}

func TestStartRun(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, openingJSON)
	e, store := newTestEngine(t, n, new(mockImages), Options{SceneImages: true})

	res, err := e.StartRun(context.Background())
	require.NoError(t, err)
	n.AssertExpectations(t)

	st := res.State
	assert.Equal(t, "The subway car shudders to a halt in the dark.", st.NarrativeText)
	assert.Equal(t, 1, st.TurnCount)
	assert.Equal(t, 100, st.Stats.HP)
	assert.Equal(t, "tense", st.BGM)
	assert.Equal(t, "Search the next car", st.RecommendedAction)
	assert.Equal(t, []string{"rope"}, st.Highlights["item"])
	assert.Equal(t, uint64(2), st.Version)
	assert.NotEmpty(t, st.RunID)
	assert.False(t, res.ParseFailed)
	assert.NoError(t, res.AutosaveErr)
	require.NotNil(t, res.Subject)
	assert.Equal(t, "flashlight", res.Subject.PrimaryLabel)
	assert.False(t, e.Busy())

	names := make([]string, 0, len(st.Inventory))
	for _, it := range st.Inventory {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{sword, bread, "rope"}, names)

	saved, err := store.Load(context.Background(), storage.SlotAuto)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, st.NarrativeText, saved.Story)
}

func TestStartRunPromptCarriesGenreAndState(t *testing.T) {
	n := new(mockNarrator)
	var system, user string
	n.On("Generate", mock.Anything, mock.Anything, mock.Anything, storyOptions).
		Run(func(args mock.Arguments) {
			system = args.String(1)
			user = args.String(2)
		}).
		Return(openingJSON, nil).Once()
	e, _ := newTestEngine(t, n, nil, Options{GenreMode: models.GenreFixed, GenreID: "zombie", Language: "English"})

	_, err := e.StartRun(context.Background())
	require.NoError(t, err)
	assert.Contains(t, user, "Zombie outbreak")
	assert.Contains(t, user, `"hp": 100`)
	assert.Contains(t, user, sword)
	assert.Contains(t, system, "calm, tense, combat")
	assert.Contains(t, system, "in English")
	assert.Contains(t, system, "fear of infection")
}

func TestRandomRunPicksGenrePerRun(t *testing.T) {
	e, _ := newTestEngine(t, nil, nil, Options{GenreMode: models.GenreRandomPerRun, Rand: fixedRand(2)})
	assert.Equal(t, "zombie", e.State().Genre.SelectedID)

	e, _ = newTestEngine(t, nil, nil, Options{GenreMode: models.GenreRandomPerRun, GenreID: "cave", Rand: fixedRand(2)})
	assert.Equal(t, "cave", e.State().Genre.SelectedID)
}

func TestSubmitActionAppliesDeltas(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, `{"story":"start","recommendedAction":"fight"}`)
	var user string
	n.On("Generate", mock.Anything, mock.Anything, mock.Anything, storyOptions).
		Run(func(args mock.Arguments) { user = args.String(2) }).
		Return(`{"story":"The blade snaps as the beast bites.","deltas":[{"stat":"hp","delta":-30,"reason":"bitten"}],"itemsRemove":["허름한 검"]}`, nil).Once()
	e, _ := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	_, err := e.StartRun(ctx)
	require.NoError(t, err)
	res, err := e.SubmitAction(ctx, "swing the sword")
	require.NoError(t, err)

	st := res.State
	assert.Equal(t, 70, st.Stats.HP)
	assert.Equal(t, 2, st.TurnCount)
	assert.False(t, st.IsDead)
	assert.Equal(t, models.LastDelta{HP: -30}, st.LastDelta)
	for _, it := range st.Inventory {
		assert.NotEqual(t, sword, it.Name)
	}
	assert.Contains(t, st.HUDNotes, "HP -30 (bitten)")
	assert.Equal(t, game.DefaultBGM, st.BGM)
	assert.Contains(t, user, "Player action: swing the sword")
	assert.Contains(t, user, "start")
}

func TestEmptyActionFallsBackToRecommendation(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, `{"story":"start","recommendedAction":"climb the ladder"}`)
	n.On("Generate", mock.Anything, mock.Anything, mock.MatchedBy(func(user string) bool {
		return strings.Contains(user, "Player action: climb the ladder")
	}), storyOptions).Return(`{"story":"next"}`, nil).Once()
	e, _ := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	_, err := e.StartRun(ctx)
	require.NoError(t, err)
	res, err := e.SubmitAction(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, "next", res.State.NarrativeText)

	_, err = e.SubmitAction(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyAction)
	n.AssertExpectations(t)
}

func TestLethalTurnIsTerminal(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, `{"story":"The floor gives way.","deltas":[{"stat":"hp","delta":-25}],"subject":{"primaryLabel":"pit"}}`)
	e, _ := newTestEngine(t, n, new(mockImages), Options{StartStats: models.Stats{HP: 20, ATK: 10, MP: 10}, SceneImages: true})
	ctx := context.Background()

	res, err := e.StartRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.State.Stats.HP)
	assert.True(t, res.State.IsDead)
	assert.Equal(t, 0, res.State.TurnCount)
	assert.Nil(t, res.Subject)

	before := e.State()
	for range 3 {
		_, err = e.SubmitAction(ctx, "get up")
		assert.ErrorIs(t, err, ErrRunTerminal)
	}
	after := e.State()
	assert.Equal(t, before.NarrativeText, after.NarrativeText)
	assert.Equal(t, before.Stats, after.Stats)
	assert.Equal(t, before.Inventory, after.Inventory)

	fin, err := e.FinishRun(ctx)
	require.NoError(t, err)
	assert.Empty(t, fin.State.Ending)
	n.AssertNumberOfCalls(t, "Generate", 1)
}

func TestCompletedRunEndsOnce(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, `{"story":"one"}`)
	onTurn(n, `{"story":"two"}`)
	n.On("Generate", mock.Anything, "", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "turns=2/2")
	}), mock.MatchedBy(isEnding)).Return("  Dawn finds you alive.  ", nil).Once()
	e, _ := newTestEngine(t, n, nil, Options{MaxTurns: 2})
	ctx := context.Background()

	_, err := e.StartRun(ctx)
	require.NoError(t, err)
	res, err := e.SubmitAction(ctx, "wait")
	require.NoError(t, err)
	assert.True(t, res.State.IsRunComplete)
	assert.Equal(t, game.CompletionNote, res.State.HUDNotes[0])

	fin, err := e.FinishRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dawn finds you alive.", fin.State.Ending)
	assert.Contains(t, fin.State.Achievements, "Held out to the end: survived 2 turns")
	assert.NoError(t, fin.AutosaveErr)

	again, err := e.FinishRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, fin.State.Ending, again.State.Ending)
	n.AssertNumberOfCalls(t, "Generate", 3)

	_, err = e.SubmitAction(ctx, "keep going")
	assert.ErrorIs(t, err, ErrRunTerminal)
}

func TestEndingFallsBack(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, `{"story":"one"}`)
	n.On("Generate", mock.Anything, "", mock.Anything, endingOptions).Return("", errors.New("quota")).Once()
	e, _ := newTestEngine(t, n, nil, Options{MaxTurns: 1})
	ctx := context.Background()

	_, err := e.StartRun(ctx)
	require.NoError(t, err)
	fin, err := e.FinishRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, FallbackEnding, fin.State.Ending)
}

func TestTurnInFlightIsRejected(t *testing.T) {
	n := new(mockNarrator)
	release := make(chan struct{})
	n.On("Generate", mock.Anything, mock.Anything, mock.Anything, storyOptions).
		Run(func(mock.Arguments) { <-release }).
		Return(openingJSON, nil).Once()
	e, _ := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := e.StartRun(ctx)
		done <- err
	}()
	require.Eventually(t, e.Busy, time.Second, time.Millisecond)

	_, err := e.StartRun(ctx)
	assert.ErrorIs(t, err, ErrTurnInFlight)
	_, err = e.SubmitAction(ctx, "run")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, e.Busy())
	n.AssertNumberOfCalls(t, "Generate", 1)
}

func TestStaleTurnIsDiscarded(t *testing.T) {
	n := new(mockNarrator)
	release := make(chan struct{})
	n.On("Generate", mock.Anything, mock.Anything, mock.Anything, storyOptions).
		Run(func(mock.Arguments) { <-release }).
		Return(openingJSON, nil).Once()
	e, _ := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := e.StartRun(ctx)
		done <- err
	}()
	require.Eventually(t, e.Busy, time.Second, time.Millisecond)

	reset, err := e.Reset(ctx)
	require.NoError(t, err)
	assert.False(t, e.Busy())

	close(release)
	assert.ErrorIs(t, <-done, ErrStaleTurn)
	st := e.State()
	assert.False(t, st.HasStory())
	assert.Equal(t, reset.Version, st.Version)
	assert.Equal(t, reset.RunID, st.RunID)
}

func TestNotConfigured(t *testing.T) {
	e, _ := newTestEngine(t, nil, nil, Options{})
	ctx := context.Background()

	_, err := e.StartRun(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, NotConfiguredMessage, UserMessage(err))
	_, err = e.SubmitAction(ctx, "look around")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = e.GenerateScene(ctx, 0, models.Subject{PrimaryLabel: "rock"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, e.Configured())
}

func TestTextFailureKeepsState(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, `{"story":"start","deltas":[{"stat":"mp","delta":2}]}`)
	n.On("Generate", mock.Anything, mock.Anything, mock.Anything, storyOptions).Return("", errors.New("503 unavailable")).Once()
	onTurn(n, `{"story":"retry worked"}`)
	e, _ := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	started, err := e.StartRun(ctx)
	require.NoError(t, err)

	res, err := e.SubmitAction(ctx, "open the door")
	require.ErrorIs(t, err, ErrNarrativeFailed)
	assert.Contains(t, err.Error(), "503 unavailable")
	assert.Equal(t, FailedActionMessage, res.State.NarrativeError)
	assert.Equal(t, started.State.NarrativeText, res.State.NarrativeText)
	assert.Equal(t, started.State.Stats, res.State.Stats)
	assert.Equal(t, started.State.Inventory, res.State.Inventory)
	assert.Equal(t, started.State.TurnCount, res.State.TurnCount)
	assert.Equal(t, started.State.Version, res.State.Version)
	assert.False(t, e.Busy())

	res, err = e.SubmitAction(ctx, "open the door")
	require.NoError(t, err)
	assert.Equal(t, "retry worked", res.State.NarrativeText)
	assert.Empty(t, res.State.NarrativeError)
}

func TestOpeningFailureLeavesNoStory(t *testing.T) {
	n := new(mockNarrator)
	n.On("Generate", mock.Anything, mock.Anything, mock.Anything, storyOptions).Return("", errors.New("timeout")).Once()
	e, _ := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	res, err := e.StartRun(ctx)
	require.ErrorIs(t, err, ErrNarrativeFailed)
	assert.Equal(t, FailedStartMessage, res.State.NarrativeError)
	assert.False(t, res.State.HasStory())

	_, err = e.SubmitAction(ctx, "anything")
	assert.ErrorIs(t, err, ErrNoStory)
}

func TestUnparseableResponseStillAdvances(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, "I'm sorry, I can't produce JSON today.")
	e, _ := newTestEngine(t, n, nil, Options{})

	res, err := e.StartRun(context.Background())
	require.NoError(t, err)
	assert.True(t, res.ParseFailed)
	assert.Equal(t, EmptyOpeningStory, res.State.NarrativeText)
	assert.Equal(t, 1, res.State.TurnCount)
	assert.Equal(t, game.DefaultBGM, res.State.BGM)
}

func TestGenerateScene(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, openingJSON)
	onTurn(n, `{"story":"later","subject":{"primaryLabel":"door"}}`)
	img := new(mockImages)
	img.On("GenerateImage", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "flashlight") && strings.Contains(p, "a battered yellow flashlight")
	}), llm.ImageOptions{Count: 1}).Return([]byte("png"), nil).Once()
	img.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("Quota exceeded for this project")).Once()
	e, _ := newTestEngine(t, n, img, Options{SceneImages: true})
	ctx := context.Background()

	res, err := e.StartRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Subject)

	st, err := e.GenerateScene(ctx, res.State.Version, *res.Subject)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), st.SceneImage)
	assert.Equal(t, res.State.Version, st.Version)

	next, err := e.SubmitAction(ctx, "go on")
	require.NoError(t, err)
	assert.Nil(t, next.State.SceneImage)

	st, err = e.GenerateScene(ctx, next.State.Version, *next.Subject)
	var failure *llm.ImageFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, llm.ImageFailureQuota, failure.Kind)
	assert.Equal(t, failure.Message(), st.ImageError)
	assert.Equal(t, "later", st.NarrativeText)
	assert.Equal(t, next.State.Stats, st.Stats)
	assert.Equal(t, failure.Message(), UserMessage(err))
	img.AssertExpectations(t)
}

func TestGenerateSceneDropsStaleImage(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, openingJSON)
	img := new(mockImages)
	img.On("GenerateImage", mock.Anything, mock.Anything, mock.Anything).Return([]byte("png"), nil)
	e, _ := newTestEngine(t, n, img, Options{SceneImages: true})
	ctx := context.Background()

	res, err := e.StartRun(ctx)
	require.NoError(t, err)
	_, err = e.Reset(ctx)
	require.NoError(t, err)

	st, err := e.GenerateScene(ctx, res.State.Version, *res.Subject)
	assert.ErrorIs(t, err, ErrStaleTurn)
	assert.Nil(t, st.SceneImage)
	assert.Empty(t, UserMessage(err))
}

func TestSaveSlots(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, openingJSON)
	e, _ := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	started, err := e.StartRun(ctx)
	require.NoError(t, err)
	require.NoError(t, e.SaveSlot(ctx, "1", "subway"))

	slots, err := e.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, storage.ManualSlotCount)
	assert.Equal(t, "subway", slots[0].Name)
	assert.Equal(t, "2026-05-01T12:00:00Z", slots[0].SavedAt)
	assert.True(t, slots[1].Empty)

	reset, err := e.Reset(ctx)
	require.NoError(t, err)
	assert.False(t, reset.HasStory())
	_, err = e.Resume(ctx)
	assert.ErrorIs(t, err, ErrNoSave)

	loaded, err := e.LoadSlot(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, started.State.NarrativeText, loaded.NarrativeText)
	assert.Equal(t, started.State.RunID, loaded.RunID)
	assert.Equal(t, started.State.Inventory, loaded.Inventory)
	assert.Greater(t, loaded.Version, reset.Version)

	require.NoError(t, e.DeleteSlot(ctx, "1"))
	_, err = e.LoadSlot(ctx, "1")
	assert.ErrorIs(t, err, ErrNoSave)

	err = e.SaveSlot(ctx, "9", "")
	assert.ErrorIs(t, err, storage.ErrInvalidSlot)
	assert.Equal(t, "Save slots are 1 to 3.", UserMessage(err))
}

func TestResumeLoadsAutosave(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, openingJSON)
	e, store := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	started, err := e.StartRun(ctx)
	require.NoError(t, err)

	other := NewEngine(n, nil, store, zap.NewNop(), nil, Options{Catalog: game.DefaultCatalog(), StartStats: models.Stats{HP: 100, ATK: 10, MP: 10}})
	st, err := other.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, started.State.NarrativeText, st.NarrativeText)
	assert.Equal(t, started.State.TurnCount, st.TurnCount)
	assert.Equal(t, "tense", st.BGM)
}

func TestResumeDeadLegacySaveStaysTerminal(t *testing.T) {
	n := new(mockNarrator)
	e, store := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	snap, err := models.DecodeSnapshot([]byte(`{"story":"you collapse","hp":0,"items":["rope"],"survivalTurns":2}`))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, storage.SlotAuto, snap))

	st, err := e.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Stats.HP)
	assert.True(t, st.IsDead)
	assert.True(t, st.IsTerminal())

	res, err := e.SubmitAction(ctx, "stand up")
	assert.ErrorIs(t, err, ErrRunTerminal)
	assert.Equal(t, 2, res.State.TurnCount)
	n.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestItemActions(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, `{"story":"start","deltas":[{"stat":"hp","delta":-20}]}`)
	e, _ := newTestEngine(t, n, nil, Options{})
	ctx := context.Background()

	_, err := e.UseItem(ctx, bread)
	assert.ErrorIs(t, err, ErrNoStory)

	_, err = e.StartRun(ctx)
	require.NoError(t, err)

	res, err := e.UseItem(ctx, bread)
	require.NoError(t, err)
	assert.Equal(t, 90, res.State.Stats.HP)
	assert.Contains(t, res.State.HUDNotes, "HP +10 ("+bread+")")

	res, err = e.Equip(ctx, sword)
	require.NoError(t, err)
	require.NotNil(t, res.State.Equipped.Weapon)
	assert.Equal(t, sword, res.State.Equipped.Weapon.Name)
	assert.Equal(t, 15, game.AdjustedATK(res.State))

	_, err = e.UseItem(ctx, sword)
	assert.ErrorIs(t, err, game.ErrItemNotFound)

	res, err = e.Unequip(ctx, sword)
	require.NoError(t, err)
	assert.Nil(t, res.State.Equipped.Weapon)
	assert.Equal(t, 10, game.AdjustedATK(res.State))
}

func TestExpireLastDelta(t *testing.T) {
	n := new(mockNarrator)
	onTurn(n, `{"story":"start","deltas":[{"stat":"atk","delta":3}]}`)
	e, _ := newTestEngine(t, n, nil, Options{})

	res, err := e.StartRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.State.LastDelta.ATK)

	assert.False(t, e.ExpireLastDelta(res.State.Version-1))
	assert.True(t, e.ExpireLastDelta(res.State.Version))
	assert.True(t, e.State().LastDelta.IsZero())
	assert.False(t, e.ExpireLastDelta(res.State.Version))
}

func TestEndingSummary(t *testing.T) {
	bonus := 5
	st := models.RunState{
		Stats:     models.Stats{HP: 70, ATK: 10, MP: 4},
		TurnCount: 5,
		MaxTurns:  5,
		Equipped:  models.Equipment{Weapon: &models.Item{Name: "steel sword", Quantity: 1, ATKBonus: &bonus}},
		Inventory: []models.Item{{Name: "bread", Quantity: 2}, {Name: "rope", Quantity: 1}},
	}
	assert.Equal(t, "HP=70, ATK=15(adjusted), MP=4 | turns=5/5 | weapon=steel sword, armor=none | items=bread x2, rope x1", EndingSummary(st))
	assert.Equal(t, "HP=0, ATK=0(adjusted), MP=0 | turns=0/0 | weapon=none, armor=none | items=none", EndingSummary(models.RunState{}))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrStaleTurn, ""},
		{ErrTurnInFlight, "Still waiting for the current turn."},
		{ErrRunTerminal, "This run is over. Start a new one with /restart."},
		{game.ErrNotUsable, "That item can't be used."},
		{&llm.ImageFailure{Kind: llm.ImageFailureBilling}, (&llm.ImageFailure{Kind: llm.ImageFailureBilling}).Message()},
		{errors.New("disk full"), "disk full"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err), "%v", tt.err)
	}
}
