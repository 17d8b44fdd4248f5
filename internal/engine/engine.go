// Package engine runs a survival run: it turns player actions into model
// requests, applies the parsed results to the run state and keeps saves.
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tatianab/survival-run/internal/game"
	"github.com/tatianab/survival-run/internal/llm"
	"github.com/tatianab/survival-run/internal/metrics"
	"github.com/tatianab/survival-run/internal/models"
	"github.com/tatianab/survival-run/internal/storage"
)

const defaultLanguage = "Korean"

// Options are the run settings fixed for the engine's lifetime.
type Options struct {
	Catalog     *game.Catalog
	StartStats  models.Stats
	MaxTurns    int
	GenreMode   models.GenreMode
	GenreID     string
	Language    string
	SceneImages bool
	Provider    string // label for metrics
	Rand        game.IntN
	Now         func() time.Time
}

// TurnResult is what a turn, an ending or an item action hands back to the UI.
type TurnResult struct {
	State models.RunState
	// Subject is set when a scene image should be requested for State.
	Subject     *models.Subject
	ParseFailed bool
	AutosaveErr error
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Engine owns the current RunState. At most one text turn is in flight; every
// asynchronous result is tagged with the state version it was issued against
// and dropped if the state has moved on.
type Engine struct {
	narrator llm.NarrativeClient
	images   llm.ImageClient
	store    storage.Gateway
	logger   *zap.Logger
	metrics  *metrics.Recorder
	opts     Options

	mu        sync.Mutex
	state     models.RunState
	busy      bool
	finishing bool
}

// NewEngine wires the collaborators. A nil narrator makes every turn fail with
// ErrNotConfigured; a nil image client disables scene images.
func NewEngine(narrator llm.NarrativeClient, images llm.ImageClient, store storage.Gateway, logger *zap.Logger, rec *metrics.Recorder, opts Options) *Engine {
	if opts.Catalog == nil {
		opts.Catalog = game.DefaultCatalog()
	}
	if opts.MaxTurns < 1 {
		opts.MaxTurns = 5
	}
	if !opts.GenreMode.Valid() {
		opts.GenreMode = models.GenreRandomPerRun
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	if opts.Rand == nil {
		opts.Rand = globalRand{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		narrator: narrator,
		images:   images,
		store:    store,
		logger:   logger,
		metrics:  rec,
		opts:     opts,
	}
	e.state = e.initialState(0)
	return e
}

func (e *Engine) initialState(version uint64) models.RunState {
	sel := models.GenreSelection{Mode: e.opts.GenreMode, SelectedID: e.opts.GenreID}
	if sel.Mode == models.GenreRandomPerRun && sel.SelectedID == "" {
		if g, ok := game.PickGenre(e.opts.Catalog.Genres, e.opts.Rand); ok {
			sel.SelectedID = g.ID
		}
	}
	return models.RunState{
		RunID:     uuid.NewString(),
		Stats:     e.opts.StartStats,
		Inventory: e.opts.Catalog.StartingInventory(),
		MaxTurns:  e.opts.MaxTurns,
		Genre:     sel,
		BGM:       game.DefaultBGM,
		Version:   version,
	}
}

// Configured reports whether a narrative client is available.
func (e *Engine) Configured() bool { return e.narrator != nil }

// State returns a copy of the current run state.
func (e *Engine) State() models.RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Busy reports whether a text turn is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// StartRun resets the run to its starting values and requests the opening scene.
func (e *Engine) StartRun(ctx context.Context) (TurnResult, error) {
	if e.narrator == nil {
		return TurnResult{State: e.State()}, ErrNotConfigured
	}
	e.mu.Lock()
	if e.busy {
		st := e.state.Clone()
		e.mu.Unlock()
		return TurnResult{State: st}, ErrTurnInFlight
	}
	e.state = e.initialState(e.state.Version + 1)
	e.busy = true
	e.finishing = false
	base := e.state.Clone()
	e.mu.Unlock()

	e.logger.Info("run started",
		zap.String("run_id", base.RunID),
		zap.String("genre_mode", string(base.Genre.Mode)),
		zap.String("genre", base.Genre.SelectedID))
	return e.runTurn(ctx, base, "", 0)
}

// SubmitAction plays one turn. An empty action falls back to the recommended one.
func (e *Engine) SubmitAction(ctx context.Context, action string) (TurnResult, error) {
	if e.narrator == nil {
		return TurnResult{State: e.State()}, ErrNotConfigured
	}
	e.mu.Lock()
	st := e.state.Clone()
	var err error
	switch {
	case e.busy:
		err = ErrTurnInFlight
	case !st.HasStory():
		err = ErrNoStory
	case st.IsTerminal():
		err = ErrRunTerminal
	}
	action = strings.TrimSpace(action)
	if action == "" {
		action = strings.TrimSpace(st.RecommendedAction)
	}
	if err == nil && action == "" {
		err = ErrEmptyAction
	}
	if err != nil {
		e.mu.Unlock()
		return TurnResult{State: st}, err
	}
	e.busy = true
	e.mu.Unlock()

	return e.runTurn(ctx, st, action, st.TurnCount+1)
}

func (e *Engine) runTurn(ctx context.Context, base models.RunState, action string, genreTurn int) (TurnResult, error) {
	opening := action == ""
	logger := e.logger.With(zap.String("run_id", base.RunID), zap.Int("turn", base.TurnCount))

	directive := game.BuildDirective(e.opts.Catalog.Genres, base.Genre.Mode, base.Genre.SelectedID, genreTurn)
	system, user, err := e.turnPrompts(base, action, directive)
	if err != nil {
		return e.failTurn(base.Version, opening, err)
	}

	start := e.opts.Now()
	raw, err := e.narrator.Generate(ctx, system, user, storyOptions)
	e.metrics.ObserveNarrative(e.opts.Provider, e.opts.Now().Sub(start), err)
	if err != nil {
		return e.failTurn(base.Version, opening, err)
	}

	payload, ok := game.ParseTurnPayload(raw)
	if !ok {
		e.metrics.ParseFailed()
		logger.Warn("model response held no usable JSON", zap.String("sample", truncate(raw, 200)))
	}

	e.mu.Lock()
	if e.state.Version != base.Version {
		cur := e.state.Clone()
		e.mu.Unlock()
		logger.Info("discarding stale turn", zap.Uint64("issued", base.Version), zap.Uint64("current", cur.Version))
		return TurnResult{State: cur}, ErrStaleTurn
	}
	next := game.ApplyTurn(e.state, payload, e.opts.Catalog)
	story := strings.TrimSpace(payload.Story)
	if story == "" {
		story = EmptyActionStory
		if opening {
			story = EmptyOpeningStory
		}
	}
	next.NarrativeText = story
	next.NarrativeError = ""
	next.RecommendedAction = payload.RecommendedAction
	next.Highlights = payload.Highlights
	next.SceneImage = nil
	next.ImageError = ""
	switch {
	case payload.BGMMood != "" && e.opts.Catalog.KnownMood(payload.BGMMood):
		next.BGM = payload.BGMMood
	case opening:
		next.BGM = game.DefaultBGM
	}
	next.Version = e.state.Version + 1
	e.state = next
	e.busy = false
	out := next.Clone()
	e.mu.Unlock()

	outcome := metrics.OutcomeOK
	switch {
	case out.IsDead:
		outcome = metrics.OutcomeDead
	case out.IsRunComplete:
		outcome = metrics.OutcomeComplete
	}
	e.metrics.TurnApplied(outcome)
	logger.Info("turn applied",
		zap.String("outcome", outcome),
		zap.Int("hp", out.Stats.HP),
		zap.Int("turn_count", out.TurnCount),
		zap.Bool("parsed", ok))

	res := TurnResult{State: out, ParseFailed: !ok}
	res.AutosaveErr = e.autosave(ctx, out)
	if e.opts.SceneImages && e.images != nil && payload.Subject != nil && !out.IsDead {
		subject := *payload.Subject
		res.Subject = &subject
	}
	return res, nil
}

// failTurn records a failed text request. Stats, inventory and the last good
// story are left untouched.
func (e *Engine) failTurn(version uint64, opening bool, cause error) (TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Version != version {
		return TurnResult{State: e.state.Clone()}, ErrStaleTurn
	}
	e.busy = false
	e.state.NarrativeError = FailedActionMessage
	if opening {
		e.state.NarrativeError = FailedStartMessage
	}
	e.logger.Error("narrative request failed",
		zap.String("run_id", e.state.RunID),
		zap.Bool("opening", opening),
		zap.Error(cause))
	return TurnResult{State: e.state.Clone()}, fmt.Errorf("%w: %w", ErrNarrativeFailed, cause)
}

// GenerateScene requests an image of subject for the state at version. A
// failure is recorded on the state and never rolls back the turn.
func (e *Engine) GenerateScene(ctx context.Context, version uint64, subject models.Subject) (models.RunState, error) {
	if e.images == nil {
		return e.State(), ErrNotConfigured
	}
	var failure *llm.ImageFailure
	prompt, err := scenePrompt(subject)
	var img []byte
	if err == nil {
		img, err = e.images.GenerateImage(ctx, prompt, llm.ImageOptions{Count: 1})
	}
	switch {
	case err != nil:
		failure = llm.ClassifyImageError(err)
	case len(img) == 0:
		failure = &llm.ImageFailure{Kind: llm.ImageFailureEmpty}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Version != version {
		return e.state.Clone(), ErrStaleTurn
	}
	if failure != nil {
		e.state.SceneImage = nil
		e.state.ImageError = failure.Message()
		e.metrics.ImageFailed(string(failure.Kind))
		e.logger.Warn("scene image failed",
			zap.String("run_id", e.state.RunID),
			zap.String("kind", string(failure.Kind)),
			zap.Error(failure))
		return e.state.Clone(), failure
	}
	e.state.SceneImage = img
	e.state.ImageError = ""
	return e.state.Clone(), nil
}

// FinishRun writes the ending of a completed run. It does nothing unless the
// run is complete, alive and has no ending yet, so the ending is produced once.
func (e *Engine) FinishRun(ctx context.Context) (TurnResult, error) {
	e.mu.Lock()
	if !e.state.IsRunComplete || e.state.IsDead || e.state.Ending != "" || e.finishing {
		st := e.state.Clone()
		e.mu.Unlock()
		return TurnResult{State: st}, nil
	}
	e.finishing = true
	base := e.state.Clone()
	e.mu.Unlock()

	ending := e.generateEnding(ctx, base)

	e.mu.Lock()
	if e.state.Version != base.Version {
		st := e.state.Clone()
		e.mu.Unlock()
		return TurnResult{State: st}, ErrStaleTurn
	}
	e.finishing = false
	e.state.Achievements = game.ComputeAchievements(e.state)
	e.state.Ending = ending
	out := e.state.Clone()
	e.mu.Unlock()

	e.logger.Info("run finished",
		zap.String("run_id", out.RunID),
		zap.Strings("achievements", out.Achievements))
	return TurnResult{State: out, AutosaveErr: e.autosave(ctx, out)}, nil
}

func (e *Engine) generateEnding(ctx context.Context, st models.RunState) string {
	if e.narrator == nil {
		return FallbackEnding
	}
	directive := game.BuildDirective(e.opts.Catalog.Genres, st.Genre.Mode, st.Genre.SelectedID, st.TurnCount)
	prompt, err := render("ending.txt", struct {
		Directive string
		Language  string
		Summary   string
	}{Directive: directive.Text, Language: e.opts.Language, Summary: EndingSummary(st)})
	if err != nil {
		e.logger.Error("ending prompt", zap.Error(err))
		return FallbackEnding
	}

	start := e.opts.Now()
	text, err := e.narrator.Generate(ctx, "", prompt, endingOptions)
	e.metrics.ObserveNarrative(e.opts.Provider, e.opts.Now().Sub(start), err)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		e.logger.Warn("using fallback ending", zap.String("run_id", st.RunID), zap.Error(err))
		return FallbackEnding
	}
	return text
}

// ExpireLastDelta clears the stat-change highlight if version is still current.
func (e *Engine) ExpireLastDelta(version uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, ok := game.ExpireLastDelta(e.state, version)
	if ok {
		e.state = next
	}
	return ok
}

// UseItem consumes one food or potion.
func (e *Engine) UseItem(ctx context.Context, name string) (TurnResult, error) {
	return e.mutate(ctx, func(st models.RunState) (models.RunState, error) { return game.UseItem(st, name) })
}

// Equip moves a weapon or armor from the inventory into its slot.
func (e *Engine) Equip(ctx context.Context, name string) (TurnResult, error) {
	return e.mutate(ctx, func(st models.RunState) (models.RunState, error) { return game.EquipItem(st, name) })
}

// Unequip returns an equipped item to the inventory.
func (e *Engine) Unequip(ctx context.Context, name string) (TurnResult, error) {
	return e.mutate(ctx, func(st models.RunState) (models.RunState, error) { return game.UnequipItem(st, name) })
}

func (e *Engine) mutate(ctx context.Context, fn func(models.RunState) (models.RunState, error)) (TurnResult, error) {
	e.mu.Lock()
	var err error
	switch {
	case e.busy:
		err = ErrTurnInFlight
	case !e.state.HasStory():
		err = ErrNoStory
	case e.state.IsTerminal():
		err = ErrRunTerminal
	}
	if err == nil {
		var next models.RunState
		if next, err = fn(e.state); err == nil {
			e.state = next
		}
	}
	out := e.state.Clone()
	e.mu.Unlock()
	if err != nil {
		return TurnResult{State: out}, err
	}
	return TurnResult{State: out, AutosaveErr: e.autosave(ctx, out)}, nil
}
