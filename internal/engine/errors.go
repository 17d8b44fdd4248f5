package engine

import (
	"errors"
	"fmt"

	"github.com/tatianab/survival-run/internal/game"
	"github.com/tatianab/survival-run/internal/llm"
	"github.com/tatianab/survival-run/internal/storage"
)

var (
	ErrNotConfigured   = errors.New("no model credential configured")
	ErrTurnInFlight    = errors.New("a turn is already in flight")
	ErrRunTerminal     = errors.New("run is over")
	ErrNoStory         = errors.New("run has no story yet")
	ErrStaleTurn       = errors.New("turn result is stale")
	ErrNarrativeFailed = errors.New("narrative generation failed")
	ErrEmptyAction     = errors.New("empty action")
	ErrNoSave          = errors.New("save slot is empty")
	ErrNoStore         = errors.New("no save store configured")
)

// Player-facing texts.
const (
	NotConfiguredMessage = "No model is configured. Set GEMINI_API_KEY or OPENAI_API_KEY, or use TEXT_PROVIDER=ollama, then restart."
	FailedStartMessage   = "An error occurred generating the situation. Start again with /restart."
	FailedActionMessage  = "An error occurred generating the story. Try the action again."
	EmptyOpeningStory    = "(situation generation failed)"
	EmptyActionStory     = "(story generation failed)"
	FallbackEnding       = "After a long struggle you pause to catch your breath. Having made it through today was enough."
)

// UserMessage turns an engine error into a line for the status bar. Stale
// results are silent.
func UserMessage(err error) string {
	var img *llm.ImageFailure
	switch {
	case err == nil, errors.Is(err, ErrStaleTurn):
		return ""
	case errors.Is(err, ErrNotConfigured):
		return NotConfiguredMessage
	case errors.Is(err, ErrTurnInFlight):
		return "Still waiting for the current turn."
	case errors.Is(err, ErrRunTerminal):
		return "This run is over. Start a new one with /restart."
	case errors.Is(err, ErrNoStory):
		return "No story yet. Start a run with /restart."
	case errors.Is(err, ErrEmptyAction):
		return "Type an action first."
	case errors.Is(err, ErrNarrativeFailed):
		return "The model request failed."
	case errors.Is(err, ErrNoSave):
		return "That save slot is empty."
	case errors.Is(err, ErrNoStore):
		return "Saving is not available."
	case errors.Is(err, storage.ErrInvalidSlot):
		return fmt.Sprintf("Save slots are 1 to %d.", storage.ManualSlotCount)
	case errors.Is(err, game.ErrItemNotFound):
		return "You don't have that item."
	case errors.Is(err, game.ErrNotEquippable):
		return "That item can't be equipped."
	case errors.Is(err, game.ErrNotUsable):
		return "That item can't be used."
	case errors.As(err, &img):
		return img.Message()
	default:
		return err.Error()
	}
}
