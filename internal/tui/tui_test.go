package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tatianab/survival-run/internal/engine"
	"github.com/tatianab/survival-run/internal/models"
	"github.com/tatianab/survival-run/internal/storage"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  command
		ok    bool
	}{
		{"/quit", command{name: "quit", args: []string{}, rest: ""}, true},
		{"  /SAVE 2 before the bridge ", command{name: "save", args: []string{"2", "before", "the", "bridge"}, rest: "2 before the bridge"}, true},
		{"/use 빵 한 조각", command{name: "use", args: []string{"빵", "한", "조각"}, rest: "빵 한 조각"}, true},
		{"open the door", command{}, false},
		{"/", command{}, false},
		{"", command{}, false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestHighlight(t *testing.T) {
	out := highlight("You pick up the rope near the river.", map[string][]string{
		"item":     {"rope"},
		"location": {"river", " "},
	})
	assert.Contains(t, out, "rope")
	assert.Contains(t, out, "river")
	assert.Equal(t, "plain", highlight("plain", nil))
}

func TestFormatSlots(t *testing.T) {
	out := formatSlots([]storage.SlotInfo{
		{Slot: "1", Name: "bridge", SavedAt: "2026-05-01T12:00:00Z"},
		{Slot: "2", Empty: true},
	})
	assert.Equal(t, "[1] bridge (2026-05-01T12:00:00Z)  [2] empty", out)
}

func TestStaleRevealTickIgnored(t *testing.T) {
	eng := engine.NewEngine(nil, nil, nil, zap.NewNop(), nil, engine.Options{})
	m := NewModel(eng, Options{})
	m.st = models.RunState{NarrativeText: "A long corridor stretches ahead.", Version: 4}

	next, cmd := m.Update(revealTickMsg{version: 3})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, next.(model).revealed)

	next, cmd = m.Update(revealTickMsg{version: 4})
	require.NotNil(t, cmd)
	assert.Equal(t, revealStep, next.(model).revealed)
}

func TestNotConfiguredStatus(t *testing.T) {
	eng := engine.NewEngine(nil, nil, nil, zap.NewNop(), nil, engine.Options{})
	m := NewModel(eng, Options{})
	assert.Equal(t, engine.NotConfiguredMessage, m.status)
	assert.True(t, strings.Contains(m.View(), "Welcome"))
}
