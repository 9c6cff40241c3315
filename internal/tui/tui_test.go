package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/handiism/trackflyer/internal/config"
	"github.com/handiism/trackflyer/internal/download"
	"github.com/handiism/trackflyer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	factory := func(*config.Settings, download.Sink) (*download.Service, error) {
		return nil, errors.New("not used")
	}
	return NewModel(config.DefaultSettings(), factory, &programSink{}, nil)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestActiveJobs(t *testing.T) {
	jobs := activeJobs(map[string]model.Stage{
		"a": model.Queued(),
		"b": model.Downloading(0.2),
		"c": model.Converting(),
		"d": model.Downloading(0.7),
		"e": model.Downloaded(),
		"f": model.Failed(errors.New("boom")),
	})

	keys := make([]string, len(jobs))
	for i, j := range jobs {
		keys[i] = j.Key
	}
	assert.Equal(t, []string{"c", "d", "b"}, keys)
}

func TestCompletion(t *testing.T) {
	assert.Zero(t, completion(model.BatchCounts{}))
	assert.InDelta(t, 0.5, completion(model.BatchCounts{Total: 4, Converted: 1, Failed: 1}), 1e-9)
	assert.InDelta(t, 1.0, completion(model.BatchCounts{Total: 2, Converted: 2}), 1e-9)
}

func TestRenderSummary(t *testing.T) {
	assert.Empty(t, renderSummary(""))

	out := renderSummary("Total: 2  Completed: 0  Failed: 0\nDownloading Intro\n\n\n\n")
	assert.Contains(t, out, "Total: 2  Completed: 0  Failed: 0")
	assert.Contains(t, out, "› Downloading Intro")
	assert.NotContains(t, out, "› \n")
}

func TestModel_InputOptions(t *testing.T) {
	m := newTestModel(t)
	require.Equal(t, StateInput, m.state)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.True(t, m.discography)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, !config.DefaultSettings().CreatePlaylist, m.playlist)

	// empty input does not start loading
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateInput, m.state)
}

func TestModel_LoadFailureShowsError(t *testing.T) {
	m := newTestModel(t)
	m.state = StateLoading

	m = update(t, m, LoadedMsg{Err: errors.New("no album found")})
	assert.Equal(t, StateError, m.state)
	assert.Contains(t, m.View(), "no album found")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, StateInput, m.state)
	assert.NoError(t, m.err)
}

func TestModel_SummaryAndCompletion(t *testing.T) {
	m := newTestModel(t)
	m.state = StateDownloading

	m = update(t, m, SummaryMsg{Text: "Total: 1  Completed: 0  Failed: 0\nProcessing Intro\n\n\n\n"})
	assert.Contains(t, m.View(), "› Processing Intro")

	m.counts = model.BatchCounts{Total: 1, Downloaded: 1, Converted: 1}
	m.single = true
	m = update(t, m, DoneMsg{})
	assert.Equal(t, StateComplete, m.state)
	assert.Contains(t, m.View(), "Track downloaded")
	assert.Contains(t, m.View(), "Total: 1  Completed: 1  Failed: 0")
}

func TestModel_CancelEndsInError(t *testing.T) {
	m := newTestModel(t)
	m.state = StateLoading

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateCancelling, m.state)

	m = update(t, m, DoneMsg{})
	assert.Equal(t, StateError, m.state)
	assert.ErrorIs(t, m.err, errCancelled)
}
