package tui_test

import (
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gate/internal/adapters/tui"
)

func newPlannedModel(t *testing.T) *tui.Model {
	t.Helper()
	m := tui.NewModel(io.Discard)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 12})
	m.Update(tui.MsgInitTargets{
		Targets:      []string{"restore", "compile", "test"},
		Dependencies: map[string][]string{"compile": {"restore"}, "test": {"compile"}},
		Requested:    []string{"test"},
	})
	return &m
}

func TestNewModel(t *testing.T) {
	m := tui.NewModel(io.Discard)

	assert.Empty(t, m.Targets)
	assert.NotNil(t, m.TargetMap)
	assert.NotNil(t, m.SpanMap)
	assert.True(t, m.FollowMode)
	assert.Nil(t, m.Selected())
	assert.Nil(t, m.Init())
}

func TestModel_InitTargets(t *testing.T) {
	m := newPlannedModel(t)

	require.Len(t, m.Targets, 3)
	assert.Equal(t, "restore", m.Targets[0].Name)
	assert.Equal(t, tui.StatusPending, m.Targets[0].Status)
	assert.Equal(t, []string{"restore"}, m.TargetMap["compile"].After)
	assert.True(t, m.TargetMap["test"].Requested)
	assert.False(t, m.TargetMap["restore"].Requested)
	assert.Equal(t, "restore", m.Selected().Name)
}

func TestModel_Lifecycle(t *testing.T) {
	m := newPlannedModel(t)
	start := time.Now()

	m.Update(tui.MsgTargetStart{SpanID: "s1", Name: "restore", StartTime: start})
	assert.Equal(t, tui.StatusRunning, m.TargetMap["restore"].Status)

	m.Update(tui.MsgTargetLog{SpanID: "s1", Data: []byte("fetching\r\n")})
	assert.Equal(t, "fetching\n", m.TargetMap["restore"].Logs.String())

	m.Update(tui.MsgTargetComplete{SpanID: "s1", EndTime: start.Add(2 * time.Second)})
	assert.Equal(t, tui.StatusDone, m.TargetMap["restore"].Status)
	assert.Equal(t, 2*time.Second, m.TargetMap["restore"].Duration)

	m.Update(tui.MsgTargetStart{SpanID: "s2", Name: "compile", StartTime: start})
	assert.Equal(t, "compile", m.Selected().Name, "selection follows the started target")

	failure := errors.New("exit status 1")
	m.Update(tui.MsgTargetComplete{SpanID: "s2", EndTime: start, Err: failure})
	assert.Equal(t, tui.StatusError, m.TargetMap["compile"].Status)
	assert.Equal(t, failure, m.TargetMap["compile"].Err)
}

func TestModel_UnknownEventsAreIgnored(t *testing.T) {
	m := newPlannedModel(t)

	m.Update(tui.MsgTargetStart{SpanID: "s1", Name: "deploy"})
	m.Update(tui.MsgTargetLog{SpanID: "missing", Data: []byte("x")})
	m.Update(tui.MsgTargetComplete{SpanID: "missing"})

	assert.Empty(t, m.SpanMap)
	for _, node := range m.Targets {
		assert.Equal(t, tui.StatusPending, node.Status)
	}
}

func TestModel_Navigation(t *testing.T) {
	m := newPlannedModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.SelectedIdx)
	assert.False(t, m.FollowMode)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, m.SelectedIdx, "selection stops at the last target")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, m.SelectedIdx)

	// Starting a target does not steal the selection while browsing.
	m.Update(tui.MsgTargetStart{SpanID: "s1", Name: "restore"})
	assert.Equal(t, 1, m.SelectedIdx)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.FollowMode)
	assert.Equal(t, "restore", m.Selected().Name)
}

func TestModel_ListScrollsToSelection(t *testing.T) {
	m := tui.NewModel(io.Discard)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 4})

	targets := []string{"a", "b", "c", "d", "e"}
	m.Update(tui.MsgInitTargets{Targets: targets})
	require.Equal(t, 2, m.ListHeight)

	for range targets {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 4, m.SelectedIdx)
	assert.Equal(t, 3, m.ListOffset)

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 2, m.ListOffset)
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		m := tui.NewModel(io.Discard)
		_, cmd := m.Update(key)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}
