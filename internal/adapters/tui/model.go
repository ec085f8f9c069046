package tui

import (
	"bytes"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	targetListWidthRatio = 0.3
	logPaneBorderWidth   = 4
	headerHeight         = 2
)

// TargetStatus represents the display state of a target.
type TargetStatus string

const (
	// StatusPending indicates the target has not started.
	StatusPending TargetStatus = "Pending"
	// StatusRunning indicates the target is executing.
	StatusRunning TargetStatus = "Running"
	// StatusDone indicates the target succeeded.
	StatusDone TargetStatus = "Done"
	// StatusError indicates the target failed.
	StatusError TargetStatus = "Error"
)

// TargetNode is a single row of the target list.
type TargetNode struct {
	Name      string
	Status    TargetStatus
	After     []string
	Requested bool
	Logs      bytes.Buffer
	StartTime time.Time
	Duration  time.Duration
	Err       error
}

// Model is the TUI state.
type Model struct {
	Targets     []*TargetNode
	TargetMap   map[string]*TargetNode
	SpanMap     map[string]*TargetNode
	Viewport    viewport.Model
	SelectedIdx int
	ListOffset  int
	ListHeight  int
	// FollowMode moves the selection to the most recently started target.
	FollowMode bool
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update applies a message to the model.
//
//nolint:cyclop // one case per message type
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		listWidth := int(float64(msg.Width) * targetListWidthRatio)
		m.Viewport.Width = max(msg.Width-listWidth-logPaneBorderWidth, 0)
		m.Viewport.Height = max(msg.Height-headerHeight, 0)
		m.ListHeight = max(msg.Height-headerHeight, 0)
		m.ensureVisible()
		m.refreshLogs()

	case MsgInitTargets:
		m.initTargets(msg)

	case MsgTargetStart:
		node, ok := m.TargetMap[msg.Name]
		if !ok {
			return m, nil
		}
		node.Status = StatusRunning
		node.StartTime = msg.StartTime
		m.SpanMap[msg.SpanID] = node
		if m.FollowMode {
			m.selectName(msg.Name)
		}

	case MsgTargetLog:
		node, ok := m.SpanMap[msg.SpanID]
		if !ok {
			return m, nil
		}
		node.Logs.Write(bytes.ReplaceAll(msg.Data, []byte("\r\n"), []byte("\n")))
		if node == m.Selected() {
			m.refreshLogs()
		}

	case MsgTargetComplete:
		node, ok := m.SpanMap[msg.SpanID]
		if !ok {
			return m, nil
		}
		node.Duration = msg.EndTime.Sub(node.StartTime)
		node.Err = msg.Err
		if msg.Err != nil {
			node.Status = StatusError
		} else {
			node.Status = StatusDone
		}
	}

	return m, nil
}

// Selected returns the target whose logs are shown, or nil before the plan arrives.
func (m *Model) Selected() *TargetNode {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.Targets) {
		return nil
	}
	return m.Targets[m.SelectedIdx]
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "up", "k":
		m.FollowMode = false
		m.selectIndex(m.SelectedIdx - 1)
	case "down", "j":
		m.FollowMode = false
		m.selectIndex(m.SelectedIdx + 1)
	case "esc":
		m.FollowMode = true
		m.followRunning()
	case "pgup":
		m.FollowMode = false
		m.Viewport.PageUp()
	case "pgdown":
		m.Viewport.PageDown()
	}
	return nil
}

func (m *Model) initTargets(msg MsgInitTargets) {
	requested := make(map[string]bool, len(msg.Requested))
	for _, name := range msg.Requested {
		requested[name] = true
	}

	m.Targets = make([]*TargetNode, 0, len(msg.Targets))
	m.TargetMap = make(map[string]*TargetNode, len(msg.Targets))
	m.SpanMap = make(map[string]*TargetNode)
	for _, name := range msg.Targets {
		node := &TargetNode{
			Name:      name,
			Status:    StatusPending,
			After:     msg.Dependencies[name],
			Requested: requested[name],
		}
		m.Targets = append(m.Targets, node)
		m.TargetMap[name] = node
	}
	m.SelectedIdx = 0
	m.ListOffset = 0
	m.refreshLogs()
}

// followRunning selects the last target that is still running.
func (m *Model) followRunning() {
	for i := len(m.Targets) - 1; i >= 0; i-- {
		if m.Targets[i].Status == StatusRunning {
			m.selectIndex(i)
			return
		}
	}
}

func (m *Model) selectName(name string) {
	for i, node := range m.Targets {
		if node.Name == name {
			m.selectIndex(i)
			return
		}
	}
}

func (m *Model) selectIndex(i int) {
	if len(m.Targets) == 0 {
		return
	}
	m.SelectedIdx = min(max(i, 0), len(m.Targets)-1)
	m.ensureVisible()
	m.refreshLogs()
}

// ensureVisible scrolls the target list so the selection is on screen.
func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	}
	if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) refreshLogs() {
	node := m.Selected()
	if node == nil {
		m.Viewport.SetContent("")
		return
	}
	m.Viewport.SetContent(node.Logs.String())
	if m.FollowMode {
		m.Viewport.GotoBottom()
	}
}
