package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// question is one prompt of the init TUI. An empty answer takes Default;
// Check, when set, rejects an answer and keeps the prompt open.
type question struct {
	Key     string
	Prompt  string
	Default string
	Check   func(string) error
}

// promptModel asks the questions in order through one text input, recording
// each answer, default applied, as it is accepted.
type promptModel struct {
	questions []question
	input     textinput.Model
	answered  map[string]string
	err       error
	done      bool
}

func newPromptModel(questions []question) promptModel {
	ti := textinput.New()
	ti.CharLimit = 512
	m := promptModel{questions: questions, input: ti, answered: map[string]string{}}
	m.ask()
	return m
}

// current is the open question, or nil once every question is answered.
func (m *promptModel) current() *question {
	if len(m.answered) >= len(m.questions) {
		return nil
	}
	return &m.questions[len(m.answered)]
}

// ask resets the input for the open question.
func (m *promptModel) ask() {
	q := m.current()
	if q == nil {
		m.input.Blur()
		return
	}
	m.input.Reset()
	m.input.Placeholder = q.Default
	m.input.Focus()
}

// accept records the input for the open question. It reports false when the
// answer is rejected.
func (m *promptModel) accept() bool {
	q := m.current()
	v := strings.TrimSpace(m.input.Value())
	if v == "" {
		v = q.Default
	}
	if q.Check != nil {
		if err := q.Check(v); err != nil {
			m.err = err
			return false
		}
	}
	m.err = nil
	m.answered[q.Key] = v
	m.ask()
	return true
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.current() == nil {
		m.done = true
		return m, tea.Quit
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.accept() {
				return m, nil
			}
			if m.current() == nil {
				m.done = true
				return m, tea.Quit
			}
			return m, textinput.Blink
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	q := m.current()
	if m.done || q == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "(%d/%d) %s: %s\n", len(m.answered)+1, len(m.questions), q.Prompt, m.input.View())
	if m.err != nil {
		fmt.Fprintf(&b, "  %v\n", m.err)
	}
	return b.String()
}

// answers returns the accepted answers keyed by question key. Questions not
// reached yet take their defaults.
func (m promptModel) answers() map[string]string {
	out := make(map[string]string, len(m.questions))
	for _, q := range m.questions {
		v, ok := m.answered[q.Key]
		if !ok {
			v = q.Default
		}
		out[q.Key] = v
	}
	return out
}

// defaults answers every question with its default.
func defaults(questions []question) map[string]string {
	return newPromptModel(questions).answers()
}

// promptQuestions runs the TUI and returns answers keyed by question key.
func promptQuestions(questions []question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	result, err := tea.NewProgram(newPromptModel(questions)).Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	return final.answers(), nil
}
