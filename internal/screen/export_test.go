package screen

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"facestage/internal/assets"
)

func LoadMsg(res assets.Result) tea.Msg { return loadMsg(res) }

func TickMsg(at time.Time) tea.Msg { return tickMsg(at) }
