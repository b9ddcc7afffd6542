package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"facestage/internal/fsm"
)

const statsWindow = 60

// Stats accumulates per-tick timings for the DEV overlay.
type Stats struct {
	samples []time.Duration
	next    int
	ticks   uint64
}

// NewStats returns an empty stats window.
func NewStats() *Stats {
	return &Stats{samples: make([]time.Duration, 0, statsWindow)}
}

// Record adds the duration of one tick.
func (s *Stats) Record(d time.Duration) {
	s.ticks++
	if len(s.samples) < statsWindow {
		s.samples = append(s.samples, d)
		return
	}
	s.samples[s.next] = d
	s.next = (s.next + 1) % statsWindow
}

// Ticks is the number of recorded ticks.
func (s *Stats) Ticks() uint64 { return s.ticks }

// Mean and Max summarize the recent window.
func (s *Stats) Mean() time.Duration {
	if len(s.samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s.samples {
		sum += d
	}
	return sum / time.Duration(len(s.samples))
}

func (s *Stats) Max() time.Duration {
	var peak time.Duration
	for _, d := range s.samples {
		peak = max(peak, d)
	}
	return peak
}

// OverlayLines renders the DEV overlay: frame counter, state and tick timings.
func OverlayLines(frame int, state fsm.State, mode string, stats *Stats) []string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = false
	tw.AppendRow(table.Row{"frame", strconv.Itoa(frame)})
	tw.AppendRow(table.Row{"state", state.Label()})
	tw.AppendRow(table.Row{"clock", mode})
	if stats != nil {
		tw.AppendRow(table.Row{"tick avg", stats.Mean().Round(time.Microsecond).String()})
		tw.AppendRow(table.Row{"tick max", stats.Max().Round(time.Microsecond).String()})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return strings.Split(tw.Render(), "\n")
}
