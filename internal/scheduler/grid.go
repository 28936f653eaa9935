package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSlotOutOfRange is returned when a slot index or run leaves the day grid.
var ErrSlotOutOfRange = errors.New("slot out of range")

const (
	defaultDayStart    = 8 * 60
	defaultSlotMinutes = 30
	defaultSlotCount   = 19
)

var defaultDays = []int{1, 2, 3, 4, 5}

// GridConfig describes the discrete time axis of a scheduling week.
type GridConfig struct {
	// DayStart is the first slot start in "HH:MM".
	DayStart    string
	SlotMinutes int
	SlotCount   int
	Days        []int
}

// Grid is the read-only week grid: working days × equally sized slots. The
// last label of a day is the closing boundary; no session starts there.
type Grid struct {
	days        []int
	labels      []string
	slotMinutes int
}

// DefaultGrid returns the Monday..Friday grid of 19 labels, 08:00 through the
// 17:00 close, in 30 minute steps.
func DefaultGrid() Grid {
	grid, _ := NewGrid(GridConfig{})
	return grid
}

// NewGrid validates cfg and builds a grid. Zero fields fall back to defaults.
func NewGrid(cfg GridConfig) (Grid, error) {
	start := defaultDayStart
	if cfg.DayStart != "" {
		parsed, err := parseClock(cfg.DayStart)
		if err != nil {
			return Grid{}, err
		}
		start = parsed
	}
	step := cfg.SlotMinutes
	if step == 0 {
		step = defaultSlotMinutes
	}
	count := cfg.SlotCount
	if count == 0 {
		count = defaultSlotCount
	}
	if step < 0 || count < 2 {
		return Grid{}, fmt.Errorf("invalid grid: slot minutes %d, slot count %d", step, count)
	}
	if start+step*(count-1) >= 24*60 {
		return Grid{}, fmt.Errorf("invalid grid: %d slots of %d minutes from %s overflow the day", count, step, formatClock(start))
	}

	days := cfg.Days
	if len(days) == 0 {
		days = defaultDays
	}
	seen := make(map[int]bool, len(days))
	for _, day := range days {
		if day < 1 || day > 7 {
			return Grid{}, fmt.Errorf("invalid grid day %d", day)
		}
		if seen[day] {
			return Grid{}, fmt.Errorf("duplicate grid day %d", day)
		}
		seen[day] = true
	}

	labels := make([]string, count)
	for i := range labels {
		labels[i] = formatClock(start + i*step)
	}
	return Grid{
		days:        append([]int(nil), days...),
		labels:      labels,
		slotMinutes: step,
	}, nil
}

// Days returns the working days in natural order.
func (g Grid) Days() []int {
	return append([]int(nil), g.days...)
}

// SlotCount returns the number of slot labels per day, closing boundary included.
func (g Grid) SlotCount() int {
	return len(g.labels)
}

// BookableSlots returns how many slots per day a session may occupy.
func (g Grid) BookableSlots() int {
	if len(g.labels) == 0 {
		return 0
	}
	return len(g.labels) - 1
}

// SlotMinutes returns the slot length.
func (g Grid) SlotMinutes() int {
	return g.slotMinutes
}

// Label returns the start time of slot i.
func (g Grid) Label(i int) (string, error) {
	if i < 0 || i >= len(g.labels) {
		return "", fmt.Errorf("slot %d: %w", i, ErrSlotOutOfRange)
	}
	return g.labels[i], nil
}

// EndLabel returns the time at which a run of n slots starting at i ends.
func (g Grid) EndLabel(i, n int) (string, error) {
	if _, err := g.Run(i, n); err != nil {
		return "", err
	}
	return g.labels[i+n], nil
}

// Run returns the slot indices covered by n slots starting at i. A run may end
// on the closing boundary but never cover it.
func (g Grid) Run(i, n int) ([]int, error) {
	if i < 0 || n <= 0 || i+n > g.BookableSlots() {
		return nil, fmt.Errorf("run %d+%d over %d bookable slots: %w", i, n, g.BookableSlots(), ErrSlotOutOfRange)
	}
	run := make([]int, n)
	for k := range run {
		run[k] = i + k
	}
	return run, nil
}

// SlotsFor converts a duration into the number of slots it occupies.
func (g Grid) SlotsFor(durationMinutes int) int {
	if g.slotMinutes <= 0 {
		return 0
	}
	return durationMinutes / g.slotMinutes
}

func parseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
