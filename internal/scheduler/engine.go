// Package scheduler places weekly course sessions on a day × slot grid using a
// first-fit greedy heuristic over section, room and instructor ledgers.
//
// The engine is deterministic and single threaded per run. A run owns its
// Ledger; independent runs may proceed in parallel on separate ledgers.
package scheduler

import (
	"errors"

	"go.uber.org/zap"
)

// ErrLedgerNotCleared signals a run started on a ledger that still holds
// claims from an earlier run.
var ErrLedgerNotCleared = errors.New("scheduler: ledger holds claims from a previous run")

// Engine exposes the section and year-level scheduling runs.
type Engine struct {
	grid   Grid
	logger *zap.Logger
}

// NewEngine builds an engine over grid.
func NewEngine(grid Grid, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if grid.SlotCount() == 0 {
		grid = DefaultGrid()
	}
	return &Engine{grid: grid, logger: logger}
}

// Grid returns the engine's grid.
func (e *Engine) Grid() Grid {
	return e.grid
}

// ScheduleSection places every meeting of courses under the exclusive policy.
func (e *Engine) ScheduleSection(ledger *Ledger, courses []Course) (Result, error) {
	if err := ensureCleared(ledger); err != nil {
		return Result{}, err
	}
	owned := append([]Course(nil), courses...)
	result := NewAllocator(e.grid, ledger, ExclusivePolicy, e.logger).Place(Expand(owned))
	e.logger.Debug("section run finished",
		zap.Int("placed", result.Placed),
		zap.Int("total", result.Total),
	)
	return result, nil
}

// ScheduleYearLevel builds the combined view for sections of yearLevel:
// shared courses first, then each section's exclusive courses.
func (e *Engine) ScheduleYearLevel(ledger *Ledger, yearLevel int, courses []Course, sections []string) (YearResult, error) {
	if err := ensureCleared(ledger); err != nil {
		return YearResult{}, err
	}
	owned := append([]Course(nil), courses...)
	result := e.reconcile(ledger, yearLevel, owned, uniqueSections(sections))
	e.logger.Debug("year level run finished",
		zap.Int("year_level", yearLevel),
		zap.Strings("shared_codes", result.SharedCodes),
		zap.Int("placed", result.Placed()),
		zap.Int("total", result.Total()),
	)
	return result, nil
}

func ensureCleared(ledger *Ledger) error {
	if ledger == nil || !ledger.Empty() {
		return ErrLedgerNotCleared
	}
	return nil
}

func uniqueSections(sections []string) []string {
	seen := make(map[string]bool, len(sections))
	out := make([]string, 0, len(sections))
	for _, section := range sections {
		if section == "" || seen[section] {
			continue
		}
		seen[section] = true
		out = append(out, section)
	}
	return out
}
