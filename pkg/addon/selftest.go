package addon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rendis/addonkit/internal/actions"
	"github.com/rendis/addonkit/internal/logging"
	"github.com/rendis/addonkit/pkg/schema"
)

// UnitStatus is the self-test outcome of one unit.
type UnitStatus string

const (
	StatusPassed  UnitStatus = "passed"
	StatusSkipped UnitStatus = "skipped"
	StatusFailed  UnitStatus = "failed"
)

const reasonRequiresInput = "requires structured input"

// UnitResult is the self-test outcome of one unit.
type UnitResult struct {
	Category string     `json:"category"`
	Name     string     `json:"name"`
	Status   UnitStatus `json:"status"`
	Reason   string     `json:"reason,omitempty"`
}

// CategoryReport lists the units found in one category.
type CategoryReport struct {
	Name  string       `json:"name"`
	Count int          `json:"count"`
	Units []UnitResult `json:"units"`
}

// Report is the result of a self-test run. Passed is false only when a
// category could not be discovered; unit failures are recorded but do not
// fail the run.
type Report struct {
	RunID      string           `json:"run_id"`
	Passed     bool             `json:"passed"`
	Total      int              `json:"total"`
	Categories []CategoryReport `json:"categories"`
	Err        error            `json:"-"`
}

// Results returns every unit result with the given status.
func (r *Report) Results(status UnitStatus) []UnitResult {
	var out []UnitResult
	for _, c := range r.Categories {
		for _, u := range c.Units {
			if u.Status == status {
				out = append(out, u)
			}
		}
	}
	return out
}

// SelfTest discovers every category and invokes each unit that runs without
// input. It stops at the first category that cannot be discovered.
func (a *Addon) SelfTest(ctx context.Context) *Report {
	rep := &Report{RunID: uuid.NewString(), Passed: true}
	ctx = logging.WithRunID(ctx, rep.RunID)
	log := logging.LogWith(ctx, a.logger)

	log.Info("running addon self-test")
	for _, cat := range Categories() {
		reg := a.registries[cat]
		names, err := reg.Names()
		if err != nil {
			log.Error("self-test failed", slog.String("category", cat), slog.String("error", err.Error()))
			rep.Passed = false
			rep.Err = schema.NewErrorf(schema.ErrCodeSelfTest, "category %s: %s", cat, err.Error()).WithCause(err)
			return rep
		}

		catCtx := logging.WithCategory(ctx, cat)
		cr := CategoryReport{Name: cat, Count: len(names), Units: make([]UnitResult, 0, len(names))}
		for _, name := range names {
			cr.Units = append(cr.Units, a.testUnit(catCtx, reg, cat, name))
		}
		rep.Categories = append(rep.Categories, cr)
		rep.Total += len(names)

		log.Info(fmt.Sprintf("%d %s loaded correctly", len(names), cat),
			slog.String("category", cat),
			slog.Int("count", len(names)),
			slog.String("available", strings.Join(names, ", ")))
	}

	log.Info("self-test completed",
		slog.Int("total", rep.Total),
		slog.Int("categories", len(rep.Categories)),
		slog.Int("skipped", len(rep.Results(StatusSkipped))),
		slog.Int("failed", len(rep.Results(StatusFailed))))
	return rep
}

// testUnit invokes one unit with empty params, converting a panic into a
// failed result.
func (a *Addon) testUnit(ctx context.Context, reg *actions.Registry, cat, name string) (res UnitResult) {
	res = UnitResult{Category: cat, Name: name, Status: StatusPassed}
	ctx = logging.WithUnit(ctx, name)
	log := logging.LogWith(ctx, a.logger)

	act, err := reg.Get(name)
	if err != nil {
		res.Status, res.Reason = StatusFailed, err.Error()
		log.Warn("unit failed", slog.String("error", err.Error()))
		return res
	}
	if act.RequiresInput() {
		res.Status, res.Reason = StatusSkipped, reasonRequiresInput
		log.Debug("unit skipped", slog.String("reason", reasonRequiresInput))
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Status, res.Reason = StatusFailed, fmt.Sprintf("panic: %v", r)
			log.Warn("unit failed", slog.String("error", res.Reason))
		}
	}()

	if _, err := act.Execute(logging.WithLogger(ctx, log), actions.ActionInput{Params: map[string]any{}}); err != nil {
		res.Status, res.Reason = StatusFailed, err.Error()
		log.Warn("unit failed", slog.String("error", err.Error()))
		return res
	}
	log.Debug("unit executed successfully")
	return res
}

// Test runs SelfTest and reports whether it passed.
func (a *Addon) Test(ctx context.Context) bool {
	return a.SelfTest(ctx).Passed
}
