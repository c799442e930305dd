// Package pipeline orchestrates the daily lead run: resolve an origin, page
// through the places directory, enrich and classify candidates under a
// worker pool, gate by history and quota, and merge the survivors into the
// caller's authoritative lead list.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/momentum-leads/rvprospector/internal/classify"
	"github.com/momentum-leads/rvprospector/internal/model"
	"github.com/momentum-leads/rvprospector/internal/store"
	"github.com/momentum-leads/rvprospector/pkg/iplocate"
	"github.com/momentum-leads/rvprospector/pkg/places"
)

// Config tunes the planner, pool, and quota gate.
type Config struct {
	Queries         []string
	RadiiKm         []int
	DefaultRadiusKm int
	MaxChecked      int
	PadMin          int
	PageDelay       time.Duration
	DefaultLocation string
	Workers         int
	DailyLimit      int
}

func (c Config) withDefaults() Config {
	if len(c.Queries) == 0 {
		c.Queries = []string{"RV park", "RV campground", "RV resort", "campground park"}
	}
	if c.DefaultRadiusKm <= 0 {
		c.DefaultRadiusKm = 50
	}
	if c.MaxChecked <= 0 {
		c.MaxChecked = 120
	}
	if c.PadMin <= 0 {
		c.PadMin = 40
	}
	if c.PageDelay <= 0 {
		c.PageDelay = 2 * time.Second
	}
	if c.DefaultLocation == "" {
		c.DefaultLocation = "Charlotte, NC"
	}
	if c.Workers <= 0 {
		c.Workers = 20
	}
	if c.DailyLimit <= 0 {
		c.DailyLimit = 10
	}
	return c
}

// Progress receives ordered free-text status lines during a run. It is
// informational only; callers wire it to a terminal or an event stream.
type Progress func(msg string)

// RunRequest describes one lead-generation run for a caller.
type RunRequest struct {
	Email              string
	FullName           string
	Location           string
	NearMe             bool
	Requested          int
	AvoidConglomerates bool
	Progress           Progress
}

// RunResult is the outcome of a run. Rows holds only the leads delivered by
// this run; Merged is the caller's full authoritative list after merging.
// Warnings collects non-fatal degradations (geolocation fallback, abandoned
// phrases) for the caller to surface.
type RunResult struct {
	RunID       string
	Rows        []model.DailyRow
	Merged      []model.DailyRow
	Checked     int
	QuotaStatus model.QuotaStatus
	Warnings    []string
}

// Pipeline wires the stages together over their interfaces.
type Pipeline struct {
	store      store.Store
	places     places.Client
	locator    iplocate.Client
	classifier *classify.Classifier
	cfg        Config
}

// New creates a Pipeline. Zero config fields fall back to the stock limits.
func New(st store.Store, pc places.Client, loc iplocate.Client, cl *classify.Classifier, cfg Config) *Pipeline {
	return &Pipeline{
		store:      st,
		places:     pc,
		locator:    loc,
		classifier: cl,
		cfg:        cfg.withDefaults(),
	}
}

// Run executes one full lead-generation run.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	req.Email = store.NormalizeEmail(req.Email)
	if req.Email == "" {
		return nil, eris.New("pipeline: caller email required")
	}
	if req.Requested <= 0 {
		req.Requested = p.cfg.DailyLimit
	}
	emit := req.Progress
	if emit == nil {
		emit = func(string) {}
	}
	log := zap.L().With(zap.String("email", req.Email))

	if _, err := p.store.UpsertProfile(ctx, req.Email, req.FullName); err != nil {
		return nil, err
	}

	unlimited, err := p.store.IsUnlimited(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	used, err := p.store.LeadsUsedToday(ctx, req.Email, time.Now())
	if err != nil {
		return nil, err
	}

	allowed, quotaStatus := allowedLeads(req.Requested, p.cfg.DailyLimit, used, unlimited)

	var warnings []string
	origin, originWarn := p.resolveOrigin(ctx, req.Location, req.NearMe)
	if originWarn != "" {
		warnings = append(warnings, originWarn)
		emit("  [warn] " + originWarn)
	}

	run, err := p.store.CreateRun(ctx, req.Email, origin.Description(), req.Requested)
	if err != nil {
		return nil, err
	}

	if allowed == 0 {
		// A normal terminal state: the day's allowance is spent.
		emit("[done] Daily lead limit reached; no search performed")
		if err := p.store.CompleteRun(ctx, run.ID, 0, 0, quotaStatus, model.RunStatusComplete); err != nil {
			return nil, err
		}
		return &RunResult{RunID: run.ID, QuotaStatus: quotaStatus, Warnings: warnings}, nil
	}

	emit(fmt.Sprintf("[info] Searching near %s for up to %d lead(s)", origin.Description(), allowed))

	known, err := p.store.KnownPlaceIDs(ctx, req.Email)
	if err != nil {
		p.failRun(run.ID)
		return nil, err
	}

	d := p.discover(ctx, origin, known, allowed, req.AvoidConglomerates, emit)
	warnings = append(warnings, d.warnings...)

	// In-flight workers may overshoot the target; clamp the delivered set.
	delivered := d.qualified
	if len(delivered) > allowed {
		delivered = delivered[:allowed]
	}

	if err := p.recordLedger(ctx, req.Email, d.sightings, delivered); err != nil {
		p.failRun(run.ID)
		return nil, err
	}

	today := time.Now().UTC().Format("2006-01-02")
	rows := make([]model.DailyRow, 0, len(delivered))
	for _, c := range delivered {
		rows = append(rows, model.NewDailyRow(c, today))
	}

	existing, err := p.store.ReadDailyRows(ctx, req.Email)
	if err != nil {
		p.failRun(run.ID)
		return nil, err
	}
	merged := MergeRows(existing, rows)
	if err := p.store.WriteDailyRows(ctx, req.Email, merged); err != nil {
		p.failRun(run.ID)
		return nil, err
	}

	if err := p.store.CompleteRun(ctx, run.ID, d.checked, len(rows), quotaStatus, model.RunStatusComplete); err != nil {
		return nil, err
	}

	emit(fmt.Sprintf("[done] %d new lead(s) after checking %d candidate(s)", len(rows), d.checked))
	log.Info("pipeline: run complete",
		zap.String("run_id", run.ID),
		zap.Int("checked", d.checked),
		zap.Int("found", len(rows)),
		zap.String("quota_status", string(quotaStatus)),
	)

	return &RunResult{
		RunID:       run.ID,
		Rows:        rows,
		Merged:      merged,
		Checked:     d.checked,
		QuotaStatus: quotaStatus,
		Warnings:    warnings,
	}, nil
}

// failRun best-effort marks a run failed; the original error is what the
// caller sees.
func (p *Pipeline) failRun(runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.CompleteRun(ctx, runID, 0, 0, "", model.RunStatusFailed); err != nil {
		zap.L().Warn("pipeline: failed to mark run failed",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	}
}
