package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adplan/backend/internal/domain/campaign"
	"github.com/adplan/backend/internal/domain/contract"
	"github.com/adplan/backend/internal/domain/media"
	"github.com/adplan/backend/internal/domain/reconcile"
	"github.com/adplan/backend/internal/domain/shared"
	"github.com/adplan/backend/internal/infrastructure/logger"
	"github.com/adplan/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// releaseTimeout bounds the lock release after the run context is done
const releaseTimeout = 10 * time.Second

// Metrics receives the job's measurements. *telemetry.ReconcileMetrics implements it.
type Metrics interface {
	RecordItem(ctx context.Context, step, outcome string)
	RecordRun(ctx context.Context, d time.Duration, dryRun bool)
	RecordLockContention(ctx context.Context, lockName string)
}

type nopMetrics struct{}

func (nopMetrics) RecordItem(context.Context, string, string)     {}
func (nopMetrics) RecordRun(context.Context, time.Duration, bool) {}
func (nopMetrics) RecordLockContention(context.Context, string)   {}

// Options configures a backfill run
type Options struct {
	Steps  []reconcile.Step // empty runs every step
	DryRun bool
	Now    func() time.Time
}

// BackfillDriver walks the whole data graph under the run lock, links or
// synthesizes contracts, backfills missing foreign keys and tallies every item.
// Per-item failures are logged and counted; they never abort the run.
type BackfillDriver struct {
	repos      Repositories
	lock       shared.RunLock
	classifier *media.Classifier
	metrics    Metrics
	logger     *zap.Logger
	steps      []reconcile.Step
	dryRun     bool
	now        func() time.Time
}

// NewBackfillDriver creates a driver. metrics and log may be nil.
func NewBackfillDriver(repos Repositories, lock shared.RunLock, classifier *media.Classifier, metrics Metrics, log *zap.Logger, opts Options) *BackfillDriver {
	if classifier == nil {
		classifier = media.NewClassifier()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &BackfillDriver{
		repos:      repos,
		lock:       lock,
		classifier: classifier,
		metrics:    metrics,
		logger:     log,
		steps:      orderedSteps(opts.Steps),
		dryRun:     opts.DryRun,
		now:        now,
	}
}

// orderedSteps keeps the requested steps in execution order
func orderedSteps(requested []reconcile.Step) []reconcile.Step {
	if len(requested) == 0 {
		return reconcile.AllSteps()
	}
	want := make(map[reconcile.Step]bool, len(requested))
	for _, s := range requested {
		want[s] = true
	}
	var out []reconcile.Step
	for _, s := range reconcile.AllSteps() {
		if want[s] {
			out = append(out, s)
		}
	}
	return out
}

// Run executes one backfill. It returns shared.ErrJobLocked without touching
// the store when another run holds the lock. A cancelled context stops the
// run between items and returns the partial report with the context error.
func (d *BackfillDriver) Run(ctx context.Context) (_ *Report, err error) {
	report := &Report{
		RunID:     uuid.New(),
		StartedAt: d.now().UTC(),
		DryRun:    d.dryRun,
	}
	ctx, span := telemetry.StartSpan(ctx, "reconcile.backfill",
		telemetry.SpanAttrRunID, report.RunID.String(),
		telemetry.SpanAttrDryRun, d.dryRun,
		telemetry.SpanAttrLock, d.lock.Name(),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else if !report.HasFailures() {
			telemetry.SetOK(span)
		}
		span.End()
	}()
	ctx = logger.WithRunID(logger.WithContext(ctx, d.logger), report.RunID.String())
	log := logger.L(ctx)

	release, err := d.lock.Acquire(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrJobLocked) {
			d.metrics.RecordLockContention(ctx, d.lock.Name())
			log.Warn("Another run holds the lock", zap.String("lock", d.lock.Name()))
		}
		return nil, err
	}
	defer func() {
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := release(relCtx); err != nil {
			log.Error("Failed to release run lock", zap.String("lock", d.lock.Name()), zap.Error(err))
		}
	}()

	log.Info("Backfill started",
		zap.Bool("dry_run", d.dryRun),
		zap.Any("steps", d.steps),
		zap.String("lock", d.lock.Name()),
	)

	snap, err := LoadSnapshot(ctx, d.repos, false)
	if err != nil {
		return nil, err
	}
	rec := NewReconciler(d.repos.Contracts, d.dryRun, snap.ContractKeys(), d.now)

	for _, step := range d.steps {
		sr := newStepReport(step)
		report.Steps = append(report.Steps, sr)
		if err := d.runStep(ctx, step, snap, rec, sr); err != nil {
			report.FinishedAt = d.now().UTC()
			return report, err
		}
	}

	report.FinishedAt = d.now().UTC()
	d.metrics.RecordRun(ctx, report.FinishedAt.Sub(report.StartedAt), d.dryRun)

	if !d.dryRun {
		if err := d.repos.Runs.Save(ctx, report.Run()); err != nil {
			return report, fmt.Errorf("save run record: %w", err)
		}
	}

	totals := report.Totals()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCreated, totals[reconcile.OutcomeCreated],
		telemetry.SpanAttrLinked, totals[reconcile.OutcomeLinked],
		telemetry.SpanAttrFailed, totals[reconcile.OutcomeFailed],
	)
	log.Info("Backfill finished",
		zap.String("summary", report.Summary()),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (d *BackfillDriver) runStep(ctx context.Context, step reconcile.Step, snap *Snapshot, rec *Reconciler, sr *StepReport) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "reconcile.step", telemetry.SpanAttrStep, string(step))
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetAttributes(span,
				telemetry.SpanAttrCreated, sr.Counts[reconcile.OutcomeCreated],
				telemetry.SpanAttrLinked, sr.Counts[reconcile.OutcomeLinked],
				telemetry.SpanAttrFailed, sr.Counts[reconcile.OutcomeFailed],
			)
			if sr.Counts[reconcile.OutcomeFailed] == 0 {
				telemetry.SetOK(span)
			}
		}
		span.End()
	}()
	ctx = logger.WithStep(ctx, string(step))

	switch step {
	case reconcile.StepSupports:
		err = d.backfillSupports(ctx, snap, sr)
	case reconcile.StepThemes:
		err = d.backfillThemes(ctx, snap, rec, sr)
	case reconcile.StepAlternatives:
		err = d.backfillAlternatives(ctx, snap, rec, sr)
	case reconcile.StepShares:
		err = d.backfillShares(ctx, snap, sr)
	}
	if err != nil {
		return err
	}
	logger.L(ctx).Info("Step finished", zap.String("tally", sr.Counts.String()))
	return nil
}

// record tallies one item, logs it at the level its outcome warrants and counts it
func (d *BackfillDriver) record(ctx context.Context, sr *StepReport, item string, outcome reconcile.Outcome, detail string) {
	res := sr.record(item, outcome, detail)
	d.metrics.RecordItem(ctx, string(res.Step), string(outcome))

	log := logger.L(ctx)
	fields := []zap.Field{zap.String("item", item), zap.String("outcome", string(outcome))}
	if detail != "" {
		fields = append(fields, zap.String("detail", detail))
	}
	switch outcome {
	case reconcile.OutcomeFailed:
		log.Error("Item failed", fields...)
	case reconcile.OutcomeUnresolved:
		log.Warn("Item unresolved", fields...)
	case reconcile.OutcomeExisting:
		log.Debug("Item already linked", fields...)
	default:
		log.Info("Item reconciled", fields...)
	}
}

func (d *BackfillDriver) backfillSupports(ctx context.Context, snap *Snapshot, sr *StepReport) error {
	for i := range snap.Supports {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := &snap.Supports[i]
		item := fmt.Sprintf("support %d %q", s.ID, s.Label())

		if s.HasMedia() {
			d.record(ctx, sr, item, reconcile.OutcomeExisting, "")
			continue
		}

		res, err := d.classifier.Resolve(s.Name, snap.Media)
		if err != nil {
			d.record(ctx, sr, item, reconcile.OutcomeUnresolved, err.Error())
			continue
		}

		if !d.dryRun {
			if err := d.repos.Supports.AssignMedia(ctx, s.ID, res.Media.ID); err != nil {
				d.record(ctx, sr, item, reconcile.OutcomeFailed, err.Error())
				continue
			}
		}
		s.AssignMedia(res.Media.ID)
		d.record(ctx, sr, item, reconcile.OutcomeLinked,
			fmt.Sprintf("media %d %q (rule %s)", res.Media.ID, res.Media.Name, res.Rule))
	}
	return nil
}

func (d *BackfillDriver) backfillThemes(ctx context.Context, snap *Snapshot, rec *Reconciler, sr *StepReport) error {
	for _, link := range snap.ThemeLinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := fmt.Sprintf("theme %d of campaign %d", link.ThemeID, link.CampaignID)

		clientID, reason := snap.campaignClient(link.CampaignID)
		if reason != "" {
			d.record(ctx, sr, item, reconcile.OutcomeUnresolved, reason)
			continue
		}
		theme, ok := snap.themeByID[link.ThemeID]
		if !ok {
			d.record(ctx, sr, item, reconcile.OutcomeUnresolved, "theme not found")
			continue
		}
		mediaID, ok := theme.Media()
		if !ok {
			d.record(ctx, sr, item, reconcile.OutcomeUnresolved, "theme has no media")
			continue
		}
		if _, ok := snap.mediaByID[mediaID]; !ok {
			d.record(ctx, sr, item, reconcile.OutcomeUnresolved, fmt.Sprintf("media %d not found", mediaID))
			continue
		}

		key := contract.Key{ClientID: clientID, MediaID: mediaID}
		c, outcome, err := rec.EnsureContract(ctx, key)
		if err != nil {
			d.record(ctx, sr, item, reconcile.OutcomeFailed, fmt.Sprintf("contract %s: %v", key, err))
			continue
		}
		d.record(ctx, sr, item, outcome, contractDetail(key, c))
	}
	return nil
}

func (d *BackfillDriver) backfillAlternatives(ctx context.Context, snap *Snapshot, rec *Reconciler, sr *StepReport) error {
	for i := range snap.Alternatives {
		if err := ctx.Err(); err != nil {
			return err
		}
		a := &snap.Alternatives[i]
		item := fmt.Sprintf("alternative %d", a.ID)

		if a.HasContract() {
			d.record(ctx, sr, item, reconcile.OutcomeExisting, "")
			continue
		}

		plan, ok := snap.planByID[a.PlanID]
		if !ok {
			d.record(ctx, sr, item, reconcile.OutcomeUnresolved, fmt.Sprintf("plan %d not found", a.PlanID))
			continue
		}
		clientID, reason := snap.campaignClient(plan.CampaignID)
		if reason != "" {
			d.record(ctx, sr, item, reconcile.OutcomeUnresolved, reason)
			continue
		}
		mediaID, reason := d.supportMedia(snap, a.SupportID)
		if reason != "" {
			d.record(ctx, sr, item, reconcile.OutcomeUnresolved, reason)
			continue
		}

		key := contract.Key{ClientID: clientID, MediaID: mediaID}
		c, outcome, err := rec.EnsureContract(ctx, key)
		if err != nil {
			d.record(ctx, sr, item, reconcile.OutcomeFailed, fmt.Sprintf("contract %s: %v", key, err))
			continue
		}
		if outcome == reconcile.OutcomeCreated {
			d.record(ctx, sr, "contract "+key.String(), reconcile.OutcomeCreated, contractDetail(key, c))
		}

		if !d.dryRun {
			if err := d.repos.Alternatives.LinkContract(ctx, a.ID, c.ID); err != nil {
				d.record(ctx, sr, item, reconcile.OutcomeFailed, err.Error())
				continue
			}
		}
		a.LinkContract(c.ID)
		d.record(ctx, sr, item, reconcile.OutcomeLinked, contractDetail(key, c))
	}
	return nil
}

// supportMedia returns the support's explicit media, or the heuristic's
// choice when the support has none
func (d *BackfillDriver) supportMedia(snap *Snapshot, supportID int64) (int64, string) {
	s, ok := snap.supportByID[supportID]
	if !ok {
		return 0, fmt.Sprintf("support %d not found", supportID)
	}
	if s.HasMedia() {
		if _, ok := snap.mediaByID[*s.MediaID]; ok {
			return *s.MediaID, ""
		}
	}
	res, err := d.classifier.Resolve(s.Name, snap.Media)
	if err != nil {
		return 0, err.Error()
	}
	return res.Media.ID, ""
}

func (d *BackfillDriver) backfillShares(ctx context.Context, snap *Snapshot, sr *StepReport) error {
	groups, planIDs := snap.AlternativesByPlan()
	for _, planID := range planIDs {
		for _, computed := range campaign.ComputeShares(groups[planID]) {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := fmt.Sprintf("alternative %d of plan %d", computed.ID, planID)
			current := snap.altByID[computed.ID]

			if current.Share.Equal(computed.Share) {
				d.record(ctx, sr, item, reconcile.OutcomeExisting, "")
				continue
			}
			if !d.dryRun {
				if err := d.repos.Alternatives.UpdateShare(ctx, computed.ID, computed.Share); err != nil {
					d.record(ctx, sr, item, reconcile.OutcomeFailed, err.Error())
					continue
				}
			}
			detail := fmt.Sprintf("share %s -> %s", current.Share.StringFixed(4), computed.Share.StringFixed(4))
			current.Share = computed.Share
			d.record(ctx, sr, item, reconcile.OutcomeLinked, detail)
		}
	}
	return nil
}

func contractDetail(key contract.Key, c *contract.Contract) string {
	if c == nil || c.ID == 0 {
		return "new contract " + key.String()
	}
	return fmt.Sprintf("contract %d (%s)", c.ID, key)
}
