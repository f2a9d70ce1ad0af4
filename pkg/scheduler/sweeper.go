// Package scheduler runs the periodic SLA sweep over open tasks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/caseflow/caseflow/pkg/calendar"
	"github.com/caseflow/caseflow/pkg/eventbus"
	"github.com/caseflow/caseflow/pkg/events"
	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/otelhelper"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OpenTask is a task the execution engine reports as not yet completed.
type OpenTask struct {
	WorkflowCode string    `json:"workflow_code"`
	StageCode    string    `json:"stage_code"`
	CaseID       string    `json:"case_id"`
	Assignee     string    `json:"assignee,omitempty"`
	Region       string    `json:"region,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TaskSource lists open tasks. Backed by the execution engine's API in
// production, by a stub in tests.
type TaskSource interface {
	OpenTasks(ctx context.Context) ([]*OpenTask, error)
}

// DefinitionStore supplies the SLA configuration a task's stage carries.
type DefinitionStore interface {
	WorkflowByCode(ctx context.Context, code string) (*models.WorkflowMeta, error)
	StageByCode(ctx context.Context, workflowCode, stageCode string) (*models.StageDefinition, error)
}

// BusinessCalendar computes due dates in business days.
type BusinessCalendar interface {
	CalculateSLADueDate(ctx context.Context, start time.Time, businessDays int, region string) (time.Time, error)
}

var _ BusinessCalendar = (*calendar.Service)(nil)

// Sweeper periodically walks open tasks, computes each one's business-day
// due date and publishes an escalation event for every overdue task.
type Sweeper struct {
	tasks       TaskSource
	definitions DefinitionStore
	calendar    BusinessCalendar
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
	cron        *cron.Cron
	now         func() time.Time
}

type Option func(*Sweeper)

// WithClock fixes the sweeper's notion of now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// WithTracer records each sweep pass as a span.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Sweeper) {
		s.tracer = tracer
	}
}

func NewSweeper(tasks TaskSource, definitions DefinitionStore, businessCalendar BusinessCalendar, publisher eventbus.EventPublisher, logger *slog.Logger, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		tasks:       tasks,
		definitions: definitions,
		calendar:    businessCalendar,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	return sweeper
}

// Start schedules the sweep with the given cron expression and begins
// running it. Stop must be called on shutdown.
func (s *Sweeper) Start(ctx context.Context, cronExpr string) error {
	_, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", cronExpr, err)
	}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err = s.cron.AddFunc(cronExpr, func() {
		sweepErr := s.Sweep(ctx)
		if sweepErr != nil {
			s.logger.Error("SLA sweep failed", "error", sweepErr)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("SLA sweeper started", "schedule", cronExpr)

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}

	<-s.cron.Stop().Done()
	s.logger.Info("SLA sweeper stopped")
}

// Sweep runs one pass. A failure on a single task is logged and does not
// stop the pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if s.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, s.tracer, "scheduler.sweeper sweep")
		defer span.End()
	}

	tasks, err := s.tasks.OpenTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open tasks: %w", err)
	}

	now := s.now()
	escalated := 0

	for _, task := range tasks {
		overdue, dueAt, err := s.evaluate(ctx, task, now)
		if err != nil {
			s.logger.Warn("Skipping task in SLA sweep",
				"workflow_code", task.WorkflowCode,
				"stage_code", task.StageCode,
				"case_id", task.CaseID,
				"error", err)

			continue
		}

		if !overdue {
			continue
		}

		s.escalate(ctx, task, dueAt, now)
		escalated++
	}

	s.logger.Info("SLA sweep finished", "tasks", len(tasks), "escalated", escalated)

	return nil
}

// evaluate computes the task's due date from its stage SLA. Tasks whose
// stage carries no SLA, directly or via the workflow default, never
// escalate.
func (s *Sweeper) evaluate(ctx context.Context, task *OpenTask, now time.Time) (bool, time.Time, error) {
	stage, err := s.definitions.StageByCode(ctx, task.WorkflowCode, task.StageCode)
	if err != nil {
		return false, time.Time{}, err
	}

	if stage == nil {
		return false, time.Time{}, fmt.Errorf("stage %q not found in workflow %q", task.StageCode, task.WorkflowCode)
	}

	days := stage.SLADays
	if days == 0 {
		meta, err := s.definitions.WorkflowByCode(ctx, task.WorkflowCode)
		if err != nil {
			return false, time.Time{}, err
		}

		if meta == nil {
			return false, time.Time{}, fmt.Errorf("workflow %q not found", task.WorkflowCode)
		}

		days = meta.DefaultSLADays
	}

	if days == 0 {
		return false, time.Time{}, nil
	}

	dueAt, err := s.calendar.CalculateSLADueDate(ctx, task.CreatedAt, int(math.Ceil(days)), task.Region)
	if err != nil {
		return false, time.Time{}, err
	}

	return now.After(dueAt), dueAt, nil
}

func (s *Sweeper) escalate(ctx context.Context, task *OpenTask, dueAt, now time.Time) {
	var span trace.Span

	if s.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, s.tracer, "scheduler.sweeper escalate",
			attribute.String(otelhelper.WorkflowCodeKey, task.WorkflowCode),
			attribute.String(otelhelper.StageCodeKey, task.StageCode),
			attribute.String(otelhelper.CaseIDKey, task.CaseID),
		)
		defer span.End()
	}

	event := events.SLAEscalated{
		BaseEvent: events.NewBaseEvent(events.SLAEscalatedEvent, task.WorkflowCode),
		StageCode: task.StageCode,
		CaseID:    task.CaseID,
		Assignee:  task.Assignee,
		DueAt:     dueAt,
		OverdueBy: now.Sub(dueAt).Milliseconds(),
	}

	err := s.publisher.Publish(ctx, task.CaseID, event)
	if err != nil {
		if span != nil {
			otelhelper.SetError(span, err)
		}

		s.logger.Warn("Failed to publish SLA escalation",
			"case_id", task.CaseID,
			"stage_code", task.StageCode,
			"error", err)
	}
}
