// Package engine runs the submission pipeline: full-form validation,
// conflict check against the events snapshot, payload assembly, and the
// POST to the event repository. Work flows through a bounded worker pool so
// a slow repository cannot pile up unbounded goroutines.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mvallejoc/eventum/internal/backend"
	"github.com/mvallejoc/eventum/internal/config"
	"github.com/mvallejoc/eventum/internal/event"
	"github.com/mvallejoc/eventum/internal/form"
	"github.com/mvallejoc/eventum/internal/metrics"
	"github.com/mvallejoc/eventum/internal/session"
	"github.com/mvallejoc/eventum/internal/snapshot"
	"github.com/mvallejoc/eventum/internal/timegrid"
)

// Submitter posts an assembled proposal upstream. *backend.Client satisfies
// it; tests substitute stubs.
type Submitter interface {
	Submit(ctx context.Context, p *backend.Proposal) error
}

// Result is the outcome of one submission attempt.
type Result struct {
	SessionID      string        `json:"session_id"`
	Accepted       bool          `json:"accepted"`
	Errors         form.ErrorMap `json:"errors,omitempty"`
	ReturnToStep   form.Step     `json:"return_to_step,omitempty"`
	Conflicts      []event.Event `json:"conflicts,omitempty"`
	ConflictsKnown bool          `json:"conflicts_known"`
	Message        string        `json:"message,omitempty"`
	DurationMs     int64         `json:"duration_ms"`
}

type submitWork struct {
	sess    *session.Session
	resultC chan *Result
}

// Engine wires the pipeline together. Schedule settings are swapped
// atomically on config hot-reload.
type Engine struct {
	submitter Submitter
	snap      *snapshot.Store
	pool      *workerPool[*submitWork]

	sched   atomic.Pointer[config.ScheduleConf]
	timeout time.Duration
}

// New creates an Engine and starts its worker pool.
func New(ctx context.Context, submitter Submitter, snap *snapshot.Store, cfg *config.Config) *Engine {
	e := &Engine{
		submitter: submitter,
		snap:      snap,
		timeout:   time.Duration(cfg.Form.SubmitTimeoutMs) * time.Millisecond,
	}
	sched := cfg.Schedule
	e.sched.Store(&sched)

	e.pool = newWorkerPool(ctx, cfg.Form.SubmitWorkers, cfg.Form.QueueDepth,
		func(ctx context.Context, w *submitWork) {
			res := e.process(ctx, w.sess)
			if w.resultC != nil {
				w.resultC <- res
			}
		})
	return e
}

// SwapSchedule installs new schedule settings (used on hot-reload).
func (e *Engine) SwapSchedule(sc config.ScheduleConf) {
	e.sched.Store(&sc)
}

// ConflictWindow returns the currently configured separation window.
func (e *Engine) ConflictWindow() time.Duration {
	return time.Duration(e.sched.Load().ConflictWindowMinutes) * time.Minute
}

// CheckConflicts runs a standalone conflict check against the snapshot.
func (e *Engine) CheckConflicts(c timegrid.Candidate) timegrid.Report {
	events, known := e.snap.Events()
	rep := timegrid.Check(c, events, known, e.ConflictWindow())
	metrics.ConflictChecks.Inc()
	metrics.ConflictsFound.Add(float64(len(rep.Conflicts)))
	return rep
}

// ErrQueueFull is returned when the submission queue rejects new work.
var ErrQueueFull = errors.New("submission queue full")

// SubmitSync runs a session through the pipeline and waits for the result.
func (e *Engine) SubmitSync(ctx context.Context, sess *session.Session) (*Result, error) {
	resultC := make(chan *Result, 1)
	if !e.pool.Submit(&submitWork{sess: sess, resultC: resultC}) {
		metrics.SubmissionsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}

	select {
	case res := <-resultC:
		return res, nil
	case <-time.After(e.timeout):
		return nil, fmt.Errorf("submission timeout after %v", e.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) process(ctx context.Context, sess *session.Session) *Result {
	start := time.Now()
	res := &Result{SessionID: sess.ID}

	// 1. Full-form validation; a dirty form never reaches the repository.
	errs, worst := sess.ValidateForSubmit()
	if len(errs) > 0 {
		res.Errors = errs
		res.ReturnToStep = worst
		res.Message = "el formulario tiene errores pendientes"
		res.DurationMs = time.Since(start).Milliseconds()
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return res
	}

	// 2. Conflict check. Conflicts warn rather than block unless policy
	// says otherwise; an unknown snapshot is reported as such, never as
	// "safe".
	if cand, ok := sess.Candidate(); ok {
		rep := e.CheckConflicts(cand)
		res.Conflicts = rep.Conflicts
		res.ConflictsKnown = rep.Known
		if e.sched.Load().BlockOnConflict && len(rep.Conflicts) > 0 {
			res.ReturnToStep = form.StepGeneral
			res.Message = "el horario entra en conflicto con otro evento"
			res.DurationMs = time.Since(start).Milliseconds()
			metrics.SubmissionsTotal.WithLabelValues("conflict").Inc()
			return res
		}
	}

	// 3. Hand the aggregate payload to the repository.
	err := e.submitter.Submit(ctx, sess.BuildProposal())
	res.DurationMs = time.Since(start).Milliseconds()
	metrics.SubmitDuration.Observe(float64(res.DurationMs))
	if err == nil {
		sess.MarkSubmitted()
		res.Accepted = true
		metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
		return res
	}

	// 4. Rejection: the draft stays intact for resubmission. Structured
	// field errors are merged back and the wizard rewinds to the earliest
	// affected step.
	var subErr *backend.SubmitError
	if errors.As(err, &subErr) {
		res.Message = subErr.Message
		if len(subErr.Fields) > 0 {
			issues := make([]form.FieldIssue, 0, len(subErr.Fields))
			for _, fe := range subErr.Fields {
				issues = append(issues, form.FieldIssue{Path: fe.Path, Message: fe.Message})
			}
			res.ReturnToStep = sess.ApplyServerErrors(issues)
			res.Errors = sess.Snapshot().Errors
		}
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return res
	}

	res.Message = err.Error()
	metrics.SubmissionsTotal.WithLabelValues("error").Inc()
	return res
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
