package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/leaseguard/leaseguard-api/internal/assistant"
	"github.com/leaseguard/leaseguard-api/internal/chunker"
	"github.com/leaseguard/leaseguard-api/internal/models"
	"github.com/leaseguard/leaseguard-api/internal/utils"
)

// Options tunes the polling loop. Zero values fall back to defaults.
type Options struct {
	BaseDelay  time.Duration
	Growth     float64
	MaxDelay   time.Duration
	MaxRetries int
	Timeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.Growth <= 1 {
		o.Growth = 1.5
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 15 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 30
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Minute
	}
	return o
}

// Orchestrator drives one multi-turn generation job per analysis request.
// All state transitions are visible only through the returned result or
// error; no partial results are surfaced.
type Orchestrator struct {
	client assistant.Client
	opts   Options
	logger *utils.Logger

	// sleep is swapped out in tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(client assistant.Client, opts Options, logger *utils.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		opts:   opts.withDefaults(),
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Analyze sends the chunks to a fresh conversation in index order, starts a
// run and polls it to completion under the configured backoff and timeout
// discipline. The instructions message rides with the final chunk.
func (o *Orchestrator) Analyze(ctx context.Context, chunks []chunker.Chunk, instructions string) (*models.AnalysisResult, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to analyze")
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	job := newJob()
	o.logger.Info("Starting analysis job", "job_id", job.ID, "chunks", len(chunks))

	threadID, err := o.client.CreateThread(ctx)
	if err != nil {
		return nil, o.fail(job, err)
	}

	if err := o.sendChunks(ctx, threadID, chunks, instructions); err != nil {
		return nil, o.fail(job, err)
	}

	run, err := o.client.StartRun(ctx, threadID)
	if err != nil {
		return nil, o.fail(job, err)
	}
	job.transition(StateRunning)

	result, err := o.poll(ctx, job, threadID, run.ID)
	if err != nil {
		return nil, err
	}

	o.logger.Info("Analysis job completed", "job_id", job.ID, "polls", job.Retries)
	return result, nil
}

// sendChunks delivers chunk messages in index order. With more than one
// chunk, all but the last carry a hold instruction so the model waits for
// the remainder; the last carries the analysis instructions.
func (o *Orchestrator) sendChunks(ctx context.Context, threadID string, chunks []chunker.Chunk, instructions string) error {
	for _, c := range chunks {
		var msg string
		switch {
		case c.Total == 1:
			msg = fmt.Sprintf("%s\n\n%s", instructions, c.Text)
		case c.Index < c.Total-1:
			msg = fmt.Sprintf("This is %s of a lease document. Acknowledge receipt and wait for the remaining parts before analyzing.\n\n%s", c.Label, c.Text)
		default:
			msg = fmt.Sprintf("This is %s, the final part of the lease document.\n\n%s\n\n%s", c.Label, c.Text, instructions)
		}
		if err := o.client.AddMessage(ctx, threadID, msg); err != nil {
			return err
		}
	}
	return nil
}

// poll drives the run to a terminal state. Each iteration suspends for the
// computed backoff delay before checking status; the wall-clock timeout on
// ctx races the loop and wins by cancelling the sleep.
func (o *Orchestrator) poll(ctx context.Context, job *Job, threadID, runID string) (*models.AnalysisResult, error) {
	for attempt := 0; attempt < o.opts.MaxRetries; attempt++ {
		if err := o.sleep(ctx, o.backoff(attempt)); err != nil {
			job.transition(StateTimedOut)
			return nil, &TimeoutError{Cause: "wall-clock timeout exceeded"}
		}
		job.Retries = attempt + 1

		run, err := o.client.GetRun(ctx, threadID, runID)
		if err != nil {
			if ctx.Err() != nil {
				job.transition(StateTimedOut)
				return nil, &TimeoutError{Cause: "wall-clock timeout exceeded"}
			}
			// Transport hiccups burn a poll attempt and ride the same backoff.
			o.logger.Warn("Poll failed", "job_id", job.ID, "attempt", attempt+1, "error", err)
			continue
		}

		switch run.Status {
		case assistant.RunCompleted:
			job.transition(StateCompleted)
			return o.collect(ctx, threadID)

		case assistant.RunRequiresAction:
			job.transition(StateRequiresAction)
			if err := o.client.SubmitToolOutputs(ctx, threadID, runID, run.ToolCallIDs); err != nil {
				return nil, o.fail(job, err)
			}
			job.transition(StateRunning)

		case assistant.RunFailed:
			job.transition(StateFailed)
			return nil, &JobTerminalError{State: StateFailed, Reason: run.LastError}

		case assistant.RunCancelled:
			job.transition(StateCancelled)
			return nil, &JobTerminalError{State: StateCancelled, Reason: run.LastError}

		case assistant.RunExpired:
			job.transition(StateExpired)
			return nil, &JobTerminalError{State: StateExpired, Reason: run.LastError}
		}
	}

	job.transition(StateTimedOut)
	return nil, &TimeoutError{Cause: fmt.Sprintf("no terminal state after %d polls", o.opts.MaxRetries)}
}

// collect fetches the latest assistant message and parses the embedded
// JSON object into a result.
func (o *Orchestrator) collect(ctx context.Context, threadID string) (*models.AnalysisResult, error) {
	text, err := o.client.LatestMessageText(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, &MalformedResponseError{Excerpt: excerpt(text), Err: err}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &MalformedResponseError{Excerpt: excerpt(raw), Err: err}
	}
	return &result, nil
}

// backoff returns min(base * growth^attempt, cap).
func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := time.Duration(float64(o.opts.BaseDelay) * math.Pow(o.opts.Growth, float64(attempt)))
	if d > o.opts.MaxDelay || d <= 0 {
		return o.opts.MaxDelay
	}
	return d
}

func (o *Orchestrator) fail(job *Job, err error) error {
	job.transition(StateFailed)
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
