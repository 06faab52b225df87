package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/ratelimit"
	"github.com/HartreeWorks/slackpull/internal/slack"
)

// Client is the slice of the Slack API the pipeline depends on.
type Client interface {
	SearchMessages(ctx context.Context, opts slack.SearchMessagesOptions) (*slack.SearchResult, error)
	GetThreadReplies(ctx context.Context, opts slack.GetThreadRepliesOptions) (*slack.GetThreadRepliesResult, error)
}

// Pipeline drives one export run through its phases. Phases execute strictly
// in order on a single goroutine; every remote call is gated by the rate
// limiter and the shared retry policy, and the checkpoint is persisted after
// each completed unit of work, so interruption at any point is recoverable.
type Pipeline struct {
	client         Client
	limiter        *ratelimit.Limiter
	policy         ratelimit.Policy
	checkpointPath string
	logger         *slog.Logger

	now func() time.Time
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// CheckpointPath overrides the per-workspace default, for tests
	CheckpointPath string

	// Limiter overrides the default tier budgets
	Limiter *ratelimit.Limiter

	// Policy overrides the default retry policy
	Policy *ratelimit.Policy

	Logger *slog.Logger

	// Now overrides the clock, for tests
	Now func() time.Time
}

// NewPipeline creates a pipeline for one workspace's export run.
func NewPipeline(client Client, workspace string, opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(ratelimit.DefaultBudgets(), ratelimit.LimiterOptions{Logger: logger})
	}

	policy := ratelimit.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	checkpointPath := opts.CheckpointPath
	if checkpointPath == "" {
		checkpointPath = CheckpointPath(workspace)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		client:         client,
		limiter:        limiter,
		policy:         policy,
		checkpointPath: checkpointPath,
		logger:         logger,
		now:            now,
	}
}

// Run executes the pipeline from the checkpoint's current phase to
// completion. A freshly created checkpoint starts at the search phase; a
// loaded one continues wherever it left off.
func (p *Pipeline) Run(ctx context.Context, cp *model.Checkpoint) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch cp.Phase {
		case model.PhaseSearch:
			p.logger.Info("search phase",
				slog.String("query", cp.Search.Query),
				slog.Int("next_page", cp.Search.NextPage),
			)

			if err := p.runSearchPhase(ctx, cp); err != nil {
				return fmt.Errorf("search phase: %w", err)
			}

		case model.PhaseThreads:
			p.logger.Info("thread phase",
				slog.Int("collected_messages", len(cp.Messages)),
				slog.Int("fetched_threads", len(cp.FetchedThreads)),
			)

			if err := p.runThreadPhase(ctx, cp); err != nil {
				return fmt.Errorf("thread phase: %w", err)
			}

		case model.PhaseWrite:
			p.logger.Info("write phase", slog.String("output", cp.OutputPath))

			if err := p.runWritePhase(cp); err != nil {
				return fmt.Errorf("write phase: %w", err)
			}

		case model.PhaseDone:
			return nil

		default:
			return fmt.Errorf("checkpoint has unknown phase %q", cp.Phase)
		}
	}
}

// runWritePhase assembles and atomically writes the archive. The checkpoint
// transitions to done and is retired only after the write succeeds; a failed
// write leaves phase at write so resume retries only the write.
func (p *Pipeline) runWritePhase(cp *model.Checkpoint) error {
	archive := BuildArchive(cp, p.now())

	if err := WriteArchive(archive, cp.OutputPath); err != nil {
		return err
	}

	cp.Phase = model.PhaseDone

	if err := SaveCheckpoint(cp, p.checkpointPath); err != nil {
		return err
	}

	p.logger.Info("archive written",
		slog.String("path", cp.OutputPath),
		slog.Int("total_messages", archive.Metadata.Stats.TotalMessages),
		slog.Int("threads", archive.Metadata.Stats.TotalThreads),
		slog.Int("standalone", archive.Metadata.Stats.StandaloneMessages),
	)

	return RetireCheckpoint(p.checkpointPath)
}
