package export

import (
	"context"
	"log/slog"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/ratelimit"
	"github.com/HartreeWorks/slackpull/internal/slack"
)

// runThreadPhase fetches the complete thread for every thread key referenced
// by the collected messages, exactly once each. One whole thread (all of its
// reply pages) is the atomic unit of resumable work: a thread is appended and
// its key marked fetched only after every page is drained.
func (p *Pipeline) runThreadPhase(ctx context.Context, cp *model.Checkpoint) error {
	pending := cp.PendingThreadKeys()

	for _, key := range pending {
		thread, err := p.fetchThread(ctx, cp, key)
		if err != nil {
			if !core.IsPermanentItemError(err) {
				return err
			}

			// The thread is gone for good: record the failure inline and
			// never retry it
			p.logger.Warn("thread permanently inaccessible",
				slog.String("thread", key.String()),
				slog.String("error", err.Error()),
			)

			thread = &model.Thread{Key: key, Error: err.Error()}
		}

		cp.Threads = append(cp.Threads, *thread)
		cp.FetchedThreads[key.String()] = true

		if err := SaveCheckpoint(cp, p.checkpointPath); err != nil {
			return err
		}

		p.logger.Debug("thread collected",
			slog.String("thread", key.String()),
			slog.Int("messages", thread.TotalCount),
		)
	}

	cp.Phase = model.PhaseWrite

	return SaveCheckpoint(cp, p.checkpointPath)
}

// fetchThread drains every page of one thread and tags each message with
// whether the export subject authored it.
func (p *Pipeline) fetchThread(ctx context.Context, cp *model.Checkpoint, key model.ThreadKey) (*model.Thread, error) {
	thread := &model.Thread{Key: key}

	cursor := ""
	for {
		var page *slack.GetThreadRepliesResult

		err := ratelimit.Do(ctx, p.limiter, ratelimit.TierThread, p.policy, "thread fetch", func(ctx context.Context) error {
			var err error
			page, err = p.client.GetThreadReplies(ctx, slack.GetThreadRepliesOptions{
				Channel:  key.ChannelID,
				ThreadTS: key.RootTS,
				Cursor:   cursor,
			})

			return err
		})
		if err != nil {
			return nil, err
		}

		for _, m := range page.Messages {
			isSubject := m.User == cp.Subject

			thread.Messages = append(thread.Messages, model.Message{
				TS:        m.Timestamp,
				ChannelID: key.ChannelID,
				User:      m.User,
				Text:      m.Text,
				ThreadTS:  key.RootTS,
				IsSubject: isSubject,
			})

			thread.TotalCount++
			if isSubject {
				thread.SubjectCount++
			}
		}

		if !page.HasMore || page.NextCursor == "" {
			return thread, nil
		}

		cursor = page.NextCursor
	}
}
