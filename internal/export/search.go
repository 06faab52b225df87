package export

import (
	"context"
	"log/slog"

	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/ratelimit"
	"github.com/HartreeWorks/slackpull/internal/slack"
)

// runSearchPhase pages through the search endpoint for the checkpoint's
// query, appending each page's messages and persisting the advanced cursor
// before the next request. One page is the atomic unit of resumable work.
func (p *Pipeline) runSearchPhase(ctx context.Context, cp *model.Checkpoint) error {
	for {
		var page *slack.SearchResult

		err := ratelimit.Do(ctx, p.limiter, ratelimit.TierSearch, p.policy, "message search", func(ctx context.Context) error {
			var err error
			page, err = p.client.SearchMessages(ctx, slack.SearchMessagesOptions{
				Query: cp.Search.Query,
				Sort:  "timestamp",
				Dir:   "asc",
				Count: cp.Search.PageSize,
				Page:  cp.Search.NextPage,
			})

			return err
		})
		if err != nil {
			return err
		}

		for _, match := range page.Matches {
			cp.Messages = append(cp.Messages, model.Message{
				TS:          match.Timestamp,
				ChannelID:   match.Channel.ID,
				ChannelName: match.Channel.Name,
				User:        match.User,
				Text:        match.Text,
				ThreadTS:    match.ThreadTS,
				IsSubject:   true, // the query is from:<subject>
			})

			if _, ok := cp.Channels[match.Channel.ID]; !ok && match.Channel.ID != "" {
				cp.Channels[match.Channel.ID] = model.ChannelInfo{
					ID:   match.Channel.ID,
					Name: match.Channel.Name,
					Type: match.Channel.Type(),
				}
			}
		}

		done := len(page.Matches) == 0 ||
			len(page.Matches) < cp.Search.PageSize ||
			(page.Paging.Pages > 0 && cp.Search.NextPage >= page.Paging.Pages)

		cp.Search.NextPage++

		if done {
			cp.Phase = model.PhaseThreads
		}

		// The page's messages and the advanced cursor must hit disk before
		// the next request, or resume would re-fetch or skip this page
		if err := SaveCheckpoint(cp, p.checkpointPath); err != nil {
			return err
		}

		p.logger.Debug("search page collected",
			slog.Int("page", cp.Search.NextPage-1),
			slog.Int("matches", len(page.Matches)),
			slog.Int("total_collected", len(cp.Messages)),
		)

		if done {
			return nil
		}
	}
}
