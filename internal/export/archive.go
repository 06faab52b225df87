package export

import (
	"time"

	"github.com/HartreeWorks/slackpull/internal/encoding"
	"github.com/HartreeWorks/slackpull/internal/model"
)

// BuildArchive partitions the checkpoint's accumulated data into threads and
// standalone messages and computes the summary statistics. Every collected
// message lands in exactly one of the two partitions. The result is fully
// determined by the checkpoint contents plus exportedAt, which is what makes
// resumed runs produce identical output.
func BuildArchive(cp *model.Checkpoint, exportedAt time.Time) *model.Archive {
	archive := &model.Archive{
		Channels:           cp.Channels,
		Threads:            make([]model.ArchiveThread, 0, len(cp.Threads)),
		StandaloneMessages: make([]model.ArchiveMessage, 0),
	}

	totalMessages := 0

	for _, t := range cp.Threads {
		at := model.ArchiveThread{
			ThreadID:         t.Key.String(),
			ChannelID:        t.Key.ChannelID,
			UserMessageCount: t.SubjectCount,
			TotalMessages:    t.TotalCount,
			Error:            t.Error,
			Messages:         make([]model.ArchiveMessage, 0, len(t.Messages)),
		}

		for _, m := range t.Messages {
			at.Messages = append(at.Messages, model.ArchiveMessage{
				TS:            m.TS,
				User:          m.User,
				Text:          m.Text,
				IsUserMessage: m.IsSubject,
			})
		}

		totalMessages += t.TotalCount
		archive.Threads = append(archive.Threads, at)
	}

	for _, m := range cp.StandaloneMessages() {
		archive.StandaloneMessages = append(archive.StandaloneMessages, model.ArchiveMessage{
			TS:            m.TS,
			ChannelID:     m.ChannelID,
			User:          m.User,
			Text:          m.Text,
			IsUserMessage: m.IsSubject,
		})

		totalMessages++
	}

	archive.Metadata = model.ArchiveMetadata{
		Version:   model.ArchiveVersion,
		RunID:     cp.RunID,
		Workspace: cp.Workspace,
		Subject:   subjectLabel(cp),
		DateRange: model.DateRange{
			From: cp.DateFrom,
			To:   cp.DateTo,
		},
		ExportedAt: exportedAt,
		Stats: model.ArchiveStats{
			TotalMessages:      totalMessages,
			TotalThreads:       len(archive.Threads),
			StandaloneMessages: len(archive.StandaloneMessages),
			ChannelsCount:      len(archive.Channels),
		},
	}

	return archive
}

func subjectLabel(cp *model.Checkpoint) string {
	if cp.SubjectName != "" {
		return cp.SubjectName
	}

	return cp.Subject
}

// WriteArchive persists the archive as one atomic file write.
func WriteArchive(archive *model.Archive, path string) error {
	return encoding.SaveJSON(path, archive)
}
