package notify

import (
	"context"

	"github.com/vendora-dev/vendora-backend/pkg/logger"
)

// Notifier delivers a message to a user's chat. AttachmentPath, when set,
// points to an image to send alongside the text. Implementations must not
// block request processing: failures are theirs to log and swallow.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message, attachmentPath string) error
}

// LogNotifier writes notifications to the log instead of a chat transport.
// It stands in wherever a real bot connection is absent: tests, cron
// workers, local runs.
type LogNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier builds the log-backed sink.
func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Notify(ctx context.Context, userID int64, message, attachmentPath string) error {
	ctx = n.logg.WithUserID(ctx, userID)
	if attachmentPath != "" {
		ctx = n.logg.WithField(ctx, "attachment", attachmentPath)
	}
	n.logg.Info(n.logg.WithField(ctx, "message", message), "notification dispatched")
	return nil
}
