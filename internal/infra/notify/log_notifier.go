package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/jahid-csedu/iam-system-sub000/internal/core/port"
	"github.com/jahid-csedu/iam-system-sub000/internal/infra/logger"
)

// LogNotifier records deliveries instead of sending them. Useful for
// development environments without an outbound mail relay. Message bodies
// carry reset codes and generated passwords, so only the destination and
// subject go to the log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a development notifier.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &LogNotifier{logger: lg}
}

// Send logs the delivery with a masked destination and no body.
func (n *LogNotifier) Send(_ context.Context, toAddress, subject, _ string) error {
	n.logger.Info("Notification dispatched",
		zap.String("to", logger.MaskEmail(toAddress)),
		zap.String("subject", subject),
	)
	return nil
}

var _ port.Notifier = (*LogNotifier)(nil)
