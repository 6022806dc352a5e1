package led

import "log/slog"

// noop implements Strip for hosts without LED hardware
type noop struct {
	count  int
	logger *slog.Logger
}

func newNoop(count int, logger *slog.Logger) *noop {
	return &noop{
		count:  count,
		logger: logger,
	}
}

func (n *noop) Len() int { return n.count }

// Render logs the frame but drives no hardware
func (n *noop) Render(frame Frame) error {
	if err := checkLen(n, frame); err != nil {
		return err
	}
	if len(frame) > 0 {
		n.logger.Debug("LED frame (no-op)", "pixels", len(frame), "first", frame[0].String())
	}
	return nil
}

func (n *noop) Close() error {
	return nil
}
