package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/progress"
)

// LogSink writes each event as a structured log line. Failed units log at
// warn level, everything else at debug.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wraps logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the batch.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID),
			zap.String("stage", string(evt.Stage)),
		}
		if evt.Level != "" {
			fields = append(fields, zap.String("level", evt.Level), zap.String("unit", evt.Unit))
		}
		if evt.Records > 0 {
			fields = append(fields, zap.Int("records", evt.Records))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		if evt.Stage == progress.StageUnitFailed {
			s.logger.Warn("progress", fields...)
			continue
		}
		s.logger.Debug("progress", fields...)
	}
	return nil
}

// Close is a no-op.
func (s *LogSink) Close(context.Context) error {
	return nil
}
