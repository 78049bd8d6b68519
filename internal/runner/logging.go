package runner

import (
	"context"

	"github.com/torosent/cqlfire/internal/metrics"
	"github.com/torosent/cqlfire/internal/workload"
)

// FailureLogger logs failed operations.
type FailureLogger interface {
	LogFailure(err error)
}

type loggingExecutor struct {
	next   Executor
	logger FailureLogger
}

// WithLogging wraps an Executor to log failures as they happen. The
// wrapped executor's result is passed through unchanged.
func WithLogging(exec Executor, logger FailureLogger) Executor {
	if logger == nil {
		return exec
	}
	return &loggingExecutor{next: exec, logger: logger}
}

func (l *loggingExecutor) Execute(ctx context.Context, op workload.Operation) metrics.Result {
	res := l.next.Execute(ctx, op)
	if res.Err != nil {
		l.logger.LogFailure(res.Err)
	}
	return res
}
