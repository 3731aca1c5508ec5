package table

import (
	"context"

	"github.com/YuminosukeSato/numtable/pkg/log"
)

func logger() log.Logger {
	return log.GetLoggerWithName("table")
}

func traceBlock(op string, t NumericTable, start, n, col int, mode AccessMode) {
	l := logger()
	if !l.Enabled(context.Background(), log.LevelDebug) {
		return
	}
	l.Debug("block "+op,
		log.OperationKey, op,
		log.LayoutKey, t.Layout(),
		log.BlockStartKey, start,
		log.BlockCountKey, n,
		log.BlockColumnKey, col,
		log.AccessModeKey, mode.String(),
	)
}

func warnConflict(op string, t NumericTable, err error) {
	logger().Warn("table already has an outstanding block", err,
		log.OperationKey, op,
		log.LayoutKey, t.Layout(),
		log.RowsKey, t.NumRows(),
		log.ErrorCodeKey, log.ErrorConcurrentAccess,
		log.SuggestionKey, "release the previous block before acquiring another",
	)
}
