package session

import (
	"context"

	"github.com/alexogeny/ormkit/internal/platform/constants"
)

// Stream iterates q's matches in LIMIT/OFFSET windows of batchSize (or
// constants.DefaultStreamBatchSize when batchSize <= 0), terminating
// on the first empty or short batch (§4.D: "stream(batch_size) issues
// LIMIT/OFFSET windows... the iterator terminates on the first empty
// or short batch").
func (q *Query) Stream(ctx context.Context, batchSize int) *RowStream {
	if batchSize <= 0 {
		batchSize = constants.DefaultStreamBatchSize
	}
	return &RowStream{q: q, batchSize: batchSize, offset: q.offset}
}

// RowStream is a pull-based iterator over windowed query results.
type RowStream struct {
	q         *Query
	batchSize int
	offset    int

	buffer []Row
	pos    int
	done   bool
	err    error
}

// Next advances the stream, returning the next row. ok is false once
// every window has been exhausted (or an error occurred — check Err).
func (rs *RowStream) Next(ctx context.Context) (Row, bool) {
	for {
		if rs.pos < len(rs.buffer) {
			row := rs.buffer[rs.pos]
			rs.pos++
			return row, true
		}
		if rs.done {
			return nil, false
		}
		if !rs.fetchNext(ctx) {
			return nil, false
		}
	}
}

// Err reports the first error encountered while fetching a window.
func (rs *RowStream) Err() error { return rs.err }

func (rs *RowStream) fetchNext(ctx context.Context) bool {
	window := *rs.q
	window.offset, window.hasOffset = rs.offset, true
	window.limit, window.hasLimit = rs.batchSize, true

	rows, err := window.All(ctx)
	if err != nil {
		rs.err = err
		rs.done = true
		return false
	}

	rs.buffer = rows
	rs.pos = 0
	rs.offset += len(rows)

	if len(rows) < rs.batchSize {
		rs.done = true
	}
	return len(rows) > 0
}
