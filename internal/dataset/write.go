package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rshade/winlist/internal/batch"
)

// WriteNDJSON writes records to w as newline-delimited JSON, one write per
// batch. progress may be nil.
func WriteNDJSON(ctx context.Context, w io.Writer, records []Record, batchSize int, progress batch.ProgressFunc) error {
	proc, err := batch.NewProcessor[Record](batchSize)
	if err != nil {
		return err
	}
	proc.WithProgress(progress)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	return proc.Process(ctx, records, func(_ context.Context, chunk []Record, _ int) error {
		buf.Reset()
		for _, r := range chunk {
			if encErr := enc.Encode(r); encErr != nil {
				return fmt.Errorf("encoding record: %w", encErr)
			}
		}
		if _, writeErr := w.Write(buf.Bytes()); writeErr != nil {
			return fmt.Errorf("writing records: %w", writeErr)
		}
		return nil
	})
}
