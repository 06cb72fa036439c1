// Package uploader sends normalized batches to the persistence layer in
// sequential chunks and reports progress.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vendite/backend/internal/domain"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkTimeout = 60 * time.Second
)

var (
	ErrTimeout      = errors.New("chunk transmission timed out")
	ErrConnectivity = errors.New("persistence layer unreachable")
)

// RejectedError is returned when the persistence layer answered but refused the chunk.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected with status %d: %s", e.Status, e.Message)
}

// ChunkError records where an upload stopped. Chunks before Chunk were saved.
type ChunkError struct {
	Chunk  int
	Chunks int
	Saved  int
	Err    error
}

func (e *ChunkError) Error() string {
	if e.Chunk > e.Chunks {
		return fmt.Sprintf("refresh after %d chunks: %v", e.Chunks, e.Err)
	}
	return fmt.Sprintf("chunk %d/%d: %v", e.Chunk, e.Chunks, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Transmitter is the persistence surface the coordinator talks to.
type Transmitter interface {
	Transmit(ctx context.Context, batch domain.Batch) (domain.BulkResult, error)
	Refresh(ctx context.Context, kind domain.RecordKind) error
}

type Summary struct {
	Chunks            int `json:"chunks"`
	SavedCount        int `json:"savedCount"`
	SkippedDuplicates int `json:"skippedDuplicates"`
}

type Coordinator struct {
	Transmitter  Transmitter
	ChunkSize    int
	ChunkTimeout time.Duration
	Log          zerolog.Logger
}

func New(t Transmitter, chunkSize int, chunkTimeout time.Duration, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		Transmitter:  t,
		ChunkSize:    chunkSize,
		ChunkTimeout: chunkTimeout,
		Log:          logger,
	}
}

// Upload transmits batch chunk by chunk, never concurrently, and refreshes the
// persisted view once every chunk is saved. onProgress receives strictly
// increasing percentages; 100 is only reported after the refresh.
// Nothing is retried: on failure the returned *ChunkError says how far it got.
func (c *Coordinator) Upload(ctx context.Context, batch domain.Batch, onProgress func(int)) (Summary, error) {
	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	timeout := c.ChunkTimeout
	if timeout <= 0 {
		timeout = DefaultChunkTimeout
	}
	report := progressReporter(onProgress)

	total := batch.Len()
	chunks := (total + size - 1) / size
	summary := Summary{Chunks: chunks}
	report(0)

	for i := 0; i < chunks; i++ {
		from := i * size
		to := min(from+size, total)

		res, err := c.transmit(ctx, timeout, batch.Slice(from, to))
		if err != nil {
			c.Log.Warn().Err(err).Str("kind", string(batch.Kind)).Int("chunk", i+1).Int("chunks", chunks).Msg("chunk upload failed")
			return summary, &ChunkError{Chunk: i + 1, Chunks: chunks, Saved: summary.SavedCount, Err: err}
		}
		summary.SavedCount += res.SavedCount
		summary.SkippedDuplicates += res.SkippedDuplicates
		report(99 * (i + 1) / chunks)

		c.Log.Debug().Str("kind", string(batch.Kind)).Int("chunk", i+1).Int("chunks", chunks).
			Int("saved", res.SavedCount).Int("duplicates", res.SkippedDuplicates).Msg("chunk uploaded")
	}

	if err := c.refresh(ctx, timeout, batch.Kind); err != nil {
		return summary, &ChunkError{Chunk: chunks + 1, Chunks: chunks, Saved: summary.SavedCount, Err: err}
	}
	report(100)

	c.Log.Info().Str("kind", string(batch.Kind)).Int("records", total).Int("chunks", chunks).
		Int("saved", summary.SavedCount).Int("duplicates", summary.SkippedDuplicates).Msg("upload complete")
	return summary, nil
}

func (c *Coordinator) transmit(ctx context.Context, timeout time.Duration, chunk domain.Batch) (domain.BulkResult, error) {
	chunkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := c.Transmitter.Transmit(chunkCtx, chunk)
	return res, classify(chunkCtx, err)
}

func (c *Coordinator) refresh(ctx context.Context, timeout time.Duration, kind domain.RecordKind) error {
	refreshCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return classify(refreshCtx, c.Transmitter.Refresh(refreshCtx, kind))
}

// classify maps an expired chunk deadline onto ErrTimeout when the
// transmitter did not already say what went wrong.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var rejected *RejectedError
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnectivity) || errors.As(err, &rejected) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func progressReporter(onProgress func(int)) func(int) {
	last := -1
	return func(p int) {
		if onProgress == nil || p <= last {
			return
		}
		last = p
		onProgress(p)
	}
}

// UserMessage turns an upload failure into the text shown to the operator.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var msg string
	var rejected *RejectedError
	switch {
	case errors.Is(err, ErrTimeout):
		msg = "Il server non ha risposto in tempo. Riprova il caricamento: i dati già salvati non verranno duplicati."
	case errors.Is(err, ErrConnectivity):
		msg = "Impossibile contattare il server. Controlla la connessione e riprova."
	case errors.As(err, &rejected):
		msg = fmt.Sprintf("Il server ha rifiutato i dati (errore %d): %s", rejected.Status, rejected.Message)
	default:
		msg = "Caricamento non riuscito: " + err.Error()
	}

	var chunkErr *ChunkError
	if errors.As(err, &chunkErr) && chunkErr.Saved > 0 {
		msg += fmt.Sprintf(" Record già salvati: %d.", chunkErr.Saved)
	}
	return msg
}
