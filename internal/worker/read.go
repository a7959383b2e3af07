package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pyqs-go/pyqs/internal/message"
	"github.com/pyqs-go/pyqs/internal/metrics"
	"github.com/pyqs-go/pyqs/internal/queue"
)

// ReadWorker pulls batches off the remote queue, decodes them, and
// hands decoded invocations to the InternalQueue.
type ReadWorker struct {
	BaseWorker

	id         string
	remote     queue.RemoteQueue
	internal   *queue.InternalQueue
	poison     *queue.PoisonLog
	batchSize  int32
	queueLabel string
	log        zerolog.Logger
}

// NewReadWorker builds a ReadWorker.
func NewReadWorker(id string, remote queue.RemoteQueue, internal *queue.InternalQueue, poison *queue.PoisonLog, batchSize int32, queueLabel string, shutdownFlag *atomic.Bool, log zerolog.Logger) *ReadWorker {
	return &ReadWorker{
		BaseWorker: NewBaseWorker(shutdownFlag),
		id:         id,
		remote:     remote,
		internal:   internal,
		poison:     poison,
		batchSize:  batchSize,
		queueLabel: queueLabel,
		log:        log.With().Str("worker_id", id).Str("role", "reader").Logger(),
	}
}

// Run loops read_message until ShouldExit reports true.
func (w *ReadWorker) Run(ctx context.Context) {
	for !w.ShouldExit() {
		if err := w.ReadMessage(ctx); err != nil {
			w.log.Error().Err(err).Msg("read worker terminating after remote queue error")
			return
		}
	}
}

// ReadMessage implements spec.md §4.5.
func (w *ReadWorker) ReadMessage(ctx context.Context) error {
	raws, visibility, err := w.remote.Receive(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return nil
	}

	for i, raw := range raws {
		metrics.RecordMessageReceived(w.queueLabel)
		inv, decErr := message.Decode([]byte(raw.Body))
		if decErr != nil {
			w.log.Error().Err(decErr).Str("receipt_handle", raw.ReceiptHandle).Msg("failed to decode message, deleting as poison")
			metrics.RecordDecodeError(w.queueLabel)
			metrics.RecordPoisonMessage("decode_error")
			_ = w.poison.Record(ctx, queue.PoisonRecord{
				Reason: "decode_error",
				Body:   raw.Body,
				Detail: decErr.Error(),
			})
			if err := w.remote.Delete(ctx, raw.ReceiptHandle); err != nil {
				w.log.Error().Err(err).Msg("failed to delete poison message")
			}
			metrics.RecordMessageDeleted(w.queueLabel, "poison")
			continue
		}

		inv.FetchedAt = raw.FetchedAt
		inv.VisibilityDeadline = raw.FetchedAt.Add(visibility)
		inv.ReceiptHandle = raw.ReceiptHandle

		if inv.Expired(time.Now()) {
			w.log.Warn().Str("task", inv.Task).Str("receipt_handle", raw.ReceiptHandle).Msg("dropping message whose visibility deadline already passed before hand-off")
			metrics.RecordDropped(w.queueLabel, 1)
			continue
		}

		remaining := inv.RemainingVisibility(time.Now())

		if err := w.internal.Put(inv, remaining); err != nil {
			w.log.Warn().Str("task", inv.Task).Msg("Timed out trying to add the following message to the internal queue")
			metrics.RecordPutTimeout(w.queueLabel)
			w.log.Warn().Msg("Clearing Local messages since we exceeded their visibility_timeout")
			metrics.RecordDropped(w.queueLabel, len(raws)-i)
			return nil
		}

		if err := w.remote.Delete(ctx, raw.ReceiptHandle); err != nil {
			w.log.Error().Err(err).Msg("failed to delete handed-off message")
			continue
		}
		metrics.RecordMessageDeleted(w.queueLabel, "processed")
	}
	return nil
}
