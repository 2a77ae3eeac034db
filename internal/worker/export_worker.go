package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"riverside/internal/events"
	"riverside/internal/models"

	"github.com/redis/go-redis/v9"
)

// ExportTask wraps one confirmed reservation on its way to the ledger file.
type ExportTask struct {
	Reservation *models.Reservation `json:"reservation"`
	RetryCount  int                 `json:"retry_count"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ExportClient appends confirmed reservations to the export ledger.
type ExportClient interface {
	AppendReservation(res *models.Reservation) error
}

// ExportWorker consumes confirmed reservations and writes them to the
// ledger. Tasks go through redis when available so they survive a restart;
// otherwise an in-memory queue is used.
type ExportWorker struct {
	client        ExportClient
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan ExportTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	logger        *log.Logger

	wg sync.WaitGroup
}

// NewExportWorker builds a worker with sane defaults.
func NewExportWorker(client ExportClient, redisClient *redis.Client, retry RetryPolicy, logger *log.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		logger = log.Default()
	}

	return &ExportWorker{
		client:        client,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan ExportTask, 128),
		redisQueueKey: "exports:queue",
		deadLetterKey: "exports:deadletter",
		pollInterval:  2 * time.Second,
		logger:        logger,
	}
}

// ReservationSource resolves a confirmed reference to its stored record.
type ReservationSource interface {
	Lookup(ctx context.Context, reference string) (*models.Reservation, error)
}

// ConfirmationHandler returns an event handler that feeds confirmed
// reservations into the export queue. The event payload carries only the
// reference; the full record comes from the source so the export sees the
// same row the ledger recorded.
func (w *ExportWorker) ConfirmationHandler(source ReservationSource) events.EventHandler {
	return func(event *events.Event) error {
		var payload events.ReservationEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			w.logger.Printf("export_worker: bad confirmation payload: %v", err)
			return err
		}
		if payload.Reference == "" {
			return errors.New("confirmation event has no reference")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := source.Lookup(ctx, payload.Reference)
		if err != nil {
			w.logger.Printf("export_worker: lookup %s failed: %v", payload.Reference, err)
			return err
		}
		return w.EnqueueReservation(ctx, res)
	}
}

// EnqueueReservation schedules a reservation for export via redis or the
// in-memory queue.
func (w *ExportWorker) EnqueueReservation(ctx context.Context, res *models.Reservation) error {
	if res == nil {
		return errors.New("reservation is required")
	}
	if res.Reference == "" {
		return errors.New("reservation reference is required")
	}

	task := ExportTask{
		Reservation: res,
		CreatedAt:   time.Now(),
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Printf("export_worker: redis push failed, fallback to memory queue: %v", err)
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
		return nil
	default:
		w.logger.Printf("export_worker: in-memory queue full, reservation %s dropped", res.Reference)
		return errors.New("export queue is full")
	}
}

// Start launches main loop; stops when ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Printf("export_worker: started")
	defer w.logger.Printf("export_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, t)
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *ExportWorker) tryLocalQueue() (ExportTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return ExportTask{}, false
	}
}

func (w *ExportWorker) tryRedis(ctx context.Context) (ExportTask, bool) {
	if w.redis == nil {
		return ExportTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return ExportTask{}, false
		}
		w.logger.Printf("export_worker: redis BRPOP error: %v", err)
		return ExportTask{}, false
	}
	if len(res) != 2 {
		return ExportTask{}, false
	}
	var task ExportTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Printf("export_worker: decode redis task: %v", err)
		return ExportTask{}, false
	}
	return task, true
}

func (w *ExportWorker) processTask(ctx context.Context, task ExportTask) {
	if task.Reservation == nil {
		w.logger.Printf("export_worker: task without reservation dropped")
		return
	}

	if err := w.client.AppendReservation(task.Reservation); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	w.logger.Printf("export_worker: reservation %s exported", task.Reservation.Reference)
}

func (w *ExportWorker) retryOrFail(ctx context.Context, task ExportTask, cause error) {
	task.RetryCount++
	if task.RetryCount >= w.retryPolicy.MaxRetries {
		w.logger.Printf("export_worker: reservation %s failed permanently: %v", task.Reservation.Reference, cause)
		w.pushDeadLetter(ctx, task)
		return
	}

	delay := w.retryPolicy.NextDelay(task.RetryCount)
	w.logger.Printf("export_worker: reservation %s retry %d in %s: %v", task.Reservation.Reference, task.RetryCount, delay, cause)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		select {
		case w.queue <- task:
		default:
			w.logger.Printf("export_worker: queue full on retry, reservation %s sent to deadletter", task.Reservation.Reference)
			w.pushDeadLetter(ctx, task)
		}
	}()
}

func (w *ExportWorker) pushRedis(ctx context.Context, task ExportTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *ExportWorker) pushDeadLetter(ctx context.Context, task ExportTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Printf("export_worker: encode deadletter %s: %v", task.Reservation.Reference, err)
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Printf("export_worker: deadletter push %s: %v", task.Reservation.Reference, err)
	}
}
