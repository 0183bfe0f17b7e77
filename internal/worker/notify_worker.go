package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pitline/internal/database"
	"pitline/internal/domain"
	"pitline/internal/events"
	"pitline/internal/metrics"
	"pitline/internal/models"
	"pitline/internal/notify"
)

// NotifyWorker consumes notify_queue tasks and delivers manager
// notifications through the sink. Delivery never blocks the booking flow:
// tasks are persisted first and retried with backoff on failure.
type NotifyWorker struct {
	db            *database.DB
	sink          domain.Sink
	chatIDs       []int64
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.NotifyTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewNotifyWorker(db *database.DB, sink domain.Sink, chatIDs []int64, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
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
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NotifyWorker{
		db:            db,
		sink:          sink,
		chatIDs:       chatIDs,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.NotifyTask, models.WorkerQueueSize),
		redisQueueKey: "notify:queue",
		deadLetterKey: "notify:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// BindTo subscribes the worker to the domain events it turns into
// notifications.
func (w *NotifyWorker) BindTo(bus *events.EventBus) {
	enqueue := func(event *events.Event) error {
		var appointmentID int64
		if event.Type == events.EventAppointmentCreated {
			var p events.AppointmentEventPayload
			if err := json.Unmarshal(event.Payload, &p); err == nil {
				appointmentID = p.AppointmentID
			}
		}
		return w.Enqueue(context.Background(), event.Type, appointmentID, event.Payload)
	}

	bus.Subscribe(events.EventAppointmentCreated, enqueue)
	bus.Subscribe(events.EventBlackoutAdded, enqueue)
	bus.Subscribe(events.EventBlackoutRemoved, enqueue)
}

// Enqueue persists a task and schedules it via redis or the in-memory queue.
func (w *NotifyWorker) Enqueue(ctx context.Context, taskType string, appointmentID int64, payload []byte) error {
	if taskType == "" {
		return errors.New("task type is required")
	}

	task := models.NotifyTask{
		TaskType:      taskType,
		AppointmentID: appointmentID,
		Payload:       string(payload),
		Status:        "pending",
		CreatedAt:     time.Now(),
	}

	if err := w.db.CreateNotifyTask(ctx, &task); err != nil {
		return fmt.Errorf("failed to persist notify task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		// Полный канал не страшен: задача уже в БД и будет подобрана опросом.
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches main loop; stops when ctx is done.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("notify worker started")
	defer w.logger.Info().Msg("notify worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingNotifyTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("failed to fetch pending notify tasks")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *NotifyWorker) tryLocalQueue() (models.NotifyTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.NotifyTask{}, false
	}
}

func (w *NotifyWorker) tryRedis(ctx context.Context) (models.NotifyTask, bool) {
	if w.redis == nil {
		return models.NotifyTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.NotifyTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.NotifyTask{}, false
	}
	if len(res) != 2 {
		return models.NotifyTask{}, false
	}
	var task models.NotifyTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("failed to decode redis task")
		return models.NotifyTask{}, false
	}
	return task, true
}

func (w *NotifyWorker) processTask(ctx context.Context, task *models.NotifyTask) {
	// Задача из redis могла прийти раньше, чем истёк её next_retry_at.
	if task.NextRetryAt != nil && task.NextRetryAt.After(time.Now()) {
		return
	}

	text, err := w.renderTask(task)
	if err != nil {
		w.failTask(ctx, task, err)
		return
	}

	if err := w.deliver(text); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncNotificationSent()
	if err := w.db.UpdateNotifyTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task completed")
	}
}

func (w *NotifyWorker) renderTask(task *models.NotifyTask) (string, error) {
	switch task.TaskType {
	case events.EventAppointmentCreated:
		var p events.AppointmentEventPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return "", fmt.Errorf("failed to decode appointment payload: %w", err)
		}
		return notify.FormatAppointmentCreated(p), nil
	case events.EventBlackoutAdded, events.EventBlackoutRemoved:
		var p events.BlackoutEventPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return "", fmt.Errorf("failed to decode blackout payload: %w", err)
		}
		return notify.FormatBlackoutChanged(task.TaskType, p), nil
	default:
		return "", fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *NotifyWorker) deliver(text string) error {
	var lastErr error
	for _, chatID := range w.chatIDs {
		if err := w.sink.Send(chatID, text); err != nil {
			lastErr = err
			w.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("notification delivery failed")
		}
	}
	return lastErr
}

func (w *NotifyWorker) retryOrFail(ctx context.Context, task *models.NotifyTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task, cause)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateNotifyTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task for retry")
	}
}

func (w *NotifyWorker) failTask(ctx context.Context, task *models.NotifyTask, cause error) {
	metrics.IncNotificationFailed()
	if err := w.db.UpdateNotifyTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to mark task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *NotifyWorker) pushRedis(ctx context.Context, task models.NotifyTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *NotifyWorker) pushDeadLetter(ctx context.Context, task *models.NotifyTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to encode deadletter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to push deadletter task")
	}
}
