package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

// DefaultKey is the hash holding task records when no key is configured.
const DefaultKey = "tasks"

// maxWatchRetries bounds optimistic-lock retries for read-modify-write updates.
const maxWatchRetries = 5

// TaskRemote stores tasks in Redis: a hash of JSON records keyed by id, a
// sorted set recording first-save order, and a counter feeding its scores.
type TaskRemote struct {
	client *redislib.Client
	logger *zap.Logger

	recordsKey string
	orderKey   string
	seqKey     string
}

// NewTaskRemote creates a Redis-backed remote data source.
func NewTaskRemote(client *redislib.Client, key string, logger *zap.Logger) *TaskRemote {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskRemote{
		client:     client,
		logger:     logger,
		recordsKey: key,
		orderKey:   key + ":order",
		seqKey:     key + ":seq",
	}
}

func (r *TaskRemote) GetTasks(ctx context.Context) ([]domain.Task, error) {
	ids, err := r.client.ZRange(ctx, r.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read task order: %w", err)
	}
	tasks := make([]domain.Task, 0, len(ids))
	if len(ids) == 0 {
		return tasks, nil
	}

	values, err := r.client.HMGet(ctx, r.recordsKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read task records: %w", err)
	}
	for i, v := range values {
		payload, ok := v.(string)
		if !ok {
			r.logger.Warn("task missing from records hash", zap.String("task_id", ids[i]))
			continue
		}
		task, err := decode(payload)
		if err != nil {
			r.logger.Warn("skipping corrupt task record", zap.String("task_id", ids[i]), zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *TaskRemote) GetTask(ctx context.Context, id string) (domain.Task, error) {
	payload, err := r.client.HGet(ctx, r.recordsKey, id).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return domain.Task{}, domain.ErrDataNotAvailable
		}
		return domain.Task{}, fmt.Errorf("read task %s: %w", id, err)
	}
	task, err := decode(payload)
	if err != nil {
		return domain.Task{}, fmt.Errorf("decode task %s: %w", id, err)
	}
	return task, nil
}

func (r *TaskRemote) SaveTask(ctx context.Context, task domain.Task) error {
	payload, err := json.Marshal(task.Record())
	if err != nil {
		return err
	}
	seq, err := r.client.Incr(ctx, r.seqKey).Result()
	if err != nil {
		return fmt.Errorf("next task sequence: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.HSet(ctx, r.recordsKey, task.ID(), payload)
		pipe.ZAddNX(ctx, r.orderKey, redislib.Z{Score: float64(seq), Member: task.ID()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRemote) CompleteTask(ctx context.Context, task domain.Task) error {
	return r.SaveTask(ctx, task.Complete())
}

func (r *TaskRemote) CompleteTaskByID(ctx context.Context, id string) error {
	return r.modify(ctx, id, domain.Task.Complete)
}

func (r *TaskRemote) ActivateTask(ctx context.Context, task domain.Task) error {
	return r.SaveTask(ctx, task.Activate())
}

func (r *TaskRemote) ActivateTaskByID(ctx context.Context, id string) error {
	return r.modify(ctx, id, domain.Task.Activate)
}

func (r *TaskRemote) ClearCompletedTasks(ctx context.Context) error {
	records, err := r.client.HGetAll(ctx, r.recordsKey).Result()
	if err != nil {
		return fmt.Errorf("read task records: %w", err)
	}

	var completed []string
	for id, payload := range records {
		task, err := decode(payload)
		if err == nil && task.Completed() {
			completed = append(completed, id)
		}
	}
	if len(completed) == 0 {
		return nil
	}
	return r.remove(ctx, completed...)
}

func (r *TaskRemote) DeleteAllTasks(ctx context.Context) error {
	if err := r.client.Del(ctx, r.recordsKey, r.orderKey, r.seqKey).Err(); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}

func (r *TaskRemote) DeleteTask(ctx context.Context, id string) error {
	return r.remove(ctx, id)
}

func (r *TaskRemote) RefreshTasks() {}

// Ping is used by the health monitor.
func (r *TaskRemote) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// modify rewrites the record for id under WATCH; a missing id is a no-op.
func (r *TaskRemote) modify(ctx context.Context, id string, fn func(domain.Task) domain.Task) error {
	txf := func(tx *redislib.Tx) error {
		payload, err := tx.HGet(ctx, r.recordsKey, id).Result()
		if errors.Is(err, redislib.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		task, err := decode(payload)
		if err != nil {
			return err
		}
		updated, err := json.Marshal(fn(task).Record())
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.HSet(ctx, r.recordsKey, id, updated)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, txf, r.recordsKey)
		if errors.Is(err, redislib.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update task %s: %w", id, err)
		}
		return nil
	}
	return fmt.Errorf("update task %s: %w", id, redislib.TxFailedErr)
}

func (r *TaskRemote) remove(ctx context.Context, ids ...string) error {
	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		members = append(members, id)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.HDel(ctx, r.recordsKey, ids...)
		pipe.ZRem(ctx, r.orderKey, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}

func decode(payload string) (domain.Task, error) {
	var rec domain.TaskRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.Task{}, err
	}
	return rec.Task(), nil
}

var _ repository.TasksDataSource = (*TaskRemote)(nil)
