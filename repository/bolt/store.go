package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

var (
	// tasksBucket holds JSON records keyed by an insertion sequence so a cursor
	// walks them in first-save order.
	tasksBucket = []byte("tasks")
	// indexBucket maps task id to its sequence key.
	indexBucket = []byte("task_index")
)

// Store is the on-disk local task store.
type Store struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// NewStore ensures the buckets exist.
func NewStore(db *bbolt.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.Update(createBuckets); err != nil {
		return nil, fmt.Errorf("create task buckets: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func createBuckets(tx *bbolt.Tx) error {
	for _, name := range [][]byte{tasksBucket, indexBucket} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

// GetTasks returns every stored task, or domain.ErrDataNotAvailable when the
// store is empty.
func (s *Store) GetTasks(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var tasks []domain.Task
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(tasksBucket).ForEach(func(k, v []byte) error {
			task, err := decode(v)
			if err != nil {
				s.logger.Warn("skipping corrupt task record", zap.Binary("key", k), zap.Error(err))
				return nil
			}
			tasks = append(tasks, task)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, domain.ErrDataNotAvailable
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	var (
		task  domain.Task
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		seq := tx.Bucket(indexBucket).Get([]byte(id))
		if seq == nil {
			return nil
		}
		v := tx.Bucket(tasksBucket).Get(seq)
		if v == nil {
			return nil
		}
		var err error
		task, err = decode(v)
		found = err == nil
		return err
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("read task %s: %w", id, err)
	}
	if !found {
		return domain.Task{}, domain.ErrDataNotAvailable
	}
	return task, nil
}

func (s *Store) SaveTask(ctx context.Context, task domain.Task) error {
	return s.update(ctx, func(tx *bbolt.Tx) error {
		return put(tx, task)
	})
}

func (s *Store) CompleteTask(ctx context.Context, task domain.Task) error {
	return s.update(ctx, func(tx *bbolt.Tx) error {
		return put(tx, task.Complete())
	})
}

func (s *Store) CompleteTaskByID(ctx context.Context, id string) error {
	return s.update(ctx, func(tx *bbolt.Tx) error {
		return modify(tx, id, domain.Task.Complete)
	})
}

func (s *Store) ActivateTask(ctx context.Context, task domain.Task) error {
	return s.update(ctx, func(tx *bbolt.Tx) error {
		return put(tx, task.Activate())
	})
}

func (s *Store) ActivateTaskByID(ctx context.Context, id string) error {
	return s.update(ctx, func(tx *bbolt.Tx) error {
		return modify(tx, id, domain.Task.Activate)
	})
}

func (s *Store) ClearCompletedTasks(ctx context.Context) error {
	return s.update(ctx, func(tx *bbolt.Tx) error {
		var completed []string
		err := tx.Bucket(tasksBucket).ForEach(func(_, v []byte) error {
			task, err := decode(v)
			if err == nil && task.Completed() {
				completed = append(completed, task.ID())
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range completed {
			if err := remove(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteAllTasks(ctx context.Context) error {
	return s.update(ctx, func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{tasksBucket, indexBucket} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
		}
		return createBuckets(tx)
	})
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.update(ctx, func(tx *bbolt.Tx) error {
		return remove(tx, id)
	})
}

// RefreshTasks is a no-op; the repository decides when to re-sync.
func (s *Store) RefreshTasks() {}

// Ping verifies the database still answers read transactions.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(tasksBucket) == nil {
			return bbolt.ErrBucketNotFound
		}
		return nil
	})
}

// Size returns the number of stored tasks.
func (s *Store) Size() (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(indexBucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *Store) update(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(fn); err != nil {
		return fmt.Errorf("bolt update: %w", err)
	}
	return nil
}

// put upserts task, keeping the sequence key of an existing id.
func put(tx *bbolt.Tx, task domain.Task) error {
	tasks := tx.Bucket(tasksBucket)
	index := tx.Bucket(indexBucket)

	id := []byte(task.ID())
	seq := append([]byte(nil), index.Get(id)...)
	if len(seq) == 0 {
		n, err := tasks.NextSequence()
		if err != nil {
			return err
		}
		seq = make([]byte, 8)
		binary.BigEndian.PutUint64(seq, n)
		if err := index.Put(id, seq); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(task.Record())
	if err != nil {
		return err
	}
	return tasks.Put(seq, payload)
}

// modify applies fn to the stored task with id; a missing id is a no-op.
func modify(tx *bbolt.Tx, id string, fn func(domain.Task) domain.Task) error {
	seq := tx.Bucket(indexBucket).Get([]byte(id))
	if seq == nil {
		return nil
	}
	v := tx.Bucket(tasksBucket).Get(seq)
	if v == nil {
		return nil
	}
	task, err := decode(v)
	if err != nil {
		return err
	}
	return put(tx, fn(task))
}

func remove(tx *bbolt.Tx, id string) error {
	index := tx.Bucket(indexBucket)
	seq := append([]byte(nil), index.Get([]byte(id))...)
	if len(seq) == 0 {
		return nil
	}
	if err := tx.Bucket(tasksBucket).Delete(seq); err != nil {
		return err
	}
	return index.Delete([]byte(id))
}

func decode(v []byte) (domain.Task, error) {
	var rec domain.TaskRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return domain.Task{}, err
	}
	return rec.Task(), nil
}

var _ repository.TasksDataSource = (*Store)(nil)
