package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/fentz26/hogar/internal/models"
)

// RedisStore keeps the whole table as one JSON value so that a Save is a
// single SET. Archive and audit entries go to lists.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore uses client and namespaces every key under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "hogar"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

// Load returns the stored table. A missing key is an empty board.
func (s *RedisStore) Load(ctx context.Context) ([]models.Task, error) {
	b, err := s.client.Get(ctx, s.key("tasks")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("load", err)
	}
	var tasks []models.Task
	if err := sonic.Unmarshal(b, &tasks); err != nil {
		return nil, persistErr("load", fmt.Errorf("decode tasks: %w", err))
	}
	return tasks, nil
}

// Save replaces the table value.
func (s *RedisStore) Save(ctx context.Context, tasks []models.Task) error {
	rows, err := Normalize(tasks)
	if err != nil {
		return persistErr("save", err)
	}
	if rows == nil {
		rows = []models.Task{}
	}
	b, err := sonic.Marshal(rows)
	if err != nil {
		return persistErr("save", err)
	}
	return persistErr("save", s.client.Set(ctx, s.key("tasks"), b, 0).Err())
}

// AppendArchive pushes entries onto the archive list in one pipeline.
func (s *RedisStore) AppendArchive(ctx context.Context, entries []models.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		b, err := sonic.Marshal(e)
		if err != nil {
			return persistErr("archive", err)
		}
		values = append(values, b)
	}
	return persistErr("archive", s.client.RPush(ctx, s.key("archive"), values...).Err())
}

// ListArchive returns archived entries, newest first.
func (s *RedisStore) ListArchive(ctx context.Context, owner string, limit int) ([]models.ArchiveEntry, error) {
	raw, err := s.client.LRange(ctx, s.key("archive"), 0, -1).Result()
	if err != nil {
		return nil, persistErr("history", err)
	}
	all := make([]models.ArchiveEntry, 0, len(raw))
	for _, r := range raw {
		var e models.ArchiveEntry
		if err := sonic.UnmarshalString(r, &e); err != nil {
			return nil, persistErr("history", fmt.Errorf("decode archive: %w", err))
		}
		all = append(all, e)
	}
	return filterArchive(all, owner, limit), nil
}

// AppendAudit pushes one entry onto the audit list.
func (s *RedisStore) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	b, err := sonic.Marshal(e)
	if err != nil {
		return persistErr("audit", err)
	}
	return persistErr("audit", s.client.RPush(ctx, s.key("audit"), b).Err())
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return persistErr("ping", s.client.Ping(ctx).Err())
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ TaskStore = (*RedisStore)(nil)
