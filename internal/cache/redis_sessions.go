// Package cache holds Redis-backed implementations of platform stores.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/taskmanager/internal/models"
	"github.com/isdelr/taskmanager/internal/services"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "taskmanager:session:"
	expiryIndexKey   = "taskmanager:sessions:expiry"
)

type sessionRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
	RevokedAt *int64 `json:"revokedAt,omitempty"`
}

// RedisSessionStore keeps session records in Redis. Each record expires with
// its session; a sorted set indexed by expiry lets PurgeExpired report which
// live sessions ran out.
type RedisSessionStore struct {
	rdb *redis.Client
}

var _ services.SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a new RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func indexMember(id, userID string) string { return id + ":" + userID }

// Create stores the session with a TTL matching its expiry.
func (s *RedisSessionStore) Create(ctx context.Context, session models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	data, err := json.Marshal(sessionRecord{
		ID:        session.ID,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt.Unix(),
		ExpiresAt: session.ExpiresAt.Unix(),
	})
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, ttl)
	pipe.ZAdd(ctx, expiryIndexKey, redis.Z{
		Score:  float64(session.ExpiresAt.Unix()),
		Member: indexMember(session.ID, session.UserID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get returns the session with the given ID, or nil if none exists.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	session := &models.Session{
		ID:        rec.ID,
		UserID:    rec.UserID,
		CreatedAt: time.Unix(rec.CreatedAt, 0),
		ExpiresAt: time.Unix(rec.ExpiresAt, 0),
	}
	if rec.RevokedAt != nil {
		t := time.Unix(*rec.RevokedAt, 0)
		session.RevokedAt = &t
	}
	return session, nil
}

// Revoke drops the session record and its index entry.
func (s *RedisSessionStore) Revoke(ctx context.Context, id string, _ time.Time) error {
	session, err := s.Get(ctx, id)
	if err != nil || session == nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.ZRem(ctx, expiryIndexKey, indexMember(id, session.UserID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// PurgeExpired pops index entries whose expiry has passed. The records
// themselves are already gone through their TTL.
func (s *RedisSessionStore) PurgeExpired(ctx context.Context, now time.Time) ([]models.Session, error) {
	max := strconv.FormatInt(now.Unix(), 10)
	members, err := s.rdb.ZRangeByScoreWithScores(ctx, expiryIndexKey, &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan session index: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	expired := make([]models.Session, 0, len(members))
	toRemove := make([]interface{}, 0, len(members))
	for _, z := range members {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		toRemove = append(toRemove, member)
		id, userID, found := strings.Cut(member, ":")
		if !found {
			continue
		}
		s.rdb.Del(ctx, sessionKey(id))
		expired = append(expired, models.Session{
			ID:        id,
			UserID:    userID,
			ExpiresAt: time.Unix(int64(z.Score), 0),
		})
	}
	if err := s.rdb.ZRem(ctx, expiryIndexKey, toRemove...).Err(); err != nil {
		return nil, fmt.Errorf("trim session index: %w", err)
	}
	return expired, nil
}
