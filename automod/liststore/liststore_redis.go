package liststore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

var redisListPrefix string = "list/"

type RedisListStore struct {
	Client *redis.Client
}

func NewRedisListStore(redisURL string) (*RedisListStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisListStore{Client: rdb}, nil
}

func (s *RedisListStore) Contains(ctx context.Context, list, username string) (bool, error) {
	return s.Client.SIsMember(ctx, redisListPrefix+list, username).Result()
}

func (s *RedisListStore) Add(ctx context.Context, list, username string) error {
	return s.Client.SAdd(ctx, redisListPrefix+list, username).Err()
}

func (s *RedisListStore) Remove(ctx context.Context, list, username string) error {
	return s.Client.SRem(ctx, redisListPrefix+list, username).Err()
}

func (s *RedisListStore) Members(ctx context.Context, list string) ([]string, error) {
	members, err := s.Client.SMembers(ctx, redisListPrefix+list).Result()
	if err == redis.Nil {
		return []string{}, nil
	} else if err != nil {
		return nil, err
	}
	return members, nil
}

func (s *RedisListStore) Clear(ctx context.Context, list string) error {
	return s.Client.Del(ctx, redisListPrefix+list).Err()
}
