package cursorstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

var redisCursorPrefix string = "cursor/"

type RedisCursorStore struct {
	Client *redis.Client
}

func NewRedisCursorStore(redisURL string) (*RedisCursorStore, error) {
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
	return &RedisCursorStore{Client: rdb}, nil
}

func (s *RedisCursorStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.Client.Get(ctx, redisCursorPrefix+key).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisCursorStore) Set(ctx context.Context, key, val string) error {
	return s.Client.Set(ctx, redisCursorPrefix+key, val, 0).Err()
}
