// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statestore

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore is a production StateStore backed by github.com/redis/go-redis/v9.
type RedisStore struct {
	c   *redis.Client
	ctx context.Context
}

// NewRedisStore constructs a RedisStore against addr (e.g. "127.0.0.1:6379").
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		c:   redis.NewClient(&redis.Options{Addr: addr}),
		ctx: context.Background(),
	}
}

func (r *RedisStore) Save(key string, data []byte) error {
	return r.c.Set(r.ctx, key, data, 0).Err()
}

func (r *RedisStore) Load(key string) ([]byte, error) {
	b, err := r.c.Get(r.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return b, err
}
