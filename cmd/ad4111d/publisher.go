// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	latestKey      = "ad4111:latest"
	samplesChannel = "ad4111:samples"
)

// Publisher pushes readings into Redis - the latest value per slot as a
// hash field, and a pub/sub stream for live consumers.
type Publisher struct {
	client *redis.Client
	logger *Logger
}

func NewPublisher(host string, port int, l *Logger) *Publisher {
	return &Publisher{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", host, port),
			DB:   0,
		}),
		logger: l,
	}
}

func (p *Publisher) Connect(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	p.logger.Infof("Connected to Redis at %s", p.client.Options().Addr)
	return nil
}

func (p *Publisher) Publish(ctx context.Context, slot int, value int32) error {
	now := time.Now().UnixMilli()
	field := fmt.Sprintf("ch%d", slot)
	if err := p.client.HSet(ctx, latestKey, field, value,
		field+":ts", now).Err(); err != nil {
		return err
	}
	msg := fmt.Sprintf("%d:%d:%d", slot, value, now)
	return p.client.Publish(ctx, samplesChannel, msg).Err()
}

// PublishState records the acquisition state for observers.
func (p *Publisher) PublishState(ctx context.Context, state string) error {
	if err := p.client.HSet(ctx, latestKey, "state", state).Err(); err != nil {
		return err
	}
	return p.client.Publish(ctx, samplesChannel, "state:"+state).Err()
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
