// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mongo provides a managed MongoDB client for the user directory.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It owns the physical
// connection pool; repositories receive a [*mongo.Database] handle.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/taibuivan/aula/internal/platform/constants"
)

// Opinionated client settings for the login workload.
const (
	// maxPoolSize is the maximum number of connections per server.
	maxPoolSize = 20
	// serverSelectionTimeout bounds how long an operation waits for a usable server.
	serverSelectionTimeout = 5 * time.Second
	// connectAttempts is how many times the initial connect+ping is tried.
	connectAttempts = 3
	// retryBackoff is the pause between connection attempts.
	retryBackoff = 500 * time.Millisecond
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
)

// NewClient connects to MongoDB and verifies the primary is reachable.
//
// # Parameters
//   - ctx: Context for the initial connection attempts.
//   - uri: A mongodb:// or mongodb+srv:// connection string.
//   - logger: Structured logger for client-level events.
func NewClient(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName(constants.AppName).
		SetMaxPoolSize(maxPoolSize).
		SetServerSelectionTimeout(serverSelectionTimeout)

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("mongo: invalid URI: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := connect(ctx, opts)
		if err == nil {
			logger.Info("mongo client connected",
				slog.Int("attempt", attempt),
				slog.Int("max_pool_size", maxPoolSize),
			)
			return client, nil
		}

		lastErr = err
		logger.Warn("mongo_connect_retry", slog.Int("attempt", attempt), slog.Any("error", err))

		if attempt == connectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("mongo: failed to connect: %w", errors.Join(lastErr, ctx.Err()))
		case <-time.After(retryBackoff):
		}
	}

	return nil, fmt.Errorf("mongo: failed to connect: %w", lastErr)
}

func connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := Ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

// Ping verifies that the deployment's primary answers.
func Ping(ctx context.Context, client *mongo.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo: ping failed: %w", err)
	}

	return nil
}
