// Package database bootstraps the MongoDB client used by the repositories.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stencild/stencild/pkg/logger"
)

// Retry knobs, overridable in tests.
var (
	connectAttempts = 5
	initialBackoff  = time.Second
)

// Connect dials MongoDB and verifies the connection with a ping, retrying
// with exponential backoff to ride out startup races with the database
// container. The caller owns client.Disconnect.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := dial(ctx, uri, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("mongodb connect attempt %d/%d failed: %v", attempt, connectAttempts, err)
		if attempt < connectAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("mongodb unreachable after %d attempts: %w", connectAttempts, lastErr)
}

func dial(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return client, nil
}
