package mongo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tutorhub/tutorhub/pkg/mongo"
)

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)

	_, err = mongo.NewWithDatabase(context.Background(), mongo.Config{Database: "x"})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}

func TestNew_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mongo.New(ctx, mongo.Config{ConnectionURL: "mongodb://127.0.0.1:1", RetryAttempts: 3})
	assert.ErrorIs(t, err, mongo.ErrFailedToConnectToMongo)
}
