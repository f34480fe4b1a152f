package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solicitudes/internal/platform/config"
)

func TestNewWithoutBrokersDisablesPublishing(t *testing.T) {
	client, err := New(context.Background(), config.KafkaConfig{Topic: "solicitudes.events"})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewFailsWhenNoBrokerAnswers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}, Topic: "solicitudes.events"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka ping failed")
}
