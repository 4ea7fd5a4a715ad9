package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeMetadataProvider struct {
	getMetadataFunc func(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
}

func (f *fakeMetadataProvider) GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error) {
	return f.getMetadataFunc(topic, allTopics, timeoutMs)
}

func brokersUp() *fakeMetadataProvider {
	return &fakeMetadataProvider{
		getMetadataFunc: func(*string, bool, int) (*kafka.Metadata, error) {
			return &kafka.Metadata{Brokers: []kafka.BrokerMetadata{{ID: 1}}}, nil
		},
	}
}

func brokersDown() *fakeMetadataProvider {
	return &fakeMetadataProvider{
		getMetadataFunc: func(*string, bool, int) (*kafka.Metadata, error) {
			return nil, errors.New("no brokers")
		},
	}
}

func TestWaitForBrokers(t *testing.T) {
	t.Run("returns nil when brokers are available", func(t *testing.T) {
		err := waitForBrokers(context.Background(), brokersUp(), zap.NewNop(), 5, true)

		assert.NoError(t, err)
	})

	t.Run("fails on timeout when failure is fatal", func(t *testing.T) {
		err := waitForBrokers(context.Background(), brokersDown(), zap.NewNop(), 1, true)

		assert.Error(t, err)
	})

	t.Run("continues on timeout when failure is tolerated", func(t *testing.T) {
		err := waitForBrokers(context.Background(), brokersDown(), zap.NewNop(), 1, false)

		assert.NoError(t, err)
	})
}

func TestPollBrokers(t *testing.T) {
	t.Run("returns nil when brokers found", func(t *testing.T) {
		err := pollBrokers(context.Background(), brokersUp())

		assert.NoError(t, err)
	})

	t.Run("keeps polling until brokers appear", func(t *testing.T) {
		callCount := 0
		provider := &fakeMetadataProvider{
			getMetadataFunc: func(*string, bool, int) (*kafka.Metadata, error) {
				callCount++
				if callCount < 3 {
					return nil, errors.New("no brokers")
				}
				return &kafka.Metadata{Brokers: []kafka.BrokerMetadata{{ID: 1}}}, nil
			},
		}

		err := pollBrokers(context.Background(), provider)

		assert.NoError(t, err)
		assert.Equal(t, 3, callCount)
	})

	t.Run("treats empty broker lists as not ready", func(t *testing.T) {
		callCount := 0
		provider := &fakeMetadataProvider{
			getMetadataFunc: func(*string, bool, int) (*kafka.Metadata, error) {
				callCount++
				if callCount < 2 {
					return &kafka.Metadata{Brokers: []kafka.BrokerMetadata{}}, nil
				}
				return &kafka.Metadata{Brokers: []kafka.BrokerMetadata{{ID: 1}}}, nil
			},
		}

		err := pollBrokers(context.Background(), provider)

		assert.NoError(t, err)
		assert.Equal(t, 2, callCount)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := pollBrokers(ctx, brokersDown())

		assert.Error(t, err)
	})
}
