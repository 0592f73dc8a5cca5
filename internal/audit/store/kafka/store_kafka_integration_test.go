//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"securitysvc/internal/audit"
	"securitysvc/pkg/testutil/containers"
)

type KafkaStoreSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaStoreSuite(t *testing.T) {
	suite.Run(t, new(KafkaStoreSuite))
}

func (s *KafkaStoreSuite) SetupSuite() {
	s.brokers = containers.NewRedpandaContainer(s.T()).Brokers
}

func (s *KafkaStoreSuite) TestAppendProducesKeyedRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := New(s.brokers, "security-changes-test")
	s.Require().NoError(err)
	defer store.Close()
	s.Require().NoError(store.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(store.EnsureTopic(ctx, 1, 1), "second call tolerates an existing topic")

	event := audit.Event{
		Action:     audit.ActionSecurityCreated,
		EntityType: audit.EntitySecurity,
		EntityID:   "0b4c3e4a-1d2f-4d8e-9f3a-5a6b7c8d9e0f",
		Version:    1,
		RequestID:  "req-1",
		Timestamp:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s.Require().NoError(store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics("security-changes-test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())

	var got []*kgo.Record
	fetches.EachRecord(func(r *kgo.Record) { got = append(got, r) })
	s.Require().Len(got, 1)
	s.Equal(event.EntityID, string(got[0].Key))

	var decoded audit.Event
	require.NoError(s.T(), json.Unmarshal(got[0].Value, &decoded))
	s.Equal(event, decoded)
}
