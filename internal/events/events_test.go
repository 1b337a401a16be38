package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisherSendsJSON(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e Event
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Type != UserRegistered || e.UserID != "u1" || e.Attrs["provider"] != "google" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	p := NewKafkaPublisherFromProducer(mp, "userauth.events")
	err := p.Publish(context.Background(), New(UserRegistered, "u1", "a@example.com").With("provider", "google"))
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestKafkaPublisherPropagatesError(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	mp := mocks.NewSyncProducer(t, cfg)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaPublisherFromProducer(mp, "t")
	err := p.Publish(context.Background(), New(UserLoggedIn, "u1", ""))
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	require.NoError(t, p.Publish(context.Background(), New(UserLoggedOut, "u", "")))
	require.NoError(t, p.Close())
}
