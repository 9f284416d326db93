//go:build integration

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNatsURL string

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "nats",
		Tag:        "2.9",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start NATS resource: %s", err)
	}
	testNatsURL = fmt.Sprintf("nats://%s", resource.GetHostPort("4222/tcp"))

	if err := pool.Retry(func() error {
		nc, errRetry := nats.Connect(testNatsURL)
		if errRetry != nil {
			return errRetry
		}
		nc.Close()
		return nil
	}); err != nil {
		log.Fatalf("Could not connect to NATS: %s", err)
	}

	code := m.Run()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge NATS resource: %s", err)
	}
	os.Exit(code)
}

func TestPublisher_PublishesLifecycleEvents(t *testing.T) {
	sub, err := nats.Connect(testNatsURL)
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 4)
	s, err := sub.ChanSubscribe("user.>", msgs)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	pub, err := NewPublisher(testNatsURL, logger.NewNop(), "account-service-test")
	require.NoError(t, err)
	defer pub.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, pub.PublishUserRegistered(context.Background(), UserRegistered{UserID: "u1", Email: "ann@x.com", Name: "Ann", OccurredAt: now}))
	require.NoError(t, pub.PublishPasswordReset(context.Background(), PasswordReset{UserID: "u1", OccurredAt: now}))

	got := map[string][]byte{}
	for len(got) < 2 {
		select {
		case m := <-msgs:
			got[m.Subject] = m.Data
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}

	var registered UserRegistered
	require.NoError(t, json.Unmarshal(got[SubjectUserRegistered], &registered))
	assert.Equal(t, "ann@x.com", registered.Email)
	assert.True(t, now.Equal(registered.OccurredAt))

	var reset PasswordReset
	require.NoError(t, json.Unmarshal(got[SubjectPasswordReset], &reset))
	assert.Equal(t, "u1", reset.UserID)
}
