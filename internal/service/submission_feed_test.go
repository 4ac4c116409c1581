package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/models"
)

func feedEvent(eventType, studentID, status string) dto.SubmissionEvent {
	return dto.SubmissionEvent{
		Type: eventType,
		Submission: dto.SubmissionResponse{
			ID:        studentID + "-" + status,
			StudentID: studentID,
			Status:    status,
		},
	}
}

func receive(t *testing.T, ch <-chan dto.SubmissionEvent) dto.SubmissionEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for submission event")
		return dto.SubmissionEvent{}
	}
}

func requireSilent(t *testing.T, ch <-chan dto.SubmissionEvent) {
	t.Helper()
	select {
	case event := <-ch:
		t.Fatalf("unexpected event %s for %s", event.Type, event.Submission.ID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubmissionFeedFilters(t *testing.T) {
	feed := NewSubmissionFeed(nil, "", nil, zerolog.Nop())

	all, cancelAll := feed.Subscribe(FeedFilter{})
	defer cancelAll()
	mine, cancelMine := feed.Subscribe(FeedFilter{StudentID: "student-1"})
	defer cancelMine()
	graded, cancelGraded := feed.Subscribe(FeedFilter{Status: models.SubmissionStatusGraded})
	defer cancelGraded()

	feed.Publish(context.Background(), feedEvent(dto.SubmissionEventCreated, "student-2", models.SubmissionStatusSubmitted))
	feed.Publish(context.Background(), feedEvent(dto.SubmissionEventGraded, "student-1", models.SubmissionStatusGraded))

	require.Equal(t, "student-2", receive(t, all).Submission.StudentID)
	require.Equal(t, "student-1", receive(t, all).Submission.StudentID)

	event := receive(t, mine)
	require.Equal(t, dto.SubmissionEventGraded, event.Type)
	requireSilent(t, mine)

	require.Equal(t, "student-1", receive(t, graded).Submission.StudentID)
	requireSilent(t, graded)
}

func TestSubmissionFeedCancelClosesChannel(t *testing.T) {
	feed := NewSubmissionFeed(nil, "", nil, zerolog.Nop())

	ch, cancel := feed.Subscribe(FeedFilter{})
	cancel()
	cancel()

	_, open := <-ch
	require.False(t, open)

	feed.Publish(context.Background(), feedEvent(dto.SubmissionEventCreated, "student-1", models.SubmissionStatusSubmitted))
}

func TestSubmissionFeedRedisFanOut(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeA := NewSubmissionFeed(redisClient, "notebook", nil, zerolog.Nop())
	nodeB := NewSubmissionFeed(redisClient, "notebook", nil, zerolog.Nop())
	nodeA.Start(ctx)
	nodeB.Start(ctx)

	require.Eventually(t, func() bool {
		return server.PubSubNumSub("notebook:submissions")["notebook:submissions"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	local, cancelLocal := nodeA.Subscribe(FeedFilter{})
	defer cancelLocal()
	remote, cancelRemote := nodeB.Subscribe(FeedFilter{StudentID: "student-1"})
	defer cancelRemote()

	nodeA.Publish(ctx, feedEvent(dto.SubmissionEventGraded, "student-1", models.SubmissionStatusGraded))

	event := receive(t, remote)
	require.Equal(t, dto.SubmissionEventGraded, event.Type)
	require.Equal(t, "student-1-graded", event.Submission.ID)

	require.Equal(t, "student-1-graded", receive(t, local).Submission.ID)
	requireSilent(t, local)
}
