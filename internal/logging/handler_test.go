package logging_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldhq/shield-admin/internal/logging"
	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/store"
	"github.com/shieldhq/shield-admin/internal/testutil"
)

func newTestLogger(t *testing.T) (*slog.Logger, *store.Store) {
	t.Helper()
	records := testutil.TestStore(t)
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(logging.NewEventLogHandler(inner, records)), records
}

func listEvents(t *testing.T, records *store.Store) []model.Event {
	t.Helper()
	docs, err := records.List(context.Background(), model.CollectionEvents, store.OrderByCreatedDesc)
	require.NoError(t, err)
	events := make([]model.Event, 0, len(docs))
	for i := range docs {
		var e model.Event
		require.NoError(t, docs[i].Decode(&e))
		events = append(events, e)
	}
	return events
}

func TestEventLogHandler_ForwardsWarnAndAbove(t *testing.T) {
	logger, records := newTestLogger(t)

	logger.Info("routine startup")
	logger.Warn("record refresh failed", "collection", "feeds")
	logger.Error("forced sign-out failed")

	events := listEvents(t, records)
	require.Len(t, events, 2, "info stays out of the audit log")

	levels := []string{events[0].Level, events[1].Level}
	assert.Contains(t, levels, model.EventLevelWarning)
	assert.Contains(t, levels, model.EventLevelError)
}

func TestEventLogHandler_CategoryAttribute(t *testing.T) {
	logger, records := newTestLogger(t)

	logger.Warn("something odd", "category", model.EventCategoryUser)

	events := listEvents(t, records)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventCategoryUser, events[0].Category)
	assert.NotContains(t, events[0].Metadata, "category", "category attr is lifted out of metadata")
}

func TestEventLogHandler_InferredCategory(t *testing.T) {
	logger, records := newTestLogger(t)

	logger.Warn("unauthorized sign-in rejected")

	events := listEvents(t, records)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventCategoryAuth, events[0].Category)
}

func TestEventLogHandler_MetadataAttrs(t *testing.T) {
	logger, records := newTestLogger(t)

	logger.Error("delete failed", "collection", "wanteds", "id", "w-1")

	events := listEvents(t, records)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Metadata, `"collection":"wanteds"`)
	assert.Contains(t, events[0].Metadata, `"id":"w-1"`)
	assert.Equal(t, "delete failed", events[0].Message)
}
