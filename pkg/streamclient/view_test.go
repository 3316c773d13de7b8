package streamclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadSetSortedNewestFirst(t *testing.T) {
	ts := NewThreadSet()
	ts.Upsert("a@c.us", "Ana", 100, "oi", "")
	ts.Upsert("b@c.us", "Bruno", 300, "tudo bem", "")
	ts.Upsert("c@c.us", "Carla", 200, "ok", "")

	sorted := ts.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, "b@c.us", sorted[0].ChatID)
	assert.Equal(t, "c@c.us", sorted[1].ChatID)
	assert.Equal(t, "a@c.us", sorted[2].ChatID)
}

func TestThreadSetNewerMessageMovesThread(t *testing.T) {
	ts := NewThreadSet()
	ts.Upsert("a@c.us", "Ana", 100, "old", "")
	ts.Upsert("a@c.us", "Ana", 200, "new", "")

	thread, ok := ts.Get("a@c.us")
	require.True(t, ok)
	assert.Equal(t, int64(200), thread.LastMessageTimestamp)
	assert.Equal(t, "new", thread.PreviewText)
	assert.Equal(t, 1, ts.Len())
}

func TestThreadSetStaleUpdateOnlyFillsGaps(t *testing.T) {
	ts := NewThreadSet()
	ts.Upsert("a@c.us", "", 200, "current", "")
	ts.Upsert("a@c.us", "Ana", 100, "old", "avatar.jpg")

	thread, ok := ts.Get("a@c.us")
	require.True(t, ok)
	assert.Equal(t, int64(200), thread.LastMessageTimestamp, "stale update must not move the thread")
	assert.Equal(t, "current", thread.PreviewText)
	assert.Equal(t, "Ana", thread.Name, "name gap is filled")
	assert.Equal(t, "avatar.jpg", thread.AvatarRef, "avatar gap is filled")
}

func TestThreadSetEqualTimestampRefreshesPreview(t *testing.T) {
	ts := NewThreadSet()
	ts.Upsert("a@c.us", "Ana", 100, "first", "")
	ts.Upsert("a@c.us", "Ana", 100, "edited", "")

	thread, _ := ts.Get("a@c.us")
	assert.Equal(t, "edited", thread.PreviewText)
}

func TestViewportNearBottom(t *testing.T) {
	tests := []struct {
		name string
		view Viewport
		want bool
	}{
		{"pinned to bottom", Viewport{ScrollTop: 400, ScrollHeight: 1000, ClientHeight: 600}, true},
		{"just inside threshold", Viewport{ScrollTop: 341, ScrollHeight: 1000, ClientHeight: 600}, true},
		{"exactly at threshold", Viewport{ScrollTop: 340, ScrollHeight: 1000, ClientHeight: 600}, false},
		{"scrolled up", Viewport{ScrollTop: 0, ScrollHeight: 1000, ClientHeight: 600}, false},
		{"content shorter than viewport", Viewport{ScrollTop: 0, ScrollHeight: 300, ClientHeight: 600}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.view.NearBottom())
		})
	}
}

func TestTranscriptAppendFollowsWhenNearBottom(t *testing.T) {
	tr := &Transcript{
		ChatID: "a@c.us",
		View:   Viewport{ScrollTop: 400, ScrollHeight: 1000, ClientHeight: 600},
	}

	tr.Append(TranscriptMessage{ID: "m1", Body: "oi"}, 50)

	require.Len(t, tr.Messages, 1)
	assert.Equal(t, float64(1050), tr.View.ScrollHeight)
	assert.Equal(t, float64(450), tr.View.ScrollTop, "viewer follows the new message")
}

func TestTranscriptAppendPreservesPositionWhenScrolledUp(t *testing.T) {
	tr := &Transcript{
		ChatID: "a@c.us",
		View:   Viewport{ScrollTop: 100, ScrollHeight: 1000, ClientHeight: 600},
	}

	tr.Append(TranscriptMessage{ID: "m1", Body: "oi"}, 50)

	// Distance from the bottom edge stays constant, so the same content
	// remains on screen.
	assert.Equal(t, float64(1050), tr.View.ScrollHeight)
	assert.Equal(t, float64(150), tr.View.ScrollTop)
	assert.Equal(t, float64(900), tr.View.ScrollHeight-tr.View.ScrollTop)
}

func TestTranscriptAppendClampsScrollTop(t *testing.T) {
	tr := &Transcript{
		ChatID: "a@c.us",
		View:   Viewport{ScrollTop: 0, ScrollHeight: 100, ClientHeight: 600},
	}

	tr.Append(TranscriptMessage{ID: "m1", Body: "oi"}, 50)
	assert.Equal(t, float64(0), tr.View.ScrollTop)
}

func TestPreviewFor(t *testing.T) {
	assert.Equal(t, "bom dia", previewFor("chat", "bom dia"))
	assert.Equal(t, "[imagem]", previewFor("image", ""))
	assert.Equal(t, "[áudio]", previewFor("audio", ""))
	assert.Equal(t, "[áudio]", previewFor("ptt", ""))
	assert.Equal(t, "[sticker]", previewFor("sticker", ""))
}
