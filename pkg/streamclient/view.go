package streamclient

import (
	"sort"
	"sync"
)

// Thread is one conversation summary as shown in the sidebar.
type Thread struct {
	ChatID               string
	Name                 string
	LastMessageTimestamp int64
	PreviewText          string
	AvatarRef            string
}

// ThreadSet is the authoritative per-client view of all known conversations.
// The set is unordered; Sorted produces the display order at read time
// instead of maintaining it incrementally.
type ThreadSet struct {
	mu      sync.Mutex
	threads map[string]Thread
}

// NewThreadSet creates an empty conversation view.
func NewThreadSet() *ThreadSet {
	return &ThreadSet{threads: make(map[string]Thread)}
}

// Upsert records a newer message for a conversation, creating the thread on
// first sight. Stale updates (older than the recorded last message) only fill
// gaps, they never move the thread.
func (ts *ThreadSet) Upsert(chatID, name string, timestamp int64, preview, avatarRef string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	existing, ok := ts.threads[chatID]
	if !ok {
		ts.threads[chatID] = Thread{
			ChatID:               chatID,
			Name:                 name,
			LastMessageTimestamp: timestamp,
			PreviewText:          preview,
			AvatarRef:            avatarRef,
		}
		return
	}

	if name != "" {
		existing.Name = name
	}
	if avatarRef != "" {
		existing.AvatarRef = avatarRef
	}
	if timestamp >= existing.LastMessageTimestamp {
		existing.LastMessageTimestamp = timestamp
		existing.PreviewText = preview
	}
	ts.threads[chatID] = existing
}

// Get returns the thread for chatID and whether it exists.
func (ts *ThreadSet) Get(chatID string) (Thread, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.threads[chatID]
	return t, ok
}

// Len returns the number of known conversations.
func (ts *ThreadSet) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.threads)
}

// Sorted returns all threads ordered by last message timestamp, newest first.
func (ts *ThreadSet) Sorted() []Thread {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	out := make([]Thread, 0, len(ts.threads))
	for _, t := range ts.threads {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageTimestamp > out[j].LastMessageTimestamp
	})
	return out
}

// nearBottomThreshold is how close to the bottom edge, in pixels, the
// viewport may sit and still count as "following the conversation".
const nearBottomThreshold = 60

// Viewport models the scroll geometry of the open transcript.
type Viewport struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
}

// NearBottom reports whether the viewport is within the follow threshold of
// the bottom edge.
func (v Viewport) NearBottom() bool {
	return v.ScrollHeight-v.ScrollTop-v.ClientHeight < nearBottomThreshold
}

// Transcript is the visible message list of the currently open conversation
// plus its scroll anchor.
type Transcript struct {
	ChatID   string
	Messages []TranscriptMessage
	View     Viewport
}

// TranscriptMessage is one rendered bubble.
type TranscriptMessage struct {
	ID        string
	FromMe    bool
	Body      string
	Timestamp int64
	Type      string
	HasMedia  bool
}

// Append adds a message to the transcript while preserving the user's
// reading position: a viewer near the bottom follows the new message, anyone
// scrolled up stays put by compensating for the height change.
func (t *Transcript) Append(msg TranscriptMessage, addedHeight float64) {
	wasNearBottom := t.View.NearBottom()
	prevBottomOffset := t.View.ScrollHeight - t.View.ScrollTop

	t.Messages = append(t.Messages, msg)
	t.View.ScrollHeight += addedHeight

	if wasNearBottom {
		t.View.ScrollTop = t.View.ScrollHeight - t.View.ClientHeight
		if t.View.ScrollTop < 0 {
			t.View.ScrollTop = 0
		}
		return
	}

	t.View.ScrollTop = t.View.ScrollHeight - prevBottomOffset
	if t.View.ScrollTop < 0 {
		t.View.ScrollTop = 0
	}
}

// previewFor condenses a message into the sidebar preview line.
func previewFor(msgType, body string) string {
	switch msgType {
	case "chat":
		return body
	case "image":
		return "[imagem]"
	case "audio", "ptt":
		return "[áudio]"
	default:
		return "[" + msgType + "]"
	}
}
