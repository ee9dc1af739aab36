package chat

import (
	"strings"
)

// TranscriptWindow caps how many of the most recent messages make it into a
// transcript, keeping the prompt inside the model's input budget.
const TranscriptWindow = 50

const unknownUserName = "Unknown User"

// NameResolver maps a user ID to a display name. A failed lookup degrades to
// "Unknown User" instead of failing the transcript.
type NameResolver func(userID string) (string, error)

// FormatTranscript renders the most recent TranscriptWindow messages as
// newline-joined "DisplayName: text" lines. Messages whose text normalizes
// away contribute nothing. An empty transcript is a valid result; callers
// must check for it before invoking the summarizer.
func FormatTranscript(msgs []Message, resolve NameResolver) string {
	sorted := SortByTimestamp(msgs)
	if len(sorted) > TranscriptWindow {
		sorted = sorted[len(sorted)-TranscriptWindow:]
	}
	lines := make([]string, 0, len(sorted))
	for _, m := range sorted {
		text, ok := Normalize(m.Text)
		if !ok {
			continue
		}
		lines = append(lines, displayName(m.UserID, resolve)+": "+text)
	}
	return strings.Join(lines, "\n")
}

func displayName(userID string, resolve NameResolver) string {
	if resolve == nil {
		return unknownUserName
	}
	name, err := resolve(userID)
	if err != nil {
		return unknownUserName
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return unknownUserName
	}
	return name
}
