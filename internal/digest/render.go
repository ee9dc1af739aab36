package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/fernwood/slackbrief/internal/chat"
)

const dateLayout = "2006-01-02"

// TimeRangeLabel renders the calendar span of a message set. Time of day is
// dropped; a set confined to one date yields that single date.
func TimeRangeLabel(msgs []chat.Message) string {
	if len(msgs) == 0 {
		return "No messages"
	}
	earliest := msgs[0].SentAt()
	latest := earliest
	for _, m := range msgs {
		at := m.SentAt()
		if at.Before(earliest) {
			earliest = at
		}
		if at.After(latest) {
			latest = at
		}
	}
	first := earliest.Format(dateLayout)
	last := latest.Format(dateLayout)
	if first == last {
		return first
	}
	return first + " - " + last
}

// Render composes the delivered summary block. Activity stats are computed
// over the full message set, not the transcript window.
func Render(msgs []chat.Message, aiSummary, label string, now time.Time) string {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "Conversation"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Chat Summary: %s*\n\n", label)
	fmt.Fprintf(&b, "*Messages analyzed:* %d (from %d users)\n", len(msgs), chat.UniqueUserCount(msgs))
	fmt.Fprintf(&b, "*Time range:* %s\n\n", TimeRangeLabel(msgs))
	b.WriteString(strings.TrimSpace(aiSummary))
	fmt.Fprintf(&b, "\n\n_Generated at %s_", now.UTC().Format("2006-01-02 15:04 UTC"))
	return b.String()
}
