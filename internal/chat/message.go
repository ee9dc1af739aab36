// Package chat holds the message model and the text-preparation steps that
// run before a conversation is handed to the summarizer.
package chat

import (
	"sort"
	"time"
)

// Message is one fetched Slack message. Only human messages with non-empty
// text are eligible; Eligible is the single place that rule lives.
type Message struct {
	Text      string
	UserID    string
	Timestamp float64
	IsBot     bool
}

func (m Message) Eligible() bool {
	return !m.IsBot && m.Text != ""
}

func (m Message) SentAt() time.Time {
	sec := int64(m.Timestamp)
	nsec := int64((m.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// SortByTimestamp orders messages chronologically ascending. Every transcript
// is built from a sorted sequence regardless of fetch order, so single- and
// multi-conversation digests behave the same.
func SortByTimestamp(msgs []Message) []Message {
	out := append([]Message(nil), msgs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

func UniqueUserCount(msgs []Message) int {
	seen := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if m.UserID == "" {
			continue
		}
		seen[m.UserID] = true
	}
	return len(seen)
}
