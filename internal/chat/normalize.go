package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minNormalizedRunes is the cutoff below which a cleaned message carries no
// signal worth summarizing.
const minNormalizedRunes = 5

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)
	channelPattern = regexp.MustCompile(`<#[A-Z0-9]+\|([^>]+)>`)
	// Shortcodes only: lowercase letters and underscores between colons.
	// Text emoticons like :) do not match and survive.
	emojiPattern      = regexp.MustCompile(`:[a-z_]+:`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize cleans one raw message for transcript use. The transformation
// order is fixed: URLs, then user mentions, then channel mentions, then emoji
// shortcodes, then whitespace collapse. Later patterns assume earlier ones
// already collapsed their targets. Returns ok=false when the cleaned text is
// too short to be informative.
func Normalize(raw string) (string, bool) {
	cleaned := urlPattern.ReplaceAllString(raw, "[URL]")
	cleaned = mentionPattern.ReplaceAllString(cleaned, "@user")
	cleaned = channelPattern.ReplaceAllString(cleaned, "#$1")
	cleaned = emojiPattern.ReplaceAllString(cleaned, "")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if utf8.RuneCountInString(cleaned) <= minNormalizedRunes {
		return "", false
	}
	return cleaned, true
}
