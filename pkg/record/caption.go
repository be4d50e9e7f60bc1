package record

import (
	"regexp"
	"strings"
)

var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern = regexp.MustCompile(`@([A-Za-z0-9._]+)`)
)

// Hashtags returns the #tags found in a caption, in order of first
// occurrence, without the # prefix.
func Hashtags(caption string) []string {
	return extractTags(hashtagPattern, caption)
}

// Mentions returns the @handles found in a caption, in order of first
// occurrence, without the @ prefix.
func Mentions(caption string) []string {
	return extractTags(mentionPattern, caption)
}

func extractTags(pattern *regexp.Regexp, text string) []string {
	matches := pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, match := range matches {
		// Usernames never end with a dot; a trailing dot is sentence
		// punctuation the pattern swallowed.
		tag := strings.TrimRight(match[1], ".")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
