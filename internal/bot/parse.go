package bot

import (
	"regexp"
	"strings"
)

var channelMentionRe = regexp.MustCompile(`<#(\d+)>`)

// ParseChannelMention extracts the first channel mention from message
// content.
func ParseChannelMention(content string) (string, bool) {
	m := channelMentionRe.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseYouTubeRef extracts a YouTube channel reference from message
// content. Any youtube.com or youtu.be URL is accepted here; actual
// resolution decides whether it names a real channel.
func ParseYouTubeRef(content string) (string, bool) {
	ref := strings.TrimSpace(content)
	if !strings.Contains(ref, "youtube.com") && !strings.Contains(ref, "youtu.be") {
		return "", false
	}
	return ref, true
}

// ParseContentChoice maps the content-type step's answer to the
// include-shorts flag: "1" is videos only, "2" is videos and shorts.
func ParseContentChoice(content string) (includeShorts, ok bool) {
	switch strings.TrimSpace(content) {
	case "1":
		return false, true
	case "2":
		return true, true
	}
	return false, false
}
