package chat

import (
	"regexp"
	"strings"
)

// Agent tags form a closed vocabulary. TagTeam is the generic default when
// no specialist marker is present; TagError marks a failed model call.
const (
	TagTech   = "TECH"
	TagData   = "DATA"
	TagDocs   = "DOCS"
	TagMemory = "MEMORY"
	TagTeam   = "TEAM"
	TagError  = "ERROR"
)

var knownTags = map[string]bool{
	TagTech:   true,
	TagData:   true,
	TagDocs:   true,
	TagMemory: true,
	TagTeam:   true,
	TagError:  true,
}

var tagPattern = regexp.MustCompile(`\[\[([A-Z]+)\]\]`)

// ExtractAgentTag finds the first known [[TAG]] marker in raw text, removes
// it, and returns the tag with the cleaned text. Unknown markers are left in
// place. Without any known marker the tag defaults to TEAM and the text is
// returned unchanged.
func ExtractAgentTag(raw string) (string, string) {
	matches := tagPattern.FindAllStringSubmatchIndex(raw, -1)
	for _, match := range matches {
		name := raw[match[2]:match[3]]
		if !knownTags[name] {
			continue
		}
		cleaned := raw[:match[0]] + raw[match[1]:]
		return name, strings.TrimSpace(cleaned)
	}
	return TagTeam, raw
}
