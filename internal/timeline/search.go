package timeline

import (
	"strings"

	"github.com/TymekV/simple-chat/internal/domain"
)

// SearchFilter narrows grouped messages by sender and/or a
// case-insensitive content substring. Zero values match everything.
type SearchFilter struct {
	Query    string
	SenderID string
}

// SearchGroups filters display groups: a group survives when its sender
// passes the sender filter and at least one of its messages matches the
// query. Matching groups are returned whole, in their original order.
func SearchGroups(groups []MessageGroup, f SearchFilter) []MessageGroup {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var out []MessageGroup
	for _, g := range groups {
		if f.SenderID != "" && g.SenderID != f.SenderID {
			continue
		}
		if query == "" || groupMatches(g, query) {
			out = append(out, g)
		}
	}
	return out
}

func groupMatches(g MessageGroup, query string) bool {
	for _, ev := range g.Messages {
		if strings.Contains(strings.ToLower(messageText(ev)), query) {
			return true
		}
	}
	return false
}

func messageText(ev domain.RoomEvent) string {
	switch {
	case ev.Data.Message != nil:
		return ev.Data.Message.Content
	case ev.Data.Image != nil:
		return ev.Data.Image.Filename
	}
	return ""
}
