package extract

import (
	"unicode"
	"unicode/utf8"
)

// IsEventName reports whether name follows the event handler convention:
// "on" followed by an upper-case letter. The test is case-sensitive.
func IsEventName(name string) bool {
	if len(name) < 3 || name[0] != 'o' || name[1] != 'n' {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name[2:])
	return unicode.IsUpper(r)
}

// ClassifyEvents returns the event view of props in their original order.
// props is not modified.
func ClassifyEvents(props []MemberRecord) []EventRecord {
	events := []EventRecord{}
	for _, p := range props {
		if IsEventName(p.Name) {
			events = append(events, EventRecord{Name: p.Name, Type: p.Type, Description: p.Description})
		}
	}
	return events
}

// EventsAsMembers turns events back into member records so a classified
// list can be classified again. Required and Default are not part of the
// event view and come back zero.
func EventsAsMembers(events []EventRecord) []MemberRecord {
	out := make([]MemberRecord, 0, len(events))
	for _, e := range events {
		out = append(out, MemberRecord{Name: e.Name, Type: e.Type, Description: e.Description})
	}
	return out
}
