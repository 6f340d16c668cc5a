package models

import (
	"time"
)

// MessageTimeLayout renders e.g. "05 Mar 2024, 17:04:09".
const MessageTimeLayout = "02 Jan 2006, 15:04:05"

// FormatMessageTime returns the human-readable timestamp shown next to a message.
// A nil location means UTC.
func FormatMessageTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(MessageTimeLayout)
}
