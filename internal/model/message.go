package model

import (
	"errors"
	"time"
)

const (
	// DefaultPerPage is the timeline page size when none is given.
	DefaultPerPage = 30

	// MaxPerPage caps any requested timeline page size.
	MaxPerPage = 100

	// TimelineAvatarSize is the gravatar size shown next to each message.
	TimelineAvatarSize = 48

	// ProfileAvatarSize is the gravatar size used for a profile header.
	ProfileAvatarSize = 80

	pubDateLayout = "2006-01-02 @ 15:04"
)

// Message is an immutable post authored by a user.
type Message struct {
	ID       int64  `db:"message_id" json:"message_id"`
	AuthorID int64  `db:"author_id" json:"author_id"`
	Text     string `db:"text" json:"text"`
	PubDate  int64  `db:"pub_date" json:"pub_date"` // unix seconds
}

// TimelineEntry pairs a message with its author.
type TimelineEntry struct {
	Message Message
	Author  User
}

// UserTimeline is a profile feed together with the viewer's relation to it.
type UserTimeline struct {
	ProfileUser *User
	Followed    bool
	Entries     []TimelineEntry
}

// FormatPubDate renders a unix timestamp as UTC "YYYY-MM-DD @ HH:MM".
func FormatPubDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(pubDateLayout)
}

// MessageView is a timeline entry as returned over HTTP.
type MessageView struct {
	ID               int64     `json:"message_id"`
	Text             string    `json:"text"`
	PubDate          int64     `json:"pub_date"`
	PubDateFormatted string    `json:"pub_date_formatted"`
	Author           *UserView `json:"author"`
}

// TimelineResponse is the body of every timeline endpoint.
type TimelineResponse struct {
	Messages    []MessageView `json:"messages"`
	ProfileUser *UserView     `json:"profile_user,omitempty"`
	Followed    *bool         `json:"followed,omitempty"`
}

// NewTimelineResponse converts entries into their response shape.
func NewTimelineResponse(entries []TimelineEntry) *TimelineResponse {
	messages := make([]MessageView, len(entries))
	for i := range entries {
		e := &entries[i]
		messages[i] = MessageView{
			ID:               e.Message.ID,
			Text:             e.Message.Text,
			PubDate:          e.Message.PubDate,
			PubDateFormatted: FormatPubDate(e.Message.PubDate),
			Author:           NewUserView(&e.Author, TimelineAvatarSize),
		}
	}
	return &TimelineResponse{Messages: messages}
}

var ErrEmptyText = errors.New("message text is empty")
