package scraper

import "time"

// Author identifies who wrote a mention.
type Author struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
}

// Record is one extracted mention. ID is the platform-assigned identifier
// when the markup carries one, else a stable hash of text and author; it is
// unique within a monitoring session and never reprocessed once seen.
type Record struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Author         Author    `json:"author"`
	CreatedAt      time.Time `json:"createdAt"`
	ConversationID string    `json:"conversationId,omitempty"`
	SourceURL      string    `json:"sourceUrl"`
}

// ScrapedMessage is the chat-stream variant: the platform provides no
// stable id there, so ID is a content hash that is identical for identical
// (username, text) pairs within one scrape.
type ScrapedMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}
