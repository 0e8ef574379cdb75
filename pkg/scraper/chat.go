package scraper

import (
	"context"
	"fmt"
	"time"
)

// chatSource tags records produced by the chat-stream monitor.
const chatSource = "chat"

// ScrapeChat extracts new messages from an on-page chat stream without
// navigating: the caller is expected to already have the stream on screen.
// Chat markup carries no stable ids, so records are identified by content
// hash and deduplicated on that. Same degradation contract as
// ScrapeMentions: internal failures yield an empty slice.
func (s *Scraper) ScrapeChat(ctx context.Context) ([]ScrapedMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil
	}

	script := fmt.Sprintf(`() => Array.from(document.querySelectorAll(%q)).slice(-%d).map((el) => {
		const user = el.querySelector(%q);
		const text = el.querySelector(%q);
		return {
			author: user ? user.innerText : '',
			text: text ? text.innerText : (el.innerText || ''),
		};
	})`, s.sel.ChatMessage, structuralLimit, s.sel.ChatUsername, s.sel.ChatText)

	var raws []rawCandidate
	if err := s.drv.EvaluateInto(script, &raws); err != nil {
		s.log.Warnf("chat extraction failed: %v", err)
		return nil, nil
	}

	now := time.Now()
	messages := make([]ScrapedMessage, 0, len(raws))
	for i, raw := range raws {
		msg, ok := buildChatMessage(raw, i, now)
		if !ok {
			continue
		}
		if !s.cls.LooksLikeMessage(msg.Text) {
			continue
		}
		if s.chat.Seen(msg.ID) {
			continue
		}
		s.chat.Add(msg.ID)
		messages = append(messages, msg)
		if len(messages) == MaxPerScrape {
			break
		}
	}
	if len(messages) > 0 {
		s.log.Infof("chat scrape found %d new messages", len(messages))
	}
	return messages, nil
}

// buildChatMessage normalizes one chat candidate. Chat rows have no
// timestamps either; page order stands in so relative ordering holds.
func buildChatMessage(raw rawCandidate, index int, now time.Time) (ScrapedMessage, bool) {
	author := Author{Username: raw.Author}
	text := normalizeText(raw.Text, author)
	if text == "" {
		return ScrapedMessage{}, false
	}
	// Chat streams render oldest first, so later indexes get newer
	// synthetic timestamps.
	return ScrapedMessage{
		ID:        hashID(raw.Author, text),
		Username:  raw.Author,
		Text:      text,
		Timestamp: syntheticTimestamp(structuralLimit-index, now),
		Source:    chatSource,
	}, true
}
