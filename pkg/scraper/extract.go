package scraper

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// rawCandidate is one message-bearing element before normalization. Fields
// are best-effort: any of them may be empty when the markup withheld it.
type rawCandidate struct {
	Href   string `json:"href"`
	Time   string `json:"time"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

var (
	permalinkPattern = regexp.MustCompile(`/([A-Za-z0-9_]{1,15})/status/(\d+)`)
	durationLine     = regexp.MustCompile(`^\d+\s*[smhdw]$`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// parsePermalink extracts author username and message id from a status
// permalink path like "/someuser/status/1234567890".
func parsePermalink(href string) (username, id string, ok bool) {
	m := permalinkPattern.FindStringSubmatch(href)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// hashID derives a stable identifier for content the platform did not tag
// with one. Identical (username, text) pairs hash identically, which is
// what makes duplicate detection work without platform ids.
func hashID(username, text string) string {
	sum := sha1.Sum([]byte(username + "\x00" + text))
	return hex.EncodeToString(sum[:])[:16]
}

// normalizeText strips the leading author-name echo the rendered element
// carries (display name, handle, separator dot, relative timestamp), then
// collapses whitespace.
func normalizeText(text string, author Author) string {
	lines := strings.Split(text, "\n")

	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
		case line == "·":
		case author.Username != "" && strings.EqualFold(line, author.Username):
		case author.Username != "" && strings.EqualFold(line, "@"+author.Username):
		case author.DisplayName != "" && strings.EqualFold(line, author.DisplayName):
		case durationLine.MatchString(line):
		default:
			goto body
		}
	}
body:
	rest := strings.Join(lines[i:], " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(rest, " "))
}

// buildRecord turns one raw candidate into a Record. Each candidate may
// fail independently so one malformed element cannot abort the batch.
func buildRecord(raw rawCandidate, index int, base string, now time.Time) (Record, error) {
	author := Author{}
	username, platformID, hasPermalink := parsePermalink(raw.Href)
	if hasPermalink {
		author.Username = username
	} else if raw.Author != "" {
		author.Username = strings.TrimPrefix(strings.TrimSpace(raw.Author), "@")
	}

	text := normalizeText(raw.Text, author)
	if text == "" {
		return Record{}, fmt.Errorf("candidate %d has no message text", index)
	}

	id := platformID
	if id == "" {
		id = hashID(author.Username, text)
	}

	createdAt := syntheticTimestamp(index, now)
	if raw.Time != "" {
		if parsed, err := time.Parse(time.RFC3339, raw.Time); err == nil {
			createdAt = parsed
		}
	}

	rec := Record{
		ID:        id,
		Text:      text,
		Author:    author,
		CreatedAt: createdAt,
		SourceURL: sourceURL(raw.Href, base),
	}
	if hasPermalink {
		rec.ConversationID = platformID
	}
	return rec, nil
}

// syntheticTimestamp orders candidates by page position when the markup
// carries no time attribute: newest-first pages get descending timestamps.
func syntheticTimestamp(index int, now time.Time) time.Time {
	return now.Add(-time.Duration(index) * time.Second)
}

func sourceURL(href, base string) string {
	if href == "" {
		return base
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimSuffix(base, "/") + href
}

// fallbackExtract recovers candidates from raw page markup when structural
// extraction found nothing. It walks the HTML token stream collecting text
// blocks whose element carries the configured marker attribute, and pairs
// them with status permalinks in document order. Lower precision than the
// structural path, used only as last resort.
func fallbackExtract(markup, markerAttr, markerValue string) []rawCandidate {
	texts := markedTextBlocks(markup, markerAttr, markerValue)
	hrefs := permalinkPattern.FindAllString(markup, -1)

	candidates := make([]rawCandidate, 0, len(texts))
	for i, text := range texts {
		c := rawCandidate{Text: text}
		if i < len(hrefs) {
			c.Href = hrefs[i]
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// markedTextBlocks tokenizes markup and returns the text content of every
// element whose markerAttr equals markerValue.
func markedTextBlocks(markup, markerAttr, markerValue string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	var blocks []string
	var current strings.Builder
	depth := 0 // nesting depth inside a marked element, 0 = outside

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return blocks

		case html.StartTagToken:
			token := tokenizer.Token()
			if depth > 0 {
				depth++
				continue
			}
			for _, attr := range token.Attr {
				if attr.Key == markerAttr && attr.Val == markerValue {
					depth = 1
					current.Reset()
					break
				}
			}

		case html.EndTagToken:
			if depth > 0 {
				depth--
				if depth == 0 {
					if text := strings.TrimSpace(current.String()); text != "" {
						blocks = append(blocks, text)
					}
				}
			}

		case html.SelfClosingTagToken:
			// No depth change.

		case html.TextToken:
			if depth > 0 {
				current.WriteString(string(tokenizer.Text()))
			}
		}
	}
}
