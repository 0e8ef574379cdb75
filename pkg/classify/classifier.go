// Package classify decides whether scraped text is a genuine conversational
// message worth reacting to, as opposed to UI chrome, tickers, timestamps,
// and other page noise. The design is deliberately asymmetric: a strict
// denylist plus a required allowlist match biases toward precision, since
// replying to UI noise is worse than missing a borderline message.
package classify

import (
	"regexp"
	"strings"
)

// Length bounds for a plausible message.
const (
	minLength = 3
	maxLength = 500
)

// Classifier holds the rule sets. Both lists drift with the target content
// over time, so they are extensible through the With* options.
type Classifier struct {
	denyPhrases  []string
	denyPatterns []*regexp.Regexp
	signalWords  map[string]struct{}
}

// Option extends a classifier's rule sets.
type Option func(*Classifier)

// WithDenyPhrases appends lowercase phrases whose presence rejects text.
func WithDenyPhrases(phrases ...string) Option {
	return func(c *Classifier) {
		c.denyPhrases = append(c.denyPhrases, phrases...)
	}
}

// WithDenyPatterns appends regexes that reject the whole trimmed text.
func WithDenyPatterns(patterns ...*regexp.Regexp) Option {
	return func(c *Classifier) {
		c.denyPatterns = append(c.denyPatterns, patterns...)
	}
}

// WithSignalWords appends lowercase words that count as conversational
// signals toward acceptance.
func WithSignalWords(words ...string) Option {
	return func(c *Classifier) {
		for _, w := range words {
			c.signalWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

var defaultDenyPatterns = []*regexp.Regexp{
	// Prices, tickers, percentages: "$0.0032", "+12.5%", "0.0042 SOL".
	regexp.MustCompile(`^[+-]?\$?\d[\d.,]*\s*(%|[A-Z]{2,5})?$`),
	// Purely numeric or symbolic content.
	regexp.MustCompile(`^[\d\s\p{P}\p{S}]+$`),
	// Relative timestamps rendered as text: "2h", "15m", "3d ago".
	regexp.MustCompile(`^\d+\s*[smhdw](\s*ago)?$`),
	// Bare domains and URLs: "pump.fun", "example.com/x".
	regexp.MustCompile(`^\S+\.(com|net|org|io|fun|xyz|app|gg)(/\S*)?$`),
	// Short alphanumeric codes (mint addresses, hashes, coupon strings).
	regexp.MustCompile(`^[A-Za-z0-9]{6,}$`),
	// Raw markup fragments.
	regexp.MustCompile(`<[a-zA-Z/][^>]*>`),
}

var defaultDenyPhrases = []string{
	"show more", "show replies", "see more", "load more", "loading",
	"log in", "sign up", "sign in", "follow", "following", "followers",
	"home", "explore", "notifications", "messages", "bookmarks", "profile",
	"trending", "who to follow", "promoted", "ad ·", "copyright", "©",
	"all rights reserved", "terms of service", "privacy policy",
	"market cap", "volume 24h", "liquidity",
}

var defaultSignalWords = []string{
	// Interjections and address terms.
	"lfg", "gm", "gn", "lol", "lmao", "wow", "hey", "yo", "bro", "ser",
	"fam", "boys", "guys", "anon", "wen", "ngmi", "wagmi", "based",
	"dont", "cant", "gonna", "gotta", "pls", "plz", "thanks", "thx",
	// Question words.
	"what", "why", "how", "when", "who", "where", "which",
	// Sentiment.
	"love", "hate", "good", "bad", "great", "nice", "cool", "crazy",
	"insane", "bullish", "bearish", "moon", "pumping", "dumping", "rip",
	// Coordinating conjunctions.
	"and", "but", "or", "so", "because", "tho", "though",
}

var (
	letterRunPattern    = regexp.MustCompile(`[a-zA-Z]{2,}`)
	sentenceCasePattern = regexp.MustCompile(`^[A-Z][^.!?]*[.!?]$`)
	terminalPunctuation = regexp.MustCompile(`[.!?]+$`)
	wordSplitter        = regexp.MustCompile(`\s+`)
)

// New builds a classifier with the default rule sets plus any options.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		denyPhrases:  append([]string(nil), defaultDenyPhrases...),
		denyPatterns: append([]*regexp.Regexp(nil), defaultDenyPatterns...),
		signalWords:  make(map[string]struct{}, len(defaultSignalWords)),
	}
	for _, w := range defaultSignalWords {
		c.signalWords[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LooksLikeMessage reports whether text reads as a genuine conversational
// message. Pure function of the input and the configured rule sets.
func (c *Classifier) LooksLikeMessage(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minLength || len(trimmed) > maxLength {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range c.denyPhrases {
		// Single-word chrome labels only reject the exact text; matching
		// them as substrings would swallow real sentences ("going home!").
		if strings.ContainsAny(phrase, " ·©") {
			if strings.Contains(lower, phrase) {
				return false
			}
		} else if lower == phrase {
			return false
		}
	}
	for _, pattern := range c.denyPatterns {
		if pattern.MatchString(trimmed) {
			return false
		}
	}

	// Structural floor: at least two words longer than one character and
	// one run of two or more letters, whatever the signals say.
	words := wordSplitter.Split(trimmed, -1)
	qualifying := 0
	for _, w := range words {
		if len(w) > 1 {
			qualifying++
		}
	}
	if qualifying < 2 {
		return false
	}
	if !letterRunPattern.MatchString(trimmed) {
		return false
	}

	return c.hasConversationalSignal(trimmed, words)
}

func (c *Classifier) hasConversationalSignal(trimmed string, words []string) bool {
	for _, w := range words {
		clean := strings.Trim(strings.ToLower(w), ".,!?;:'\"")
		if _, ok := c.signalWords[clean]; ok {
			return true
		}
	}
	if terminalPunctuation.MatchString(trimmed) {
		return true
	}
	if sentenceCasePattern.MatchString(trimmed) {
		return true
	}
	return false
}
