package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors is the versioned table of every selector, label, and URL the
// automation consults. The target platform ships no stable UI contract, so
// each lookup is an ordered strategy list tried front to back; when the
// platform shifts its markup, the table is patched (or swapped via
// PERCH_SELECTORS) without touching control flow.
type Selectors struct {
	Version string `yaml:"version"`

	Domain     string `yaml:"domain"`
	HomeURL    string `yaml:"home_url"`
	LoginURL   string `yaml:"login_url"`
	ComposeURL string `yaml:"compose_url"`
	// StatusURL is a template with one %s slot for the message id.
	StatusURL string `yaml:"status_url"`

	// Candidate notification surfaces, tried in order.
	MentionURLs []string `yaml:"mention_urls"`

	// HomeSignal elements are reliably present only when authenticated and
	// on the main timeline.
	HomeSignal []string `yaml:"home_signal"`

	// URL substrings identifying a login page / a verification challenge.
	LoginIndicators     []string `yaml:"login_indicators"`
	ChallengeIndicators []string `yaml:"challenge_indicators"`

	UsernameInputs []string `yaml:"username_inputs"`
	PasswordInputs []string `yaml:"password_inputs"`
	EmailInputs    []string `yaml:"email_inputs"`

	// Button label texts (case-insensitive, includes known localized
	// variants) tried before the structural selectors below.
	NextLabels   []string `yaml:"next_labels"`
	SubmitLabels []string `yaml:"submit_labels"`
	NextButtons  []string `yaml:"next_buttons"`
	LoginButtons []string `yaml:"login_buttons"`

	// Mention extraction. The marker pair identifies message-text elements
	// in raw markup for the regex/tokenizer fallback path.
	Article         string `yaml:"article"`
	ArticleText     string `yaml:"article_text"`
	Permalink       string `yaml:"permalink"`
	TextMarkerAttr  string `yaml:"text_marker_attr"`
	TextMarkerValue string `yaml:"text_marker_value"`

	// Chat-stream extraction.
	ChatMessage  string `yaml:"chat_message"`
	ChatUsername string `yaml:"chat_username"`
	ChatText     string `yaml:"chat_text"`

	// Publishing.
	ComposeBox       []string `yaml:"compose_box"`
	SendButtons      []string `yaml:"send_buttons"`
	ReplyButtons     []string `yaml:"reply_buttons"`
	ReplyBox         []string `yaml:"reply_box"`
	ReplySendButtons []string `yaml:"reply_send_buttons"`
}

// DefaultSelectors returns the built-in table for the current platform UI.
func DefaultSelectors() *Selectors {
	return &Selectors{
		Version: "2025-08",

		Domain:     "x.com",
		HomeURL:    "https://x.com/home",
		LoginURL:   "https://x.com/i/flow/login",
		ComposeURL: "https://x.com/compose/post",
		StatusURL:  "https://x.com/i/web/status/%s",

		MentionURLs: []string{
			"https://x.com/notifications/mentions",
			"https://x.com/notifications",
		},

		HomeSignal: []string{
			`[data-testid="SideNav_AccountSwitcher_Button"]`,
			`a[data-testid="AppTabBar_Home_Link"]`,
			`[data-testid="SideNav_NewTweet_Button"]`,
			`[data-testid="primaryColumn"]`,
		},

		LoginIndicators:     []string{"/login", "/i/flow/login", "logout"},
		ChallengeIndicators: []string{"/account/access", "/i/flow", "challenge", "verify", "confirm"},

		UsernameInputs: []string{
			`input[autocomplete="username"]`,
			`input[name="text"]`,
			`input[type="text"]`,
		},
		PasswordInputs: []string{
			`input[name="password"]`,
			`input[type="password"]`,
			`input[autocomplete="current-password"]`,
		},
		EmailInputs: []string{
			`input[data-testid="ocfEnterTextTextInput"]`,
			`input[name="text"]`,
		},

		NextLabels:   []string{"next", "weiter", "suivant", "siguiente", "avanti"},
		SubmitLabels: []string{"log in", "login", "sign in", "anmelden", "se connecter", "iniciar"},
		NextButtons: []string{
			`[data-testid="LoginForm_Login_Button"]`,
			`button[type="submit"]`,
			`div[role="button"][tabindex="0"]`,
		},
		LoginButtons: []string{
			`[data-testid="LoginForm_Login_Button"]`,
			`button[type="submit"]`,
			`div[data-testid="LoginButton"]`,
		},

		Article:         `article[data-testid="tweet"], article`,
		ArticleText:     `[data-testid="tweetText"]`,
		Permalink:       `a[href*="/status/"]`,
		TextMarkerAttr:  "data-testid",
		TextMarkerValue: "tweetText",

		ChatMessage:  `[data-testid="messageEntry"], [class*="chat-message"], [class*="message-row"]`,
		ChatUsername: `[data-testid="messageSender"], [class*="username"], [class*="sender"]`,
		ChatText:     `[data-testid="messageText"], [class*="message-text"], [class*="body"]`,

		ComposeBox: []string{
			`[data-testid="tweetTextarea_0"]`,
			`div[role="textbox"][contenteditable="true"]`,
		},
		SendButtons: []string{
			`[data-testid="tweetButton"]`,
			`[data-testid="tweetButtonInline"]`,
			`button[type="submit"]`,
		},
		ReplyButtons: []string{
			`[data-testid="reply"]`,
			`[aria-label*="Reply"]`,
		},
		ReplyBox: []string{
			`[data-testid="tweetTextarea_0"]`,
			`div[role="textbox"][contenteditable="true"]`,
		},
		ReplySendButtons: []string{
			`[data-testid="tweetButton"]`,
			`[data-testid="tweetButtonInline"]`,
		},
	}
}

// LoadSelectors reads a selector table from a YAML file. An empty path
// returns the built-in defaults. A present but unreadable or malformed
// file is an error: silently falling back to defaults would mask a bad
// override and send the automation against the wrong selectors.
func LoadSelectors(path string) (*Selectors, error) {
	if path == "" {
		return DefaultSelectors(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selector table: %w", err)
	}

	sel := DefaultSelectors()
	if err := yaml.Unmarshal(data, sel); err != nil {
		return nil, fmt.Errorf("parse selector table: %w", err)
	}
	if sel.Version == "" {
		return nil, fmt.Errorf("selector table %s has no version", path)
	}
	return sel, nil
}

// Save writes the table as YAML, typically to seed a patchable override.
func (s *Selectors) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode selector table: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write selector table: %w", err)
	}
	return nil
}
