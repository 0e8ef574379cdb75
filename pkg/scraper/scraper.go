// Package scraper discovers mentions of the agent's account by extracting
// structured records from the platform's rendered notification surface.
//
// The platform offers no stable contract for any of this, so extraction is
// layered: an in-page structural pass first, a regex/tokenizer pass over
// raw markup as last resort, and a heuristic classifier filtering both.
// Every failure degrades to an empty result; a transient UI breakage must
// never take the monitoring loop down with it.
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/perchlabs/perch/pkg/browser"
	"github.com/perchlabs/perch/pkg/classify"
	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/logging"
)

// Bounds on one scrape pass.
const (
	MaxPerScrape = 20 // one notifications-page fetch worth of records

	navTimeout      = 10 * time.Second
	settleDelay     = 2500 * time.Millisecond
	structuralLimit = 40 // raw candidates pulled before filtering
)

// Scraper extracts new mention records. Not safe for concurrent use; the
// agent's single-flight lock serializes calls alongside every other
// browser operation.
type Scraper struct {
	drv  *browser.Driver
	cls  *classify.Classifier
	sel  *config.Selectors
	seen *SeenSet
	chat *SeenSet
	log  *logging.Logger
}

// New creates a scraper with a fresh processed-id set.
func New(drv *browser.Driver, cls *classify.Classifier, sel *config.Selectors, log *logging.Logger) *Scraper {
	return &Scraper{
		drv:  drv,
		cls:  cls,
		sel:  sel,
		seen: NewSeenSet(0),
		chat: NewSeenSet(0),
		log:  log,
	}
}

// Seen exposes the processed-id set for status queries.
func (s *Scraper) Seen() *SeenSet { return s.seen }

// ScrapeMentions returns new mention records, newest-relevant first,
// already deduplicated against previously returned ids and capped at
// MaxPerScrape. It never fails across its boundary: all internal errors
// degrade to an empty slice.
func (s *Scraper) ScrapeMentions(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil
	}

	if !s.navigateToMentions() {
		s.log.Warnf("all mention surfaces unreachable, skipping this pass")
		return nil, nil
	}
	s.drv.Settle(settleDelay)

	raws, err := s.extractStructural()
	if err != nil {
		s.log.Warnf("structural extraction failed: %v", err)
		if shot, serr := s.drv.Screenshot("scrape-failure"); serr == nil {
			s.log.Infof("scrape diagnostic captured at %s", shot)
		}
	}

	if len(raws) == 0 {
		raws = s.extractFallback()
		if len(raws) > 0 {
			s.log.Infof("regex fallback recovered %d candidates", len(raws))
		}
	}

	records := s.pipeline(raws)
	if len(records) > 0 {
		s.log.Infof("scrape found %d new mentions", len(records))
	}
	return records, nil
}

// navigateToMentions tries each candidate notifications URL in order.
func (s *Scraper) navigateToMentions() bool {
	for _, url := range s.sel.MentionURLs {
		if err := s.drv.Goto(url, navTimeout); err != nil {
			s.log.Debugf("mention surface %s unreachable: %v", url, err)
			continue
		}
		return true
	}
	return false
}

// extractStructural pulls raw candidates out of the rendered page in one
// in-page pass, so a mid-render mutation cannot tear a candidate apart.
func (s *Scraper) extractStructural() ([]rawCandidate, error) {
	script := fmt.Sprintf(`() => Array.from(document.querySelectorAll(%q)).slice(0, %d).map((el) => {
		const link = el.querySelector(%q);
		const time = el.querySelector('time');
		const text = el.querySelector(%q);
		return {
			href: link ? (link.getAttribute('href') || '') : '',
			time: time ? (time.getAttribute('datetime') || '') : '',
			text: text ? text.innerText : (el.innerText || ''),
		};
	})`, s.sel.Article, structuralLimit, s.sel.Permalink, s.sel.ArticleText)

	var raws []rawCandidate
	if err := s.drv.EvaluateInto(script, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

func (s *Scraper) extractFallback() []rawCandidate {
	markup, err := s.drv.Content()
	if err != nil {
		s.log.Warnf("markup read for fallback failed: %v", err)
		return nil
	}
	return fallbackExtract(markup, s.sel.TextMarkerAttr, s.sel.TextMarkerValue)
}

// pipeline normalizes, filters, and deduplicates raw candidates. Each
// candidate fails independently.
func (s *Scraper) pipeline(raws []rawCandidate) []Record {
	now := time.Now()
	base := "https://" + s.sel.Domain
	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := buildRecord(raw, i, base, now)
		if err != nil {
			s.log.Debugf("dropping candidate: %v", err)
			continue
		}
		if !s.cls.LooksLikeMessage(rec.Text) {
			continue
		}
		if s.seen.Seen(rec.ID) {
			continue
		}
		s.seen.Add(rec.ID)
		records = append(records, rec)
		if len(records) == MaxPerScrape {
			break
		}
	}
	return records
}
