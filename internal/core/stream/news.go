package stream

import (
	"strings"
	"time"

	"insightmart/internal/core/rules"
)

// SourceNews names the news stream in cursors and rejects
const SourceNews = "stream_news"

// NewsRaw is a row of news_events_raw
type NewsRaw struct {
	ID                 string
	Source             string
	Headline           string
	Description        string
	Category           string
	SourceName         string
	URL                string
	PublishedAt        *time.Time
	EventTimestamp     time.Time
	IngestionTimestamp time.Time
}

// EventID implements Event
func (n NewsRaw) EventID() string { return n.ID }

// EventTime implements Event
func (n NewsRaw) EventTime() time.Time { return n.EventTimestamp }

// NewsFact is a row of stream_news
type NewsFact struct {
	ID                 string
	Source             string
	Headline           string
	Description        string
	Category           string
	SourceName         string
	URL                string
	PublishedAt        time.Time
	HeadlineWords      int
	HeadlineLength     string
	MentionsTopic      bool
	SourceCategory     string
	EventTimestamp     time.Time
	IngestionTimestamp time.Time
	ProcessedAt        time.Time
}

// Reject reasons for news
const (
	ReasonHeadlineEmpty   = "headline is empty"
	ReasonSourceNameEmpty = "source_name is empty"
	ReasonPublishedAtNull = "published_at is null"
)

// NewsOptions tunes EvalNews
type NewsOptions struct {
	Length   rules.Bands
	Keywords []string
	Sources  rules.Table
	Now      time.Time
}

// EvalNews validates and tags rows
func EvalNews(rows []NewsRaw, o NewsOptions) []Result[NewsFact] {
	keywords := make([]string, 0, len(o.Keywords))
	for _, k := range o.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	out := make([]Result[NewsFact], 0, len(rows))
	for _, r := range rows {
		if reason := newsReason(r); reason != "" {
			out = append(out, Rejected[NewsFact](Reject{
				Source: SourceNews, EventID: r.ID, Reason: reason, EventTimestamp: r.EventTimestamp, Payload: r,
			}))
			continue
		}
		words := len(strings.Fields(r.Headline))
		out = append(out, Valid(NewsFact{
			ID:                 r.ID,
			Source:             r.Source,
			Headline:           strings.TrimSpace(r.Headline),
			Description:        r.Description,
			Category:           r.Category,
			SourceName:         strings.TrimSpace(r.SourceName),
			URL:                r.URL,
			PublishedAt:        *r.PublishedAt,
			HeadlineWords:      words,
			HeadlineLength:     o.Length.Pick(float64(words)),
			MentionsTopic:      mentions(keywords, r.Headline, r.Description),
			SourceCategory:     o.Sources.Match(r.SourceName),
			EventTimestamp:     r.EventTimestamp,
			IngestionTimestamp: r.IngestionTimestamp,
			ProcessedAt:        o.Now,
		}))
	}
	return out
}

func newsReason(r NewsRaw) string {
	switch {
	case strings.TrimSpace(r.Headline) == "":
		return ReasonHeadlineEmpty
	case strings.TrimSpace(r.SourceName) == "":
		return ReasonSourceNameEmpty
	case r.PublishedAt == nil:
		return ReasonPublishedAtNull
	}
	return ""
}

func mentions(keywords []string, texts ...string) bool {
	for _, t := range texts {
		lt := strings.ToLower(t)
		for _, k := range keywords {
			if strings.Contains(lt, k) {
				return true
			}
		}
	}
	return false
}
