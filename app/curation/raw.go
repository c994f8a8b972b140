package curation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// RawDocument is a search result as returned by the media-monitoring API.
// Field shapes vary between content types, so the leaf types below accept
// whatever the upstream sends and fall back to zero values.
type RawDocument struct {
	ID            Text           `json:"id"`
	ExternalID    Text           `json:"external_id"`
	PostID        Text           `json:"post_id"`
	URL           Text           `json:"url"`
	PublishedDate Text           `json:"published_date"`
	ContentType   Text           `json:"content_type"`
	Content       RawContent     `json:"content"`
	Source        RawSource      `json:"source"`
	Metrics       RawMetrics     `json:"metrics"`
	Enrichments   RawEnrichments `json:"enrichments"`
	Location      RawLocation    `json:"location"`
}

type RawContent struct {
	Title       Text `json:"title"`
	Summary     Text `json:"summary"`
	OpeningText Text `json:"opening_text"`
	Description Text `json:"description"`
	Text        Text `json:"text"`
	Message     Text `json:"message"`
	Caption     Text `json:"caption"`
	Headline    Text `json:"headline"`
	Image       Text `json:"image"`
}

// UnmarshalJSON accepts both the object form and a bare string, which some
// social providers send as the whole post body.
func (c *RawContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		var t Text
		_ = t.UnmarshalJSON(data)
		*c = RawContent{Text: t}
		return nil
	}

	type plain RawContent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		*c = RawContent{}
		return nil
	}
	*c = RawContent(p)
	return nil
}

type RawSource struct {
	Name    Text `json:"name"`
	Metrics struct {
		Reach Metric `json:"reach"`
		AVE   Metric `json:"ave"`
	} `json:"metrics"`
}

// UnmarshalJSON accepts a bare source name as well as the object form.
func (s *RawSource) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*s = RawSource{Name: Text(lenientString(data))}
		return nil
	}

	type plain RawSource
	var p plain
	_ = json.Unmarshal(data, &p)
	*s = RawSource(p)
	return nil
}

type RawInteractions struct {
	Total     *Metric `json:"total"`
	Likes     *Metric `json:"likes"`
	Replies   *Metric `json:"replies"`
	Reposts   *Metric `json:"reposts"`
	Retweets  *Metric `json:"retweets"`
	Shares    *Metric `json:"shares"`
	Comments  *Metric `json:"comments"`
	Quotes    *Metric `json:"quotes"`
	Reactions *Metric `json:"reactions"`
}

// UnmarshalJSON treats a bare number as the aggregate total.
func (r *RawInteractions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*r = RawInteractions{}
		if len(data) > 0 && data[0] != 'n' {
			var total Metric
			_ = total.UnmarshalJSON(data)
			r.Total = &total
		}
		return nil
	}

	type plain RawInteractions
	var p plain
	_ = json.Unmarshal(data, &p)
	*r = RawInteractions(p)
	return nil
}

// Sum returns the aggregate total when present, otherwise the sum of the
// individual interaction counters.
func (r RawInteractions) Sum() float64 {
	if r.Total != nil {
		return float64(*r.Total)
	}
	var sum float64
	for _, m := range []*Metric{r.Likes, r.Replies, r.Reposts, r.Retweets, r.Shares, r.Comments, r.Quotes, r.Reactions} {
		if m != nil {
			sum += float64(*m)
		}
	}
	return sum
}

// postLike reports whether any of the counters typical for social posts is present.
func (r RawInteractions) postLike() bool {
	return r.Likes != nil || r.Shares != nil || r.Comments != nil || r.Retweets != nil || r.Reactions != nil
}

type RawMetrics struct {
	Engagement RawInteractions `json:"engagement"`
	SocialEcho RawInteractions `json:"social_echo"`
	Views      Metric          `json:"views"`
}

type RawEnrichments struct {
	Sentiment  Text     `json:"sentiment"`
	Keyphrases TextList `json:"keyphrases"`
}

type RawLocation struct {
	CountryCode Text `json:"country_code"`
}

// Text is a lenient string: numbers are formatted, objects yield their
// url/text/value/src member, arrays yield their first usable element.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(lenientString(data))
	return nil
}

func (t Text) String() string {
	return string(t)
}

func lenientString(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err == nil {
			for _, key := range []string{"url", "text", "value", "src", "name"} {
				if v, ok := obj[key]; ok {
					if s := lenientString(v); s != "" {
						return s
					}
				}
			}
		}
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err == nil {
			for _, v := range arr {
				if s := lenientString(v); s != "" {
					return s
				}
			}
		}
	case 'n', 't', 'f':
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// TextList is a lenient list of strings. A single string becomes a
// one-element list; comma separated strings are split.
type TextList []Text

func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err == nil {
			out := make(TextList, 0, len(arr))
			for _, v := range arr {
				if s := strings.TrimSpace(lenientString(v)); s != "" {
					out = append(out, Text(s))
				}
			}
			*l = out
			return nil
		}
	}

	var out TextList
	for _, part := range strings.Split(lenientString(data), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, Text(part))
		}
	}
	*l = out
	return nil
}

// Metric is a lenient number: numeric strings are parsed, anything else is 0.
type Metric float64

func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*m = Metric(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*m = Metric(parsed)
			return nil
		}
	}
	*m = 0
	return nil
}

// DecodeDocuments decodes each raw message on its own, so one undecodable
// document never drops the batch.
func DecodeDocuments(messages []json.RawMessage) []RawDocument {
	docs := make([]RawDocument, 0, len(messages))
	for i, msg := range messages {
		var doc RawDocument
		if err := json.Unmarshal(msg, &doc); err != nil {
			// Type mismatches still leave the remaining fields decoded.
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				slog.Warn("Skipping undecodable document", "index", i, "error", err)
				continue
			}
			slog.Debug("Document decoded partially", "index", i, "field", typeErr.Field, "error", err)
		}
		docs = append(docs, doc)
	}
	return docs
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z0700",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParsePublished parses the upstream date formats, including unix seconds
// and milliseconds. Unparseable values yield the zero time.
func ParsePublished(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}

	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}

	return time.Time{}
}
