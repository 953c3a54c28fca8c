package models

import "time"

// Post is a single raw source item pulled from the content store.
type Post struct {
	ID             string `json:"id,omitempty"`
	AuthorFullname string `json:"authorFullname"`
	AuthorUsername string `json:"authorUsername,omitempty"`
	Text           string `json:"text"`
	URL            string `json:"url,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"` // RFC3339 when present
}

// GroupedPost is one author's posts concatenated into a single block,
// ready for embedding.
type GroupedPost struct {
	AuthorFullname string    `json:"authorFullname"`
	Text           string    `json:"text"`          // rendered "Author: ...\nPosts:\n[1] ..." block
	OriginalTexts  []string  `json:"originalTexts"` // un-grouped texts, kept for phrase matching
	Timestamp      string    `json:"timestamp,omitempty"`
	Embedding      []float64 `json:"-"`
}

// RankedPost is a GroupedPost annotated with its composite similarity score.
type RankedPost struct {
	GroupedPost
	Similarity float64 `json:"similarity"`
}

// ParsedTime returns the post timestamp, or the zero time when absent or malformed.
func (p GroupedPost) ParsedTime() time.Time {
	if p.Timestamp == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
