package model

// Read states a post can be in.
const (
	StateUnread = "unread"
	StateRead   = "read"
	StateSaved  = "saved"
	StateSkip   = "skip"
)

// ValidState reports whether s is one of the known read states.
func ValidState(s string) bool {
	switch s {
	case StateUnread, StateRead, StateSaved, StateSkip:
		return true
	}
	return false
}

// Source is a subscribed RSS/Atom feed.
type Source struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	Type      string  `json:"type"`
	Weight    float64 `json:"weight"`
	Tags      string  `json:"tags"` // comma separated
	Enabled   bool    `json:"enabled"`
	CreatedAt string  `json:"created_at"`
}

// Post is a stored feed entry together with its extracted text.
type Post struct {
	ID          int64  `json:"id"`
	SourceID    int64  `json:"source_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
	FetchedAt   string `json:"fetched_at"`
	ContentText string `json:"content_text"`
	ContentHash string `json:"content_hash"`
	WordCount   int    `json:"word_count"`
	ReadState   string `json:"read_state"`
}

// Candidate is a post joined with the weight of its source, ready to be scored.
type Candidate struct {
	Post
	SourceWeight float64
}

// RankedPost is a scored post as shown in ranked lists and digests.
type RankedPost struct {
	Post
	Score         float64
	BreakdownJSON string
	OneLiner      string
}

// Summary is a cached LLM summary. It is keyed by post, mode, model and the
// hash of the text it was generated from, so edited content gets a fresh one.
type Summary struct {
	PostID      int64
	Mode        string
	Model       string
	ContentHash string
	Text        string
	CreatedAt   string
}
