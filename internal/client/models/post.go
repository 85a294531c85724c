package models

import "time"

// Reaction emoji codes accepted by the API.
const (
	EmojiLike  = "LIKE"
	EmojiLove  = "LOVE"
	EmojiHaha  = "HAHA"
	EmojiWow   = "WOW"
	EmojiSad   = "SAD"
	EmojiAngry = "ANGRY"
)

// Emojis lists the reaction codes in display order.
var Emojis = []string{EmojiLike, EmojiLove, EmojiHaha, EmojiWow, EmojiSad, EmojiAngry}

// IsValidEmoji reports whether code is one of Emojis.
func IsValidEmoji(code string) bool {
	for _, e := range Emojis {
		if e == code {
			return true
		}
	}
	return false
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Reaction struct {
	ID        int64     `json:"id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is an article with its comments, reactions and tags.
// ReactionCounts maps every emoji code to its count.
type Post struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Author         User           `json:"author"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	PublishedAt    time.Time      `json:"published_at"`
	Comments       []Comment      `json:"comments"`
	Reactions      []Reaction     `json:"reactions"`
	Tags           []Tag          `json:"tags"`
	ReactionCounts map[string]int `json:"reaction_counts"`
}

// PostInput is the writable part of a post used for create and update.
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	TagNames []string `json:"tag_names,omitempty"`
}

// CommentInput is the body of a new comment.
type CommentInput struct {
	Content string `json:"content"`
}

// SuggestionRequest asks the AI service to rewrite Text. An empty Text makes
// the server use the post's current content.
type SuggestionRequest struct {
	Text string `json:"text,omitempty"`
}

// Suggestion is the rewritten text returned by the AI service.
type Suggestion struct {
	Text string `json:"réponse"`
}

// AuthorProfile is an author together with their published posts.
type AuthorProfile struct {
	Author User   `json:"author"`
	Posts  []Post `json:"posts"`
}
