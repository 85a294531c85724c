package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
)

type reactionKey struct {
	postID int64
	userID int64
	emoji  string
}

// AddPost stores a published post written by author.
func (s *Server) AddPost(authorID int64, title, content string, tags ...string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.addPostLocked(s.users[authorID].User, models.PostInput{Title: title, Content: content, TagNames: tags})
	return s.viewLocked(p)
}

func (s *Server) addPostLocked(author models.User, in models.PostInput) *models.Post {
	s.lastPostID++
	now := time.Now().UTC()
	p := &models.Post{
		ID:          s.lastPostID,
		Title:       in.Title,
		Content:     in.Content,
		Author:      author,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: now,
		Tags:        s.tagsLocked(in.TagNames),
	}
	s.posts[p.ID] = p
	return p
}

func (s *Server) tagsLocked(names []string) []models.Tag {
	tags := make([]models.Tag, 0, len(names))
	for _, n := range names {
		slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(n), " ", "-"))
		t, ok := s.tags[slug]
		if !ok {
			t = models.Tag{ID: int64(len(s.tags) + 1), Name: strings.TrimSpace(n), Slug: slug}
			s.tags[slug] = t
		}
		tags = append(tags, t)
	}
	return tags
}

// viewLocked returns a copy of p with reaction counts filled in.
func (s *Server) viewLocked(p *models.Post) models.Post {
	v := *p
	v.Comments = append([]models.Comment{}, p.Comments...)
	v.Reactions = []models.Reaction{}
	v.ReactionCounts = make(map[string]int, len(models.Emojis))
	for _, e := range models.Emojis {
		v.ReactionCounts[e] = 0
	}
	for k := range s.reactions {
		if k.postID == p.ID {
			v.ReactionCounts[k.emoji]++
			v.Reactions = append(v.Reactions, models.Reaction{Emoji: k.emoji})
		}
	}
	return v
}

func (s *Server) sortedPostsLocked(keep func(*models.Post) bool) []models.Post {
	out := []models.Post{}
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, s.viewLocked(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) postFromPath(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	p, ok := s.posts[id]
	if err != nil || !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}
	return p, true
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bearer(w, r, false); !ok {
		return
	}

	tag := r.URL.Query().Get("tag")
	writeJSON(w, http.StatusOK, s.sortedPostsLocked(func(p *models.Post) bool {
		if tag == "" {
			return true
		}
		for _, t := range p.Tags {
			if t.Slug == tag {
				return true
			}
		}
		return false
	}))
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bearer(w, r, false); !ok {
		return
	}
	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.viewLocked(p))
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags := make([]models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleAuthor(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	a, ok := s.users[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, models.AuthorProfile{
		Author: a.User,
		Posts:  s.sortedPostsLocked(func(p *models.Post) bool { return p.Author.ID == id }),
	})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.staff(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}
	writeJSON(w, http.StatusCreated, s.viewLocked(s.addPostLocked(a.User, in)))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.staff(w, r)
	if !ok {
		return
	}
	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}
	if p.Author.ID != a.ID {
		writeError(w, http.StatusForbidden, "You are not allowed to edit this post.")
		return
	}

	if in.Title != "" {
		p.Title = in.Title
	}
	if in.Content != "" {
		p.Content = in.Content
	}
	if in.TagNames != nil {
		p.Tags = s.tagsLocked(in.TagNames)
	}
	p.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, s.viewLocked(p))
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.staff(w, r)
	if !ok {
		return
	}
	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}
	if p.Author.ID != a.ID {
		writeError(w, http.StatusForbidden, "You are not allowed to delete this post.")
		return
	}
	delete(s.posts, p.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var in models.CommentInput
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.bearer(w, r, true)
	if !ok {
		return
	}
	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(in.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"content": {"This field may not be blank."}})
		return
	}

	s.lastCommentID++
	now := time.Now().UTC()
	c := models.Comment{ID: s.lastCommentID, Content: in.Content, Author: a.User, CreatedAt: now, UpdatedAt: now}
	p.Comments = append(p.Comments, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.bearer(w, r, true)
	if !ok {
		return
	}
	p, ok := s.postFromPath(w, r)
	if !ok {
		return
	}

	emoji := r.PathValue("emoji")
	if !models.IsValidEmoji(emoji) {
		writeError(w, http.StatusBadRequest, "Invalid emoji")
		return
	}

	k := reactionKey{postID: p.ID, userID: a.ID, emoji: emoji}
	if s.reactions[k] {
		delete(s.reactions, k)
	} else {
		s.reactions[k] = true
	}
	writeJSON(w, http.StatusOK, s.viewLocked(p))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var in models.SuggestionRequest
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.staff(w, r)
	if !ok {
		return
	}
	p, ok := s.posts[mustID(r)]
	if !ok || p.Author.ID != a.ID {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	text := in.Text
	if text == "" {
		text = p.Content
	}
	writeJSON(w, http.StatusOK, models.Suggestion{Text: s.suggest(text)})
}

// staff authenticates the caller and requires the admin flag.
func (s *Server) staff(w http.ResponseWriter, r *http.Request) (*account, bool) {
	a, ok := s.bearer(w, r, true)
	if !ok {
		return nil, false
	}
	if !a.IsStaff {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": MsgForbidden})
		return nil, false
	}
	return a, true
}

func mustID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}
