// Package services contains application services for the blog client. All
// calls go through the session manager so that an expired access token is
// refreshed transparently.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/blogclient/internal/client/client"
	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/common"
)

var (
	ErrAdminOnly              = errors.New("administrator rights required")
	ErrSuggestionsUnavailable = errors.New("suggestions are not available for this post")
)

// PostService is the posts API.
//
// Writes (create, update, delete, suggestions) need a staff account;
// comments and reactions need any logged-in user; reads are public.
type PostService interface {
	List(ctx context.Context, tag string) ([]models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, in models.PostInput) (*models.Post, error)
	Update(ctx context.Context, id int64, in models.PostInput) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
	Comment(ctx context.Context, id int64, content string) (*models.Comment, error)
	React(ctx context.Context, id int64, emoji string) (*models.Post, error)
	Suggest(ctx context.Context, id int64, text string) (string, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	Author(ctx context.Context, id int64) (*models.AuthorProfile, error)
}

type postService struct {
	client client.Client
}

// NewPostService binds the service to c, normally a *session.Manager.
func NewPostService(c client.Client) PostService {
	return &postService{client: c}
}

func postPath(id int64, suffix string) string {
	return "/posts/" + strconv.FormatInt(id, 10) + "/" + suffix
}

// call sends body (if any) and decodes the answer into out (if any).
func (s *postService) call(ctx context.Context, method, path string, body, out any) error {
	req, err := client.NewRequest(method, path, body)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func (s *postService) List(ctx context.Context, tag string) ([]models.Post, error) {
	path := "/posts/"
	if tag != "" {
		path += "?" + url.Values{"tag": {tag}}.Encode()
	}

	var posts []models.Post
	if err := s.call(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Get(ctx context.Context, id int64) (*models.Post, error) {
	var p models.Post
	if err := s.call(ctx, http.MethodGet, postPath(id, ""), nil, &p); err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &p, nil
}

func (s *postService) Create(ctx context.Context, in models.PostInput) (*models.Post, error) {
	if err := common.Required("title", in.Title, "content", in.Content); err != nil {
		return nil, err
	}

	var p models.Post
	if err := s.call(ctx, http.MethodPost, "/posts/create/", in, &p); err != nil {
		return nil, fmt.Errorf("create post: %w", forbidden(err))
	}
	return &p, nil
}

func (s *postService) Update(ctx context.Context, id int64, in models.PostInput) (*models.Post, error) {
	var p models.Post
	if err := s.call(ctx, http.MethodPut, postPath(id, "update/"), in, &p); err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, forbidden(err))
	}
	return &p, nil
}

func (s *postService) Delete(ctx context.Context, id int64) error {
	if err := s.call(ctx, http.MethodDelete, postPath(id, ""), nil, nil); err != nil {
		return fmt.Errorf("delete post %d: %w", id, forbidden(err))
	}
	return nil
}

func (s *postService) Comment(ctx context.Context, id int64, content string) (*models.Comment, error) {
	if err := common.Required("content", content); err != nil {
		return nil, err
	}

	var c models.Comment
	if err := s.call(ctx, http.MethodPost, postPath(id, "comment/"), models.CommentInput{Content: content}, &c); err != nil {
		return nil, fmt.Errorf("comment on post %d: %w", id, err)
	}
	return &c, nil
}

// React toggles the caller's reaction and returns the post with updated
// counts.
func (s *postService) React(ctx context.Context, id int64, emoji string) (*models.Post, error) {
	if !models.IsValidEmoji(emoji) {
		return nil, fmt.Errorf("%w: unknown emoji %q, use one of %v", common.ErrValidation, emoji, models.Emojis)
	}

	var p models.Post
	if err := s.call(ctx, http.MethodPost, postPath(id, "react/"+emoji+"/"), nil, &p); err != nil {
		return nil, fmt.Errorf("react to post %d: %w", id, err)
	}
	return &p, nil
}

// Suggest asks the AI service to rewrite text, or the post content when text
// is empty. Only the post's author, who must be staff, may ask.
func (s *postService) Suggest(ctx context.Context, id int64, text string) (string, error) {
	var out models.Suggestion
	err := s.call(ctx, http.MethodPost, postPath(id, "suggestions/"), models.SuggestionRequest{Text: text}, &out)
	if err != nil {
		if apiErr, ok := client.AsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
			err = fmt.Errorf("%w: %w", ErrSuggestionsUnavailable, err)
		}
		return "", fmt.Errorf("suggest for post %d: %w", id, forbidden(err))
	}
	return out.Text, nil
}

func (s *postService) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.call(ctx, http.MethodGet, "/posts/tags/", nil, &tags); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *postService) Author(ctx context.Context, id int64) (*models.AuthorProfile, error) {
	var a models.AuthorProfile
	if err := s.call(ctx, http.MethodGet, "/posts/author/"+strconv.FormatInt(id, 10)+"/", nil, &a); err != nil {
		return nil, fmt.Errorf("get author %d: %w", id, err)
	}
	return &a, nil
}

// forbidden marks a 403 answer with ErrAdminOnly.
func forbidden(err error) error {
	if apiErr, ok := client.AsAPIError(err); ok && apiErr.Status == http.StatusForbidden {
		return fmt.Errorf("%w: %w", ErrAdminOnly, err)
	}
	return err
}
