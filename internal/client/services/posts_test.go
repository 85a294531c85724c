package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/dmitrijs2005/blogclient/internal/apitest"
	"github.com/dmitrijs2005/blogclient/internal/client/client"
	"github.com/dmitrijs2005/blogclient/internal/client/credentials"
	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/client/session"
	"github.com/dmitrijs2005/blogclient/internal/common"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

type env struct {
	srv   *apitest.Server
	m     *session.Manager
	posts PostService
	admin models.User
	user  models.User
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	srv := apitest.New(t)
	store := credentials.NewMemoryStore()
	jar, err := client.NewJar(ctx, srv.BaseURL(), nil)
	require.NoError(t, err)
	c, err := client.New(srv.BaseURL(), client.WithJar(jar), client.WithRequestTransforms(
		client.BearerToken(credentials.TokenFunc(store)),
		client.CSRF(jar),
	))
	require.NoError(t, err)

	m, err := session.NewManager(ctx, c, store)
	require.NoError(t, err)

	return &env{
		srv:   srv,
		m:     m,
		posts: NewPostService(m),
		admin: srv.AddUser("admin", "admin@example.org", "pw", true),
		user:  srv.AddUser("reader", "reader@example.org", "pw", false),
	}
}

func (e *env) login(t *testing.T, username string) {
	t.Helper()
	_, err := e.m.Login(context.Background(), username, "pw")
	require.NoError(t, err)
}

// ---- tests ----

func TestPostService_ReadsArePublic(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	first := e.srv.AddPost(e.admin.ID, "First", "one", "Go")
	e.srv.AddPost(e.admin.ID, "Second", "two", "Rust")

	all, err := e.posts.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	tagged, err := e.posts.List(ctx, "go")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	require.Equal(t, "First", tagged[0].Title)

	p, err := e.posts.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "one", p.Content)
	require.Equal(t, "admin", p.Author.Username)
	require.Len(t, p.ReactionCounts, len(models.Emojis))

	tags, err := e.posts.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	require.Equal(t, "go", tags[0].Slug)

	author, err := e.posts.Author(ctx, e.admin.ID)
	require.NoError(t, err)
	require.Equal(t, "admin", author.Author.Username)
	require.Len(t, author.Posts, 2)
}

func TestPostService_GetMissing(t *testing.T) {
	e := setup(t)

	_, err := e.posts.Get(context.Background(), 999)
	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Contains(t, err.Error(), "get post 999")
}

func TestPostService_CreateUpdateDelete(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.login(t, "admin")

	p, err := e.posts.Create(ctx, models.PostInput{Title: "Draft", Content: "body", TagNames: []string{"News"}})
	require.NoError(t, err)
	require.Equal(t, "Draft", p.Title)
	require.Equal(t, "news", p.Tags[0].Slug)

	p, err = e.posts.Update(ctx, p.ID, models.PostInput{Title: "Final"})
	require.NoError(t, err)
	require.Equal(t, "Final", p.Title)
	require.Equal(t, "body", p.Content)

	require.NoError(t, e.posts.Delete(ctx, p.ID))
	_, err = e.posts.Get(ctx, p.ID)
	require.Error(t, err)

	for _, r := range e.srv.RequestsTo("/posts/create/") {
		require.NotEmpty(t, r.CSRFToken, "unsafe requests carry the CSRF header")
	}
}

func TestPostService_CreateNeedsAdmin(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.login(t, "reader")

	_, err := e.posts.Create(ctx, models.PostInput{Title: "t", Content: "c"})
	require.ErrorIs(t, err, ErrAdminOnly)
	require.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = e.posts.Create(ctx, models.PostInput{Title: "", Content: "c"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestPostService_CommentAndReact(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p := e.srv.AddPost(e.admin.ID, "Hello", "World")

	_, err := e.posts.Comment(ctx, p.ID, "anonymous?")
	require.ErrorIs(t, err, client.ErrUnauthorized)

	e.login(t, "reader")
	c, err := e.posts.Comment(ctx, p.ID, "nice")
	require.NoError(t, err)
	require.Equal(t, "nice", c.Content)
	require.Equal(t, "reader", c.Author.Username)

	_, err = e.posts.Comment(ctx, p.ID, " ")
	require.ErrorIs(t, err, common.ErrValidation)

	got, err := e.posts.React(ctx, p.ID, models.EmojiLove)
	require.NoError(t, err)
	require.Equal(t, 1, got.ReactionCounts[models.EmojiLove])

	got, err = e.posts.React(ctx, p.ID, models.EmojiLove)
	require.NoError(t, err)
	require.Equal(t, 0, got.ReactionCounts[models.EmojiLove], "second reaction toggles off")

	before := len(e.srv.Requests())
	_, err = e.posts.React(ctx, p.ID, "THUMBS")
	require.ErrorIs(t, err, common.ErrValidation)
	require.Len(t, e.srv.Requests(), before)
}

func TestPostService_Suggest(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p := e.srv.AddPost(e.admin.ID, "Hello", "plain text")
	e.srv.SetSuggest(strings.ToUpper)

	e.login(t, "admin")
	out, err := e.posts.Suggest(ctx, p.ID, "")
	require.NoError(t, err)
	require.Equal(t, "PLAIN TEXT", out)

	out, err = e.posts.Suggest(ctx, p.ID, "custom")
	require.NoError(t, err)
	require.Equal(t, "CUSTOM", out)

	_, err = e.posts.Suggest(ctx, 999, "x")
	require.ErrorIs(t, err, ErrSuggestionsUnavailable)

	require.NoError(t, e.m.Logout(ctx))
	e.login(t, "reader")
	_, err = e.posts.Suggest(ctx, p.ID, "x")
	require.ErrorIs(t, err, ErrAdminOnly)
}

func TestPostService_RefreshIsTransparent(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p := e.srv.AddPost(e.admin.ID, "Hello", "World")
	e.login(t, "reader")

	e.srv.ExpireAccessTokens()

	_, err := e.posts.Comment(ctx, p.ID, "still here")
	require.NoError(t, err)
	require.Equal(t, 1, e.srv.RefreshCalls())
	require.Len(t, e.srv.RequestsTo("/posts/1/comment/"), 2)
}
