package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/common"
)

const dateLayout = "2006-01-02 15:04"

// parseID reads the numeric id at args[0].
func parseID(args []string, usage string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: usage: %s", common.ErrValidation, usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", common.ErrValidation, args[0])
	}
	return id, nil
}

// List prints posts, optionally filtered by a tag slug.
func (a *App) List(ctx context.Context, args []string) error {
	var tag string
	if len(args) > 0 {
		tag = args[0]
	}

	posts, err := a.posts.List(ctx, tag)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		a.println("No posts")
		return nil
	}
	for _, p := range posts {
		a.printf("#%d  %s  by %s, %s  [%s]\n", p.ID, p.Title, p.Author.Username,
			p.PublishedAt.Local().Format(dateLayout), tagNames(p.Tags))
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := parseID(args, "show <id>")
	if err != nil {
		return err
	}
	p, err := a.posts.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printPost(p)
	return nil
}

func (a *App) printPost(p *models.Post) {
	a.printf("#%d %s\n", p.ID, p.Title)
	a.printf("by %s (author id %d), %s\n", p.Author.Username, p.Author.ID, p.PublishedAt.Local().Format(dateLayout))
	if len(p.Tags) > 0 {
		a.printf("tags: %s\n", tagNames(p.Tags))
	}
	a.println()
	a.println(p.Content)
	a.println()
	a.println("reactions:", reactionLine(p.ReactionCounts))

	if len(p.Comments) > 0 {
		a.printf("comments (%d):\n", len(p.Comments))
		for _, c := range p.Comments {
			a.printf("  %s, %s: %s\n", c.Author.Username, c.CreatedAt.Local().Format(dateLayout), c.Content)
		}
	}
}

func tagNames(tags []models.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

func reactionLine(counts map[string]int) string {
	parts := make([]string, 0, len(models.Emojis))
	for _, e := range models.Emojis {
		parts = append(parts, fmt.Sprintf("%s %d", e, counts[e]))
	}
	return strings.Join(parts, "  ")
}

// Create prompts for a new post. Staff only.
func (a *App) Create(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}
	tags, err := GetTags(a.reader, "Tags", a.out)
	if err != nil {
		return err
	}

	p, err := a.posts.Create(ctx, models.PostInput{Title: title, Content: content, TagNames: tags})
	if err != nil {
		return err
	}
	a.printf("Created post #%d\n", p.ID)
	return nil
}

// Edit updates a post. Empty answers keep the current values.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := parseID(args, "edit <id>")
	if err != nil {
		return err
	}
	current, err := a.posts.Get(ctx, id)
	if err != nil {
		return err
	}

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", current.Title), a.out)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Content (empty keeps the current text)", a.out)
	if err != nil {
		return err
	}
	tags, err := GetTags(a.reader, fmt.Sprintf("Tags [%s]", tagNames(current.Tags)), a.out)
	if err != nil {
		return err
	}

	p, err := a.posts.Update(ctx, id, models.PostInput{Title: title, Content: content, TagNames: tags})
	if err != nil {
		return err
	}
	a.printf("Updated post #%d\n", p.ID)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete <id>")
	if err != nil {
		return err
	}
	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete post #%d? (y/N)", id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		a.println("Cancelled")
		return nil
	}

	if err := a.posts.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted post #%d\n", id)
	return nil
}

func (a *App) Comment(ctx context.Context, args []string) error {
	id, err := parseID(args, "comment <id>")
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Comment", a.out)
	if err != nil {
		return err
	}

	if _, err := a.posts.Comment(ctx, id, content); err != nil {
		return err
	}
	a.println("Comment added")
	return nil
}

// React toggles a reaction: react <id> <emoji>.
func (a *App) React(ctx context.Context, args []string) error {
	id, err := parseID(args, "react <id> <"+strings.Join(models.Emojis, "|")+">")
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: react <id> <%s>", common.ErrValidation, strings.Join(models.Emojis, "|"))
	}

	p, err := a.posts.React(ctx, id, strings.ToUpper(args[1]))
	if err != nil {
		return err
	}
	a.println("reactions:", reactionLine(p.ReactionCounts))
	return nil
}

// Suggest asks for an AI rewrite of a post's content or of the typed text.
func (a *App) Suggest(ctx context.Context, args []string) error {
	id, err := parseID(args, "suggest <id>")
	if err != nil {
		return err
	}
	text, err := GetMultiline(a.reader, "Text to improve (empty uses the post content)", a.out)
	if err != nil {
		return err
	}

	suggestion, err := a.posts.Suggest(ctx, id, text)
	if err != nil {
		return err
	}
	a.println("Suggestion:")
	a.println(suggestion)
	return nil
}

func (a *App) Tags(ctx context.Context) error {
	tags, err := a.posts.Tags(ctx)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		a.println("No tags")
		return nil
	}
	for _, t := range tags {
		a.printf("%s (list %s)\n", t.Name, t.Slug)
	}
	return nil
}

func (a *App) Author(ctx context.Context, args []string) error {
	id, err := parseID(args, "author <id>")
	if err != nil {
		return err
	}
	profile, err := a.posts.Author(ctx, id)
	if err != nil {
		return err
	}

	a.printf("%s <%s>, %d post(s)\n", profile.Author.Username, profile.Author.Email, len(profile.Posts))
	for _, p := range profile.Posts {
		a.printf("  #%d  %s\n", p.ID, p.Title)
	}
	return nil
}
