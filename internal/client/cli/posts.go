package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/postboard/internal/client/api"
)

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return errLoginRequired
	}
	return nil
}

func idArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one post id")
	}
	return args[0], nil
}

// List prints posts. With two numeric arguments it prints one page.
func (a *App) List(ctx context.Context, args []string) error {
	var pageSize, page int
	switch len(args) {
	case 0:
	case 2:
		var err error
		if pageSize, err = strconv.Atoi(args[0]); err != nil || pageSize < 1 {
			return fmt.Errorf("invalid page size %q", args[0])
		}
		if page, err = strconv.Atoi(args[1]); err != nil || page < 1 {
			return fmt.Errorf("invalid page %q", args[1])
		}
	default:
		return fmt.Errorf("usage: list [pagesize page]")
	}

	res, err := a.api.ListPosts(ctx, pageSize, page)
	if err != nil {
		return err
	}

	if len(res.Posts) == 0 {
		fmt.Fprintln(a.out, "No posts.")
	}
	mine := a.ownID()
	for _, p := range res.Posts {
		marker := " "
		if mine != "" && p.Creator == mine {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %s\n", marker, p.ID, p.Title)
	}

	if pageSize > 0 {
		pages := (res.TotalPosts + pageSize - 1) / pageSize
		fmt.Fprintf(a.out, "Page %d of %d, %d posts total\n", page, pages, res.TotalPosts)
	} else {
		fmt.Fprintf(a.out, "%d posts total\n", res.TotalPosts)
	}
	return nil
}

func (a *App) ownID() string {
	if s := a.currentSession(); s != nil {
		return s.AccountID
	}
	return ""
}

// Show prints a single post.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}

	p, err := a.api.GetPost(ctx, id)
	if err != nil {
		return err
	}
	a.printPost(p)
	return nil
}

func (a *App) printPost(p *api.Post) {
	fmt.Fprintf(a.out, "ID:      %s\n", p.ID)
	fmt.Fprintf(a.out, "Title:   %s\n", p.Title)
	fmt.Fprintf(a.out, "Image:   %s\n", p.ImagePath)
	fmt.Fprintf(a.out, "Creator: %s\n", p.Creator)
	fmt.Fprintln(a.out, p.Content)
}

// Add prompts for a title, content and an image file and creates a post.
func (a *App) Add(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}
	image, err := getSimpleText(a.reader, "Image file (png or jpeg)", a.out)
	if err != nil {
		return err
	}

	p, err := a.api.CreatePost(ctx, api.PostInput{Title: title, Content: content, ImageFile: image})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Post added: %s\n", p.ID)
	return nil
}

// Edit shows the current values and prompts for replacements. An empty
// answer keeps the current value, including the stored image.
func (a *App) Edit(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := idArg(args)
	if err != nil {
		return err
	}

	cur, err := a.api.GetPost(ctx, id)
	if err != nil {
		return err
	}

	in := api.PostInput{Title: cur.Title, Content: cur.Content, ImagePath: cur.ImagePath}

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", cur.Title), a.out)
	if err != nil {
		return err
	}
	if title != "" {
		in.Title = title
	}

	content, err := GetMultiline(a.reader, "Content (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if content != "" {
		in.Content = content
	}

	image, err := getSimpleText(a.reader, "New image file (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	in.ImageFile = image

	p, err := a.api.UpdatePost(ctx, id, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Post updated: %s\n", p.ID)
	return nil
}

// Delete removes a post owned by the logged-in account.
func (a *App) Delete(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := idArg(args)
	if err != nil {
		return err
	}

	if err := a.api.DeletePost(ctx, id); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Deletion successful!")
	return nil
}
