package client

import (
	"context"
	"io"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var out []Post
	res, err := c.r(ctx, "").SetResult(&out).Get("/api/posts")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var out Post
	res, err := c.r(ctx, "").
		SetPathParam("id", id).
		SetResult(&out).
		Get("/api/posts/{id}")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost publishes a post. imageURL is optional, usually the result
// of UploadImage.
func (c *Client) CreatePost(ctx context.Context, token, content, imageURL string) (*Post, error) {
	var out Post
	res, err := c.r(ctx, token).
		SetBody(models.CreatePostRequest{Content: content, ImageURL: imageURL}).
		SetResult(&out).
		Post("/api/posts")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePost(ctx context.Context, token, id string) error {
	return check(c.r(ctx, token).SetPathParam("id", id).Delete("/api/posts/{id}"))
}

// Vote toggles the caller's vote. Voting the same direction twice
// clears it.
func (c *Client) Vote(ctx context.Context, token, postID string, d Direction) (*Post, error) {
	var out Post
	res, err := c.r(ctx, token).
		SetPathParam("id", postID).
		SetBody(models.VoteRequest{Direction: string(d)}).
		SetResult(&out).
		Post("/api/posts/{id}/vote")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Comments(ctx context.Context, postID string) ([]Comment, error) {
	var out []Comment
	res, err := c.r(ctx, "").
		SetPathParam("id", postID).
		SetResult(&out).
		Get("/api/posts/{id}/comments")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Comment(ctx context.Context, token, postID, content string) (*Comment, error) {
	var out Comment
	res, err := c.r(ctx, token).
		SetPathParam("id", postID).
		SetBody(models.CreateCommentRequest{Content: content}).
		SetResult(&out).
		Post("/api/posts/{id}/comments")
	if err := check(res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage stores an image and returns the URL to attach to a post.
func (c *Client) UploadImage(ctx context.Context, token, fileName string, r io.Reader) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	res, err := c.r(ctx, token).
		SetMultipartField("image", fileName, "application/octet-stream", r).
		SetResult(&out).
		Post("/api/images")
	if err := check(res, err); err != nil {
		return "", err
	}
	return out.URL, nil
}
