// Package api is the HTTP client for the postboard REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/postboard/internal/netx"
)

const dialTimeout = 10 * time.Second

// Client talks to one postboard server. The bearer token is attached to
// every request once SetToken has been called.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu    sync.RWMutex
	token string
}

// New returns a Client for baseURL with a per-request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	dialer := &net.Dialer{Timeout: dialTimeout}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: &http.Transport{DialContext: dialer.DialContext},
			Timeout:   timeout,
		},
		now: time.Now,
	}
}

// SetToken sets the bearer token; an empty token makes calls anonymous.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", netx.BearerHeader(token))
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.newRequest(ctx, method, path, bytes.NewReader(b), "application/json")
}

// do sends req and decodes a 2xx JSON body into out, which may be nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return errorFromResponse(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/healthz", nil, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, email, password string) (*Account, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/accounts/signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var resp signupResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

// Login exchanges credentials for a token. It does not call SetToken.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/accounts/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	return &LoginResult{
		Token:     resp.Token,
		AccountID: resp.AccountID,
		ExpiresIn: ttl,
		ExpiresAt: c.now().Add(ttl),
	}, nil
}

// ListPosts returns one page of posts. Paging is sent only when both
// pageSize and page are positive; otherwise the whole list is returned.
func (c *Client) ListPosts(ctx context.Context, pageSize, page int) (*PostsPage, error) {
	path := "/posts"
	if pageSize > 0 && page > 0 {
		q := url.Values{}
		q.Set("pagesize", strconv.Itoa(pageSize))
		q.Set("page", strconv.Itoa(page))
		path += "?" + q.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}

	var resp PostsPage
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, err
	}

	var p Post
	if err := c.do(req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePost uploads in.ImageFile together with the title and content.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	if in.ImageFile == "" {
		return nil, fmt.Errorf("%w: image file is required", ErrBadRequest)
	}
	return c.sendPost(ctx, http.MethodPost, "/posts", in)
}

// UpdatePost replaces a post's fields. Without in.ImageFile the image at
// in.ImagePath is kept.
func (c *Client) UpdatePost(ctx context.Context, id string, in PostInput) (*Post, error) {
	return c.sendPost(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), in)
}

// DeletePost removes a post owned by the current account.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) sendPost(ctx context.Context, method, path string, in PostInput) (*Post, error) {
	body, contentType, err := multipartBody(in)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}

	var resp postResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp.Post, nil
}

// multipartBody encodes in as multipart/form-data. The image part carries
// a content type guessed from the file extension.
func multipartBody(in PostInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{{"title", in.Title}, {"content", in.Content}}
	if in.ImageFile == "" {
		fields = append(fields, [2]string{"imagePath", in.ImagePath})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if in.ImageFile != "" {
		if err := writeImagePart(w, in.ImageFile); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeImagePart(w *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		ct = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	return nil
}
