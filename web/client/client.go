// Package client reads articles from the blog's REST API. It backs the
// front-end tier that renders articles without touching the database.
package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blogblazor/blog/database/model"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

// DefaultMaxItems caps GetArticles when the caller passes no limit.
const DefaultMaxItems = 10

const defaultTimeout = 10 * time.Second

// ArticleClient talks to /api/articles on one blog host.
type ArticleClient struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration
}

// NewArticleClient creates a client for the host at baseURL, for example
// "http://localhost:8080/".
func NewArticleClient(baseURL string) *ArticleClient {
	return &ArticleClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			Name:                "blog-client",
			MaxIdleConnDuration: time.Minute,
			ReadTimeout:         defaultTimeout,
			WriteTimeout:        defaultTimeout,
		},
		timeout: defaultTimeout,
	}
}

// GetArticles returns at most maxItems articles in the order the API lists
// them. maxItems <= 0 means DefaultMaxItems.
func (c *ArticleClient) GetArticles(ctx context.Context, maxItems int) ([]model.Article, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	status, body, err := c.get(ctx, "/api/articles")
	if err != nil {
		return nil, err
	}
	if status != fasthttp.StatusOK {
		return nil, fmt.Errorf("list articles: unexpected status %d", status)
	}

	articles := make([]model.Article, 0)
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	if len(articles) > maxItems {
		articles = articles[:maxItems]
	}
	return articles, nil
}

// GetArticleById returns the article, or false when the API answers 404.
func (c *ArticleClient) GetArticleById(ctx context.Context, id int) (*model.Article, bool, error) {
	status, body, err := c.get(ctx, "/api/articles/"+strconv.Itoa(id))
	if err != nil {
		return nil, false, err
	}
	switch status {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("get article %d: unexpected status %d", id, status)
	}

	article := &model.Article{}
	if err := json.Unmarshal(body, article); err != nil {
		return nil, false, fmt.Errorf("decode article %d: %w", id, err)
	}
	return article, true, nil
}

func (c *ArticleClient) get(ctx context.Context, path string) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, fmt.Errorf("GET %s: %w", path, err)
	}

	// the body is only valid until resp is released
	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}
