package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Pacer gates outbound requests. *ratelimit.Limiter satisfies it.
type Pacer interface {
	Acquire(ctx context.Context) error
}

// Fetcher is the crawl orchestrator's view of the API. It exists so tests can
// substitute a mock catalog.
type Fetcher interface {
	ListCourses(ctx context.Context) ([]Course, error)
	GetCourseContent(ctx context.Context, courseSlug string) (CourseContent, error)
	ListSubchapters(ctx context.Context, chapterID string) ([]Subchapter, error)
	GetSubchapterDetail(ctx context.Context, courseSlug, subchapterSlug string) (*SubchapterDetail, error)
}

// Client talks to the Gradient Academy private API. The underlying
// http.Client and header set are immutable after construction, so a single
// Client may be shared across worker goroutines; pacing is the limiter's job.
type Client struct {
	baseURL     string
	token       string
	courseLimit int
	httpClient  *http.Client
	pacer       Pacer
	logger      *zap.Logger
}

// Config controls Client construction.
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	CourseLimit int
}

// NewClient builds a Client. The pacer is required; pass ratelimit.New(0) to
// disable pacing.
func NewClient(cfg Config, pacer Pacer, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if pacer == nil {
		return nil, fmt.Errorf("pacer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	courseLimit := cfg.CourseLimit
	if courseLimit <= 0 {
		courseLimit = 50
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		courseLimit: courseLimit,
		httpClient:  &http.Client{Timeout: timeout},
		pacer:       pacer,
		logger:      logger,
	}, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// ListCourses fetches the full course list and validates each record.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	var body struct {
		Data []Course `json:"data"`
	}
	path := fmt.Sprintf("/courses/v2/private/?limit=%d", c.courseLimit)
	if err := c.getJSON(ctx, path, &body); err != nil {
		return nil, err
	}
	courses := make([]Course, 0, len(body.Data))
	for _, course := range body.Data {
		if err := course.Validate(); err != nil {
			c.logger.Warn("skipping invalid course record", zap.Error(err))
			continue
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// GetCourseContent fetches a course's chapter and book listings in one call.
func (c *Client) GetCourseContent(ctx context.Context, courseSlug string) (CourseContent, error) {
	var content CourseContent
	path := fmt.Sprintf("/courses/%s/content/", url.PathEscape(courseSlug))
	if err := c.getJSON(ctx, path, &content); err != nil {
		return CourseContent{}, err
	}
	valid := CourseContent{}
	for _, chapter := range content.Chapters {
		if err := chapter.Validate(); err != nil {
			c.logger.Warn("skipping invalid chapter record",
				zap.String("course", courseSlug), zap.Error(err))
			continue
		}
		valid.Chapters = append(valid.Chapters, chapter)
	}
	for _, book := range content.Books {
		if err := book.Validate(); err != nil {
			c.logger.Warn("skipping invalid book record",
				zap.String("course", courseSlug), zap.Error(err))
			continue
		}
		valid.Books = append(valid.Books, book)
	}
	return valid, nil
}

// ListSubchapters fetches a chapter's subchapter listing.
func (c *Client) ListSubchapters(ctx context.Context, chapterID string) ([]Subchapter, error) {
	var body struct {
		Subchapters []Subchapter `json:"subchapters"`
	}
	path := fmt.Sprintf("/courses/%s/subchapter/", url.PathEscape(chapterID))
	if err := c.getJSON(ctx, path, &body); err != nil {
		return nil, err
	}
	subchapters := make([]Subchapter, 0, len(body.Subchapters))
	for _, sub := range body.Subchapters {
		if err := sub.Validate(); err != nil {
			c.logger.Warn("skipping invalid subchapter record",
				zap.String("chapter_id", chapterID), zap.Error(err))
			continue
		}
		subchapters = append(subchapters, sub)
	}
	return subchapters, nil
}

// GetSubchapterDetail fetches the full record for one subchapter. A 404 means
// the subchapter has no detail (typically a non-video type) and returns
// (nil, nil).
func (c *Client) GetSubchapterDetail(ctx context.Context, courseSlug, subchapterSlug string) (*SubchapterDetail, error) {
	var detail SubchapterDetail
	path := fmt.Sprintf("/courses/v2/private/%s/subchapter/%s/",
		url.PathEscape(courseSlug), url.PathEscape(subchapterSlug))
	if err := c.getJSON(ctx, path, &detail); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if err := detail.Validate(); err != nil {
		return nil, fmt.Errorf("subchapter %s/%s: %w", courseSlug, subchapterSlug, err)
	}
	return &detail, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.pacer.Acquire(ctx); err != nil {
		return err
	}

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", fullURL, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, URL: fullURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", fullURL, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Origin", "https://gradient.academy")
	req.Header.Set("Referer", "https://gradient.academy/")
}
