// Package chat talks to the external sales assistant webhook.
//
// Contract: POST application/json {"question": string, "today": "YYYY-MM-DD"}
// and expect 2xx with application/json
//
//	{"message": {"content": string}, "timestamp"?: string}
//
// which is what the chat-model node of the webhook workflow answers.
// message.content must be a non-empty string; other fields are ignored. Any
// other reply is rejected as ErrBadResponse.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrUpstream      = errors.New("assistant webhook failed")
	ErrBadResponse   = errors.New("assistant webhook returned an unexpected response")
)

type Request struct {
	Question string `json:"question"`
	Today    string `json:"today"`
}

// Response is the assistant answer flattened out of the webhook reply.
type Response struct {
	Content   string
	Timestamp string
}

type reply struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

type Client struct {
	http   *resty.Client
	url    string
	apiKey string
	loc    *time.Location
	now    func() time.Time
}

type Option func(*Client)

// WithClock overrides time.Now, used to pin the "today" field.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(url, apiKey string, timeout time.Duration, loc *time.Location, opts ...Option) *Client {
	if loc == nil {
		loc = time.UTC
	}
	c := &Client{
		http:   resty.New().SetTimeout(timeout),
		url:    url,
		apiKey: apiKey,
		loc:    loc,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Today formats the current date in the store time zone.
func (c *Client) Today() string {
	return c.now().In(c.loc).Format("2006-01-02")
}

func (c *Client) Ask(ctx context.Context, question string) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(Request{Question: question, Today: c.Today()})
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}

	resp, err := req.Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	return decode(resp.Body())
}

func decode(body []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	var out reply
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrBadResponse)
	}
	if out.Message == nil || strings.TrimSpace(out.Message.Content) == "" {
		return nil, fmt.Errorf("%w: missing message.content", ErrBadResponse)
	}
	return &Response{Content: out.Message.Content, Timestamp: out.Timestamp}, nil
}
