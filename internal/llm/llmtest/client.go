// Package llmtest provides a deterministic stand-in for llm.Client.
package llmtest

import (
	"context"
	"fmt"
	"sync"
)

// Reply is one scripted completion. A non-nil Err is returned instead of Text.
type Reply struct {
	Text string
	Err  error
}

// Client returns scripted replies in order and records every prompt it receives.
type Client struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
	closed  bool

	// Respond, when set, is consulted before the scripted replies.
	Respond func(prompt string) (string, error)
}

// New returns a client that answers with texts in order.
func New(texts ...string) *Client {
	c := &Client{}
	for _, text := range texts {
		c.replies = append(c.replies, Reply{Text: text})
	}
	return c
}

// Enqueue appends scripted replies.
func (c *Client) Enqueue(replies ...Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

// Complete records the prompt and returns the next scripted reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)

	if c.Respond != nil {
		return c.Respond(prompt)
	}
	if len(c.replies) == 0 {
		return "", fmt.Errorf("llmtest: unexpected call %d", len(c.prompts))
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply.Text, reply.Err
}

// Model returns a fixed model name.
func (c *Client) Model() string {
	return "stand-in"
}

// Close marks the client closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Calls returns the number of Complete calls made so far.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// Prompts returns a copy of every prompt received, in call order.
func (c *Client) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
