// Package search finds blood banks and donation camps near a city through a
// programmable web search API.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUpstream wraps every failure of the search provider.
var ErrUpstream = errors.New("search provider unavailable")

type Config struct {
	BaseURL  string
	APIKey   string
	EngineID string
	Timeout  time.Duration
}

type Place struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type Locations struct {
	Banks []Place `json:"banks"`
	Camps []Place `json:"camps"`
}

type Client struct {
	http     *resty.Client
	baseURL  string
	apiKey   string
	engineID string
}

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
}

type searchError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func New(cfg Config) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
	}
}

// Configured reports whether credentials are present. An unconfigured client
// fails every lookup with ErrUpstream.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.engineID != ""
}

type kind int

const (
	kindBank kind = iota
	kindCamp
)

var queries = []struct {
	format string
	kind   kind
}{
	{"blood bank in %s", kindBank},
	{"blood donation camp in %s", kindCamp},
}

var (
	campWords = []string{"camp", "drive", "event"}
	bankWords = []string{"blood bank", "blood centre", "blood center", "hospital"}
)

// FindLocations runs the bank and camp queries for city and returns the
// classified, link-deduplicated results.
func (c *Client) FindLocations(ctx context.Context, city string) (*Locations, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("city is required")
	}
	if !c.Configured() {
		return nil, fmt.Errorf("%w: search credentials not configured", ErrUpstream)
	}

	out := &Locations{Banks: []Place{}, Camps: []Place{}}
	seen := make(map[string]bool)
	for _, q := range queries {
		items, err := c.query(ctx, fmt.Sprintf(q.format, city))
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if it.Link == "" || seen[it.Link] {
				continue
			}
			seen[it.Link] = true
			if classify(it, q.kind) == kindCamp {
				out.Camps = append(out.Camps, it)
			} else {
				out.Banks = append(out.Banks, it)
			}
		}
	}
	return out, nil
}

func (c *Client) query(ctx context.Context, q string) ([]Place, error) {
	var res searchResponse
	var serr searchError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": c.apiKey,
			"cx":  c.engineID,
			"q":   q,
		}).
		SetResult(&res).
		SetError(&serr).
		ForceContentType("application/json").
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		msg := serr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode(), msg)
	}

	places := make([]Place, 0, len(res.Items))
	for _, it := range res.Items {
		places = append(places, Place{
			Name:    strings.TrimSpace(it.Title),
			Snippet: strings.TrimSpace(it.Snippet),
			Link:    it.Link,
		})
	}
	return places, nil
}

// classify sorts a result by its wording, falling back to the query it came from.
func classify(p Place, fallback kind) kind {
	text := strings.ToLower(p.Name + " " + p.Snippet)
	for _, w := range campWords {
		if strings.Contains(text, w) {
			return kindCamp
		}
	}
	for _, w := range bankWords {
		if strings.Contains(text, w) {
			return kindBank
		}
	}
	return fallback
}
