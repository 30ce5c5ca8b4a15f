package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

// httpTimeout bounds hierarchy and topic requests when the caller's context
// carries no deadline of its own.
const httpTimeout = 15 * time.Second

// maxBodySize caps response bodies. A hierarchy document for even the
// largest dataset tier is well under this.
const maxBodySize = 16 << 20

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// FetchHierarchy GETs the hierarchy document from a collaborator base URL
// and parses the JSON wire shape. The collaborator serves the tree at
// {base}/clusters and per-leaf topics at {base}/clusters/{id}/topics.
func FetchHierarchy(ctx context.Context, client *http.Client, base string) ([]*hierarchy.ClusterNode, error) {
	if client == nil {
		client = newHTTPClient()
	}
	body, err := getBody(ctx, client, strings.TrimRight(base, "/")+"/clusters")
	if err != nil {
		return nil, err
	}
	return hierarchy.ParseJSON(body)
}

// HTTPTopicFetcher implements topics.Fetcher against the hierarchy
// collaborator: GET {base}/clusters/{id}/topics, where the body is either a
// JSON array of topics or an object with a "topics" array.
type HTTPTopicFetcher struct {
	base   string
	client *http.Client
}

// NewHTTPTopicFetcher builds a fetcher for the given base URL. A nil client
// gets the default with a request timeout.
func NewHTTPTopicFetcher(base string, client *http.Client) *HTTPTopicFetcher {
	if client == nil {
		client = newHTTPClient()
	}
	return &HTTPTopicFetcher{
		base:   strings.TrimRight(base, "/"),
		client: client,
	}
}

// FetchTopics implements topics.Fetcher.
func (f *HTTPTopicFetcher) FetchTopics(ctx context.Context, nodeID string) ([]topics.Topic, error) {
	u := f.base + "/clusters/" + url.PathEscape(nodeID) + "/topics"
	body, err := getBody(ctx, f.client, u)
	if err != nil {
		return nil, err
	}
	return parseTopics(body)
}

func getBody(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return body, nil
}

// parseTopics accepts both body shapes the collaborator has served: a bare
// array and an object wrapping a "topics" array.
func parseTopics(body []byte) ([]topics.Topic, error) {
	trimmed := strings.TrimLeftFunc(string(body), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if strings.HasPrefix(trimmed, "{") {
		var doc struct {
			Topics []topics.Topic `json:"topics"`
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("parse topics: %w", err)
		}
		return doc.Topics, nil
	}
	var list []topics.Topic
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	return list, nil
}
