package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/testutil"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

func TestDetailKey(t *testing.T) {
	leaf := "test-l0-0-0-0"
	cache := topics.NewCache(testutil.StaticFetcher(map[string][]topics.Topic{
		leaf: testutil.TopicsFor(leaf, 2),
	}))
	d := NewDetailModel(testutil.QuickRoot(), cache, true, TestTheme())

	if got := d.detailKey(); got != "_none_" {
		t.Errorf("empty selection key = %q", got)
	}

	d.SetNode(leaf)
	if got := d.detailKey(); got != leaf {
		t.Errorf("unfetched key = %q; want bare id", got)
	}

	cache.Fetch(context.Background(), leaf)
	if got := d.detailKey(); got != leaf+"/ready/2" {
		t.Errorf("settled key = %q", got)
	}
}

func TestDetailMarkdownForTheme(t *testing.T) {
	d := NewDetailModel(testutil.QuickRoot(), nil, false, TestTheme())
	d.SetNode("test-l1-0-0")

	md := d.buildMarkdown()
	for _, want := range []string{
		"## Debugging",
		"**Path:** Coding Help",
		"**Level:** L1",
		"**Conversations:**",
		"of Coding Help)",
		"**Sub-clusters: 3**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestDetailMarkdownForCategory(t *testing.T) {
	d := NewDetailModel(testutil.QuickRoot(), nil, false, TestTheme())
	d.SetNode("test-l2-0")

	md := d.buildMarkdown()
	if strings.Contains(md, "**Path:**") {
		t.Error("top-level category should carry no path line")
	}
	if !strings.Contains(md, "**Level:** L2") {
		t.Errorf("missing level line:\n%s", md)
	}
}

func TestDetailMarkdownChildrenCap(t *testing.T) {
	tops := testutil.NewDefault().Balanced(1, 1, 12)
	d := NewDetailModel(hierarchy.NewRoot(tops), nil, false, TestTheme())
	d.SetNode(tops[0].Children[0].ID)

	md := d.buildMarkdown()
	if !strings.Contains(md, "**Sub-clusters: 12**") {
		t.Fatalf("missing sub-cluster count:\n%s", md)
	}
	if !strings.Contains(md, "… and 4 more") {
		t.Errorf("tail not summarised:\n%s", md)
	}
}

func TestDetailMarkdownDescription(t *testing.T) {
	tops := testutil.QuickBalanced()
	tops[0].Description = "Everything about getting code to work."
	d := NewDetailModel(hierarchy.NewRoot(tops), nil, false, TestTheme())
	d.SetNode(tops[0].ID)

	if md := d.buildMarkdown(); !strings.Contains(md, "Everything about getting code to work.") {
		t.Errorf("description missing:\n%s", md)
	}
}

func TestDetailMarkdownTopics(t *testing.T) {
	leaf := "test-l0-0-0-0"
	cache := topics.NewCache(testutil.StaticFetcher(map[string][]topics.Topic{
		leaf: testutil.TopicsFor(leaf, 2),
	}))
	d := NewDetailModel(testutil.QuickRoot(), cache, true, TestTheme())
	d.SetNode(leaf)

	if md := d.buildMarkdown(); !strings.Contains(md, "Topics not loaded") {
		t.Errorf("unfetched leaf:\n%s", md)
	}

	cache.Fetch(context.Background(), leaf)
	md := d.buildMarkdown()
	if !strings.Contains(md, "**Topics: 2**") {
		t.Errorf("missing topic count:\n%s", md)
	}
	if !strings.Contains(md, "Sample conversation 1 under "+leaf) {
		t.Errorf("missing topic text:\n%s", md)
	}
}

func TestDetailMarkdownTopicError(t *testing.T) {
	leaf := "test-l0-0-0-0"
	cache := topics.NewCache(topics.FetcherFunc(func(ctx context.Context, id string) ([]topics.Topic, error) {
		return nil, errors.New("connection refused")
	}))
	d := NewDetailModel(testutil.QuickRoot(), cache, true, TestTheme())
	d.SetNode(leaf)
	cache.Fetch(context.Background(), leaf)

	md := d.buildMarkdown()
	if !strings.Contains(md, "**Topic fetch failed:** connection refused") {
		t.Errorf("error not surfaced:\n%s", md)
	}
}

func TestDetailMarkdownNoSelection(t *testing.T) {
	d := NewDetailModel(testutil.QuickRoot(), nil, false, TestTheme())
	d.SetNode("does-not-exist")
	if md := d.buildMarkdown(); !strings.Contains(md, "No selection") {
		t.Errorf("placeholder missing:\n%s", md)
	}
}

func TestDetailViewRendersAndScrolls(t *testing.T) {
	d := NewDetailModel(testutil.QuickRoot(), nil, false, TestTheme())
	d.SetSize(60, 12)
	d.SetNode("test-l2-0")

	view := d.View()
	if view == "" {
		t.Fatal("View returned nothing")
	}
	if !strings.Contains(view, "Coding Help") {
		t.Errorf("rendered view missing the cluster name:\n%s", view)
	}

	// Scrolling and re-rendering must not rebuild or panic.
	d.ScrollDown(3)
	d.ScrollUp(1)
	_ = d.View()

	d.SetSize(0, 0)
	if got := d.View(); got != "" {
		t.Errorf("zero-size View = %q; want empty", got)
	}
}

func TestDetailSetRootInvalidatesContent(t *testing.T) {
	d := NewDetailModel(testutil.QuickRoot(), nil, false, TestTheme())
	d.SetSize(60, 12)
	d.SetNode("test-l2-0")
	_ = d.View()

	d.SetRoot(testutil.QuickRoot())
	if d.lastKey != "" {
		t.Error("SetRoot should force a rebuild on the next View")
	}
}
