package datasource

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

var _ topics.Fetcher = (*SQLiteStore)(nil)

type nodeRow struct {
	id, name, level string
	weight          int
	description     string
	parent          string
	position        int
}

type topicRow struct {
	nodeID, topicID, text string
	position              int
}

// createClusterDB writes a pipeline database with the given rows.
func createClusterDB(t *testing.T, path string, nodes []nodeRow, topicRows []topicRow) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("create test database: %v", err)
	}
	defer db.Close()

	nodesSQL := `
		CREATE TABLE cluster_nodes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			level TEXT NOT NULL,
			weight INTEGER NOT NULL DEFAULT 0,
			description TEXT,
			parent_id TEXT,
			position INTEGER NOT NULL
		)
	`
	if _, err := db.Exec(nodesSQL); err != nil {
		t.Fatalf("create cluster_nodes: %v", err)
	}
	topicsSQL := `
		CREATE TABLE topics (
			node_id TEXT NOT NULL,
			topic_id TEXT NOT NULL,
			text TEXT NOT NULL,
			position INTEGER NOT NULL
		)
	`
	if _, err := db.Exec(topicsSQL); err != nil {
		t.Fatalf("create topics: %v", err)
	}

	for _, n := range nodes {
		var desc, parent any
		if n.description != "" {
			desc = n.description
		}
		if n.parent != "" {
			parent = n.parent
		}
		_, err := db.Exec(
			`INSERT INTO cluster_nodes (id, name, level, weight, description, parent_id, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.id, n.name, n.level, n.weight, desc, parent, n.position,
		)
		if err != nil {
			t.Fatalf("insert node %s: %v", n.id, err)
		}
	}
	for _, r := range topicRows {
		_, err := db.Exec(
			`INSERT INTO topics (node_id, topic_id, text, position) VALUES (?, ?, ?, ?)`,
			r.nodeID, r.topicID, r.text, r.position,
		)
		if err != nil {
			t.Fatalf("insert topic %s: %v", r.topicID, err)
		}
	}
}

// fixtureNodes returns the standard two-category tree. Sibling rows are
// deliberately inserted out of position order so ordering must come from the
// position column, not insert order.
func fixtureNodes() []nodeRow {
	return []nodeRow{
		{id: "l2-1", name: "Coding Help", level: "l2", weight: 600, description: "Questions about programming", position: 0},
		{id: "l1-2", name: "Code Review", level: "l1", weight: 200, parent: "l2-1", position: 1},
		{id: "l1-1", name: "Debugging", level: "l1", weight: 400, parent: "l2-1", position: 0},
		{id: "l0-2", name: "Off by one", level: "l0", weight: 150, parent: "l1-1", position: 1},
		{id: "l0-1", name: "Stack traces", level: "l0", weight: 250, parent: "l1-1", position: 0},
		{id: "l2-2", name: "Writing", level: "l2", weight: 300, position: 1},
		{id: "l1-3", name: "Essays", level: "l1", weight: 300, parent: "l2-2", position: 0},
	}
}

func fixtureTopics() []topicRow {
	return []topicRow{
		{nodeID: "l0-1", topicID: "t-2", text: "Segfault in a C extension", position: 1},
		{nodeID: "l0-1", topicID: "t-1", text: "Reading a Go panic trace", position: 0},
		{nodeID: "l0-2", topicID: "t-3", text: "Loop bounds mistake", position: 0},
	}
}

func openFixtureStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clusters.db")
	createClusterDB(t, path, fixtureNodes(), fixtureTopics())

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenSQLite_MissingFile(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Fatal("expected error opening a missing database")
	}
}

func TestLoadHierarchy_BuildsTree(t *testing.T) {
	store := openFixtureStore(t)

	tops, err := store.LoadHierarchy(context.Background())
	if err != nil {
		t.Fatalf("LoadHierarchy failed: %v", err)
	}
	if len(tops) != 2 {
		t.Fatalf("expected 2 top-level clusters, got %d", len(tops))
	}

	coding := tops[0]
	if coding.ID != "l2-1" || coding.Name != "Coding Help" {
		t.Errorf("expected l2-1 first, got %s (%s)", coding.ID, coding.Name)
	}
	if coding.Level != hierarchy.LevelL2 {
		t.Errorf("expected level l2, got %s", coding.Level)
	}
	if coding.Weight != 600 {
		t.Errorf("expected weight 600, got %d", coding.Weight)
	}
	if coding.Description != "Questions about programming" {
		t.Errorf("unexpected description %q", coding.Description)
	}
	if tops[1].Description != "" {
		t.Errorf("NULL description should stay empty, got %q", tops[1].Description)
	}

	// Children follow the position column, not insert order.
	if len(coding.Children) != 2 {
		t.Fatalf("expected 2 children under l2-1, got %d", len(coding.Children))
	}
	if coding.Children[0].ID != "l1-1" || coding.Children[1].ID != "l1-2" {
		t.Errorf("expected children [l1-1 l1-2], got [%s %s]",
			coding.Children[0].ID, coding.Children[1].ID)
	}

	debugging := coding.Children[0]
	if len(debugging.Children) != 2 {
		t.Fatalf("expected 2 leaves under l1-1, got %d", len(debugging.Children))
	}
	if debugging.Children[0].ID != "l0-1" || debugging.Children[1].ID != "l0-2" {
		t.Errorf("expected leaves [l0-1 l0-2], got [%s %s]",
			debugging.Children[0].ID, debugging.Children[1].ID)
	}
	if got := debugging.Children[0].Level; got != hierarchy.LevelL0 {
		t.Errorf("expected leaf level l0, got %s", got)
	}
}

func TestLoadHierarchy_UnknownParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clusters.db")
	nodes := []nodeRow{
		{id: "l2-1", name: "Coding Help", level: "l2", weight: 10, position: 0},
		{id: "l1-9", name: "Orphan", level: "l1", weight: 5, parent: "l2-gone", position: 0},
	}
	createClusterDB(t, path, nodes, nil)

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer store.Close()

	_, err = store.LoadHierarchy(context.Background())
	if err == nil {
		t.Fatal("expected error for unknown parent")
	}
	if !strings.Contains(err.Error(), "l2-gone") {
		t.Errorf("error should name the missing parent, got: %v", err)
	}
}

func TestLoadHierarchy_BadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clusters.db")
	nodes := []nodeRow{
		{id: "l2-1", name: "Coding Help", level: "l9", weight: 10, position: 0},
	}
	createClusterDB(t, path, nodes, nil)

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer store.Close()

	_, err = store.LoadHierarchy(context.Background())
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
	if !strings.Contains(err.Error(), "l2-1") {
		t.Errorf("error should name the cluster, got: %v", err)
	}
}

func TestFetchTopics_OrderedByPosition(t *testing.T) {
	store := openFixtureStore(t)

	got, err := store.FetchTopics(context.Background(), "l0-1")
	if err != nil {
		t.Fatalf("FetchTopics failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(got))
	}
	if got[0].ID != "t-1" || got[1].ID != "t-2" {
		t.Errorf("expected [t-1 t-2], got [%s %s]", got[0].ID, got[1].ID)
	}
	if got[0].Text != "Reading a Go panic trace" {
		t.Errorf("unexpected topic text %q", got[0].Text)
	}
}

func TestFetchTopics_UnknownNodeIsEmpty(t *testing.T) {
	store := openFixtureStore(t)

	got, err := store.FetchTopics(context.Background(), "l0-404")
	if err != nil {
		t.Fatalf("FetchTopics failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no topics, got %d", len(got))
	}
}

func TestSQLiteStore_ServesTopicCache(t *testing.T) {
	store := openFixtureStore(t)
	cache := topics.NewCache(store)

	entry := cache.Fetch(context.Background(), "l0-2")
	if entry.Status != topics.StatusReady {
		t.Fatalf("expected ready entry, got %v", entry.Status)
	}
	if len(entry.Topics) != 1 || entry.Topics[0].ID != "t-3" {
		t.Errorf("expected topic t-3, got %+v", entry.Topics)
	}
}
