package datasource

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/clustermap/pkg/debug"
	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

// SQLiteStore reads a pipeline database. The schema is two tables:
//
//	cluster_nodes(id, name, level, weight, description, parent_id, position)
//	topics(node_id, topic_id, text, position)
//
// level uses the wire spelling ("l0", "l1", "l2"); position orders siblings
// under the same parent and topics under the same node. The store also
// implements topics.Fetcher, so a SQLite session serves both the hierarchy
// and the per-leaf topics.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens a pipeline database read-only.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cluster database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open cluster database %s: %w", path, err)
	}

	// Read-tuning pragmas. Failures are harmless, connections run with
	// driver defaults instead.
	for _, pragma := range []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("sqlite pragma failed: %v", err)
		}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadHierarchy reads every cluster node and links the tree. Sibling order
// follows the position column. Rows referencing an unknown parent fail the
// load; a database that half-applies a pipeline write should be rejected,
// not rendered.
func (s *SQLiteStore) LoadHierarchy(ctx context.Context) ([]*hierarchy.ClusterNode, error) {
	query := `
		SELECT id, name, level, weight, description, parent_id
		FROM cluster_nodes
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cluster_nodes: %w", err)
	}
	defer rows.Close()

	type row struct {
		node   *hierarchy.ClusterNode
		parent string
	}
	var (
		scanned []row
		byID    = make(map[string]*hierarchy.ClusterNode)
	)
	for rows.Next() {
		var (
			id, name, level     string
			weight              int
			description, parent sql.NullString
		)
		if err := rows.Scan(&id, &name, &level, &weight, &description, &parent); err != nil {
			return nil, fmt.Errorf("scan cluster_nodes: %w", err)
		}
		lvl, err := hierarchy.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("cluster %q: %w", id, err)
		}
		node := &hierarchy.ClusterNode{
			ID:          id,
			Name:        name,
			Level:       lvl,
			Weight:      weight,
			Description: description.String,
		}
		byID[id] = node
		scanned = append(scanned, row{node: node, parent: parent.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cluster_nodes: %w", err)
	}

	// Rows arrive in global position order, so appending in scan order
	// preserves sibling order under each parent.
	var tops []*hierarchy.ClusterNode
	for _, r := range scanned {
		if r.parent == "" {
			tops = append(tops, r.node)
			continue
		}
		p, ok := byID[r.parent]
		if !ok {
			return nil, fmt.Errorf("cluster %q references unknown parent %q", r.node.ID, r.parent)
		}
		p.Children = append(p.Children, r.node)
	}
	return tops, nil
}

// FetchTopics implements topics.Fetcher from the local topics table. A node
// with no rows yields an empty list, not an error.
func (s *SQLiteStore) FetchTopics(ctx context.Context, nodeID string) ([]topics.Topic, error) {
	query := `
		SELECT topic_id, text
		FROM topics
		WHERE node_id = ?
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("query topics for %s: %w", nodeID, err)
	}
	defer rows.Close()

	var out []topics.Topic
	for rows.Next() {
		var t topics.Topic
		if err := rows.Scan(&t.ID, &t.Text); err != nil {
			return nil, fmt.Errorf("scan topics for %s: %w", nodeID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read topics for %s: %w", nodeID, err)
	}
	return out, nil
}
