package datasource

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
	"github.com/vanderheijden86/clustermap/pkg/metrics"
	"github.com/vanderheijden86/clustermap/pkg/topics"
)

// Load reads the top-level clusters from a source and validates the tree.
// Errors carry the source path. For one-shot reads (robot modes, snapshot
// export); interactive sessions use Open so SQLite topic fetches share the
// handle.
func Load(ctx context.Context, src DataSource) ([]*hierarchy.ClusterNode, error) {
	defer metrics.Timer(metrics.HierarchyLoad)()

	tops, err := loadTops(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Path, err)
	}
	if err := hierarchy.Validate(hierarchy.NewRoot(tops)); err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Path, err)
	}
	return tops, nil
}

// LoadTree is Load with the tops wrapped in the synthetic root.
func LoadTree(ctx context.Context, src DataSource) (*hierarchy.ClusterNode, error) {
	tops, err := Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return hierarchy.NewRoot(tops), nil
}

func loadTops(ctx context.Context, src DataSource) ([]*hierarchy.ClusterNode, error) {
	switch src.Kind {
	case KindJSON:
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, err
		}
		return hierarchy.ParseJSON(data)

	case KindSQLite:
		store, err := OpenSQLite(src.Path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadHierarchy(ctx)

	case KindHTTP:
		return FetchHierarchy(ctx, nil, src.Path)

	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// Session is an open data source for an interactive run: the loaded tree
// plus the source's topics side, reloadable when the watcher sees the file
// change. Session itself implements topics.Fetcher so the topic cache keeps
// working across reloads that swap the underlying handle.
type Session struct {
	Source DataSource

	mu      sync.RWMutex
	root    *hierarchy.ClusterNode
	store   *SQLiteStore // non-nil only for SQLite sources
	fetcher topics.Fetcher
}

// Open loads the hierarchy and wires the source's topic fetcher: the SQLite
// store itself for databases, an HTTPTopicFetcher for endpoints, nothing for
// plain JSON documents.
func Open(ctx context.Context, src DataSource) (*Session, error) {
	s := &Session{Source: src}

	switch src.Kind {
	case KindSQLite:
		store, err := OpenSQLite(src.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", src.Path, err)
		}
		tops, err := store.LoadHierarchy(ctx)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("open %s: %w", src.Path, err)
		}
		if err := validateTops(src, tops); err != nil {
			store.Close()
			return nil, err
		}
		s.store = store
		s.fetcher = store
		s.root = hierarchy.NewRoot(tops)

	case KindHTTP:
		tops, err := Load(ctx, src)
		if err != nil {
			return nil, err
		}
		s.fetcher = NewHTTPTopicFetcher(src.Path, nil)
		s.root = hierarchy.NewRoot(tops)

	default:
		tops, err := Load(ctx, src)
		if err != nil {
			return nil, err
		}
		s.root = hierarchy.NewRoot(tops)
	}

	return s, nil
}

func validateTops(src DataSource, tops []*hierarchy.ClusterNode) error {
	if err := hierarchy.Validate(hierarchy.NewRoot(tops)); err != nil {
		return fmt.Errorf("load %s: %w", src.Path, err)
	}
	return nil
}

// Root returns the current tree.
func (s *Session) Root() *hierarchy.ClusterNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// SetTopicEndpoint points the session's topic side at an HTTP collaborator.
// This is how plain file sources, which carry no topics of their own, get
// them. Reloads of file sources keep the override; SQLite reloads revert to
// the database's topics.
func (s *Session) SetTopicEndpoint(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetcher = NewHTTPTopicFetcher(base, nil)
}

// HasTopics reports whether this source can serve topics at all. JSON
// documents cannot; the outline shows leaves without topic rows.
func (s *Session) HasTopics() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetcher != nil
}

// FetchTopics implements topics.Fetcher by delegating to the source's
// fetcher. Sources with no topics side return empty lists, so leaves render
// as ready-with-nothing rather than erroring.
func (s *Session) FetchTopics(ctx context.Context, nodeID string) ([]topics.Topic, error) {
	s.mu.RLock()
	f := s.fetcher
	s.mu.RUnlock()
	if f == nil {
		return nil, nil
	}
	return f.FetchTopics(ctx, nodeID)
}

// Reload re-reads the source and swaps the tree. SQLite reopens the
// database, since the pipeline replaces the file wholesale and a held
// handle would keep reading the old inode. On error the previous tree and
// handle stay live.
func (s *Session) Reload(ctx context.Context) (*hierarchy.ClusterNode, error) {
	switch s.Source.Kind {
	case KindSQLite:
		store, err := OpenSQLite(s.Source.Path)
		if err != nil {
			return nil, fmt.Errorf("reload %s: %w", s.Source.Path, err)
		}
		tops, err := store.LoadHierarchy(ctx)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("reload %s: %w", s.Source.Path, err)
		}
		if err := validateTops(s.Source, tops); err != nil {
			store.Close()
			return nil, err
		}
		root := hierarchy.NewRoot(tops)
		s.mu.Lock()
		old := s.store
		s.store = store
		s.fetcher = store
		s.root = root
		s.mu.Unlock()
		if old != nil {
			old.Close()
		}
		return root, nil

	default:
		tops, err := Load(ctx, s.Source)
		if err != nil {
			return nil, err
		}
		root := hierarchy.NewRoot(tops)
		s.mu.Lock()
		s.root = root
		s.mu.Unlock()
		return root, nil
	}
}

// Close releases any underlying handle.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		err := s.store.Close()
		s.store = nil
		s.fetcher = nil
		return err
	}
	return nil
}
