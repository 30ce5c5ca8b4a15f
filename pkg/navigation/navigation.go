// Package navigation holds the shared navigation state for the map and
// outline views: view root, breadcrumb, selection, sync mode, and the set of
// leaves the outline should auto-open. Both views read snapshots and
// dispatch intents through the store; neither mutates the other directly.
package navigation

import (
	"sync"
	"time"

	"github.com/vanderheijden86/clustermap/pkg/debug"
	"github.com/vanderheijden86/clustermap/pkg/hierarchy"
)

// State is an immutable snapshot of the navigation store. Slices and maps
// are copies; tree nodes are shared (the hierarchy itself is immutable).
type State struct {
	Root        *hierarchy.ClusterNode
	CurrentRoot *hierarchy.ClusterNode
	SelectedID  string
	// Breadcrumb runs from just below the true root down to CurrentRoot,
	// synthetic root excluded. Empty at the root view.
	Breadcrumb  []*hierarchy.ClusterNode
	ExpandedL0  map[string]bool
	SyncMode    bool
	LastUpdated time.Time
}

// AtRoot reports whether the view root is the top of the hierarchy.
func (st State) AtRoot() bool {
	return len(st.Breadcrumb) == 0
}

// Depth is the number of drill steps below the true root.
func (st State) Depth() int {
	return len(st.Breadcrumb)
}

type subscriber struct {
	id int
	fn func(State)
}

// Store is the observable navigation state machine. All mutators hold the
// invariant that Breadcrumb always equals the full-hierarchy ancestor chain
// of CurrentRoot. Mutations that change nothing do not notify.
type Store struct {
	mu       sync.Mutex
	root     *hierarchy.ClusterNode
	current  *hierarchy.ClusterNode
	selected string
	crumbs   []*hierarchy.ClusterNode
	expanded map[string]struct{}
	syncMode bool
	updated  time.Time

	nextSub int
	subs    []subscriber

	now func() time.Time
}

// NewStore creates a store rooted at the given hierarchy, in the root view
// with nothing selected.
func NewStore(root *hierarchy.ClusterNode) *Store {
	s := &Store{
		root:     root,
		current:  root,
		expanded: make(map[string]struct{}),
		now:      time.Now,
	}
	s.updated = s.now()
	return s
}

// Subscribe registers fn to run after every state change, with the snapshot
// that change produced. Callbacks run outside the store lock, in
// subscription order, on the mutating goroutine. The returned cancel is
// idempotent.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := State{
		Root:        s.root,
		CurrentRoot: s.current,
		SelectedID:  s.selected,
		SyncMode:    s.syncMode,
		LastUpdated: s.updated,
		ExpandedL0:  make(map[string]bool, len(s.expanded)),
	}
	if len(s.crumbs) > 0 {
		st.Breadcrumb = append([]*hierarchy.ClusterNode(nil), s.crumbs...)
	}
	for id := range s.expanded {
		st.ExpandedL0[id] = true
	}
	return st
}

// commitLocked stamps the change and captures the notification to run after
// the lock is released. Call the returned function unconditionally.
func (s *Store) commitLocked(changed bool) func() {
	if !changed {
		return func() {}
	}
	s.updated = s.now()
	st := s.snapshotLocked()
	subs := append([]subscriber(nil), s.subs...)
	return func() {
		for _, sub := range subs {
			sub.fn(st)
		}
	}
}

// SelectAndDrill makes the node the view root and selects it. Childless
// nodes are only selected: the view root and breadcrumb stay put, and L0
// leaves are added to the auto-open set. Returns true when a drill happened.
func (s *Store) SelectAndDrill(id string) bool {
	s.mu.Lock()
	path := hierarchy.AncestorPath(s.root, id)
	if path == nil {
		s.mu.Unlock()
		debug.Log("navigation: select-and-drill target %q not found", id)
		return false
	}
	node := path[len(path)-1]
	if !node.HasChildren() {
		changed := s.selectLeafLocked(node)
		notify := s.commitLocked(changed)
		s.mu.Unlock()
		notify()
		return false
	}

	changed := s.drillLocked(path)
	notify := s.commitLocked(changed)
	s.mu.Unlock()
	notify()
	return true
}

// NavigateBreadcrumb truncates the drill path to the given breadcrumb
// index. Index -1 is the root reset: breadcrumb and selection clear and the
// view root returns to the top of the hierarchy. An out-of-range index is a
// logged no-op.
func (s *Store) NavigateBreadcrumb(index int) {
	s.mu.Lock()
	if index < -1 || index >= len(s.crumbs) {
		s.mu.Unlock()
		debug.Log("navigation: breadcrumb index %d out of range (depth %d)", index, len(s.crumbs))
		return
	}

	var changed bool
	if index == -1 {
		changed = len(s.crumbs) > 0 || s.selected != ""
		s.crumbs = nil
		s.current = s.root
		s.selected = ""
	} else {
		target := s.crumbs[index]
		changed = s.current != target || s.selected != target.ID
		s.crumbs = append([]*hierarchy.ClusterNode(nil), s.crumbs[:index+1]...)
		s.current = target
		s.selected = target.ID
	}
	notify := s.commitLocked(changed)
	s.mu.Unlock()
	notify()
}

// NavigateToNodeByID jumps to an arbitrary node anywhere in the hierarchy:
// nodes with children become the view root, leaves select themselves and
// drill into their parent instead. Sync mode and the search jump both route
// through here. Unknown ids are a logged no-op. Returns true when the state
// changed.
func (s *Store) NavigateToNodeByID(id string) bool {
	s.mu.Lock()
	path := hierarchy.AncestorPath(s.root, id)
	if path == nil {
		s.mu.Unlock()
		debug.Log("navigation: node %q not found", id)
		return false
	}
	node := path[len(path)-1]

	var changed bool
	if node.HasChildren() {
		changed = s.drillLocked(path)
	} else {
		parents := path[:len(path)-1]
		if len(parents) == 0 {
			// Top-level leaf: show it from the root view.
			changed = len(s.crumbs) > 0
			s.crumbs = nil
			s.current = s.root
		} else {
			changed = s.drillLocked(parents)
		}
		changed = s.selectLeafLocked(node) || changed
	}
	notify := s.commitLocked(changed)
	s.mu.Unlock()
	notify()
	return changed
}

// SetSyncMode sets sync mode to an explicit value, typically from config at
// startup.
func (s *Store) SetSyncMode(enabled bool) {
	s.mu.Lock()
	changed := s.syncMode != enabled
	s.syncMode = enabled
	notify := s.commitLocked(changed)
	s.mu.Unlock()
	notify()
}

// ToggleSyncMode flips sync mode and returns the new value. The views keep
// their positions either way; only mirroring behaviour changes.
func (s *Store) ToggleSyncMode() bool {
	s.mu.Lock()
	s.syncMode = !s.syncMode
	enabled := s.syncMode
	notify := s.commitLocked(true)
	s.mu.Unlock()
	notify()
	return enabled
}

// ExpandL0 adds a leaf to the auto-open set. The set only grows; manual
// collapses live in the outline's own expansion state.
func (s *Store) ExpandL0(id string) {
	s.mu.Lock()
	var changed bool
	if _, ok := s.expanded[id]; !ok {
		s.expanded[id] = struct{}{}
		changed = true
	}
	notify := s.commitLocked(changed)
	s.mu.Unlock()
	notify()
}

// Reset swaps in a freshly loaded hierarchy, keeping as much navigation
// context as survives the reload: the view root and selection are re-resolved
// by id, and auto-open entries whose leaves disappeared are dropped.
func (s *Store) Reset(root *hierarchy.ClusterNode) {
	s.mu.Lock()
	s.root = root

	if path := hierarchy.AncestorPath(root, s.current.ID); path != nil && path[len(path)-1].HasChildren() {
		s.crumbs = path
		s.current = path[len(path)-1]
	} else {
		s.crumbs = nil
		s.current = root
	}

	ids := make(map[string]struct{})
	hierarchy.Walk(root, func(n *hierarchy.ClusterNode) bool {
		ids[n.ID] = struct{}{}
		return true
	})
	if _, ok := ids[s.selected]; !ok {
		s.selected = ""
	}
	for id := range s.expanded {
		if _, ok := ids[id]; !ok {
			delete(s.expanded, id)
		}
	}

	notify := s.commitLocked(true)
	s.mu.Unlock()
	notify()
}

// drillLocked installs the ancestor path as the breadcrumb and selects its
// last node. The path must end at a node with children.
func (s *Store) drillLocked(path []*hierarchy.ClusterNode) bool {
	target := path[len(path)-1]
	changed := s.current != target || s.selected != target.ID
	s.crumbs = append([]*hierarchy.ClusterNode(nil), path...)
	s.current = target
	s.selected = target.ID
	return changed
}

// selectLeafLocked marks a childless node selected and queues L0 leaves for
// the outline's auto-open.
func (s *Store) selectLeafLocked(node *hierarchy.ClusterNode) bool {
	changed := s.selected != node.ID
	s.selected = node.ID
	if node.Level == hierarchy.LevelL0 {
		if _, ok := s.expanded[node.ID]; !ok {
			s.expanded[node.ID] = struct{}{}
			changed = true
		}
	}
	return changed
}
