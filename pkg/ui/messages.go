package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/clustermap/internal/datasource"
	"github.com/vanderheijden86/clustermap/pkg/export"
	"github.com/vanderheijden86/clustermap/pkg/topics"
	"github.com/vanderheijden86/clustermap/pkg/watcher"
)

// FileChangedMsg is sent when the watcher detects a data file change.
type FileChangedMsg struct{}

// zoomTickMsg drives the camera animation. Ticks are re-armed only while a
// transition is in flight, so an idle map costs nothing.
type zoomTickMsg struct {
	at time.Time
}

// pulseTickMsg drives the selection halo. Re-armed only while something is
// selected.
type pulseTickMsg struct {
	at time.Time
}

// topicsFetchedMsg delivers a completed topic fetch back into the event loop.
type topicsFetchedMsg struct {
	ID    string
	Entry topics.Entry
}

// reloadDoneMsg carries the outcome of an async data reload.
type reloadDoneMsg struct {
	snapshot *DataSnapshot
	diff     datasource.TreeDiff
	err      error
}

// exportDoneMsg carries the outcome of a snapshot export.
type exportDoneMsg struct {
	paths []string
	err   error
}

const (
	zoomTickInterval  = 16 * time.Millisecond
	pulseTickInterval = 120 * time.Millisecond
)

func zoomTickCmd() tea.Cmd {
	return tea.Tick(zoomTickInterval, func(t time.Time) tea.Msg {
		return zoomTickMsg{at: t}
	})
}

func pulseTickCmd() tea.Cmd {
	return tea.Tick(pulseTickInterval, func(t time.Time) tea.Msg {
		return pulseTickMsg{at: t}
	})
}

// WatchFileCmd returns a command that blocks until the watcher reports a
// change, then delivers FileChangedMsg. Re-arm it after each receipt.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// fetchTopicsCmd fetches one leaf's topics through the cache and reports the
// settled entry. The cache deduplicates concurrent requests per id, so
// re-running the command for an id already fetched is cheap.
func fetchTopicsCmd(cache *topics.Cache, id string) tea.Cmd {
	return func() tea.Msg {
		e := cache.Fetch(context.Background(), id)
		return topicsFetchedMsg{ID: id, Entry: e}
	}
}

// retryTopicsCmd re-fetches a leaf whose previous attempt failed, bypassing
// the cached error entry.
func retryTopicsCmd(cache *topics.Cache, id string) tea.Cmd {
	return func() tea.Msg {
		e := cache.Refresh(context.Background(), id)
		return topicsFetchedMsg{ID: id, Entry: e}
	}
}

// exportSnapshotCmd writes the snapshot off the event loop.
func exportSnapshotCmd(opts export.Options) tea.Cmd {
	return func() tea.Msg {
		paths, err := export.Snapshot(opts)
		return exportDoneMsg{paths: paths, err: err}
	}
}

// reloadCmd re-reads the session's source off the event loop and reports the
// fresh snapshot plus what changed relative to the tree on screen.
func reloadCmd(sess *datasource.Session) tea.Cmd {
	return func() tea.Msg {
		prev := sess.Root()
		root, err := sess.Reload(context.Background())
		if err != nil {
			return reloadDoneMsg{err: err}
		}
		return reloadDoneMsg{
			snapshot: NewDataSnapshot(root, sess),
			diff:     datasource.DiffTrees(prev, root),
		}
	}
}
