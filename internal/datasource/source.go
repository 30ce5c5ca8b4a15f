// Package datasource discovers and loads cluster hierarchy data for
// clustermap. A hierarchy can come from a JSON document, a SQLite database
// produced by the clustering pipeline, or an HTTP endpoint; discovery ranks
// the candidate sources and selection picks the most authoritative one.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/clustermap/pkg/debug"
)

// ErrNoSource means discovery ran to completion and found nothing: no flag,
// no environment override, no config path, no conventional file. Explicitly
// named paths that fail produce their own errors instead.
var ErrNoSource = errors.New("no cluster data found")

// Kind identifies how a source is read.
type Kind string

const (
	// KindJSON is a hierarchy document on disk (clusters.json).
	KindJSON Kind = "json"
	// KindSQLite is a pipeline database (clusters.db).
	KindSQLite Kind = "sqlite"
	// KindHTTP is a collaborator base URL; the hierarchy is served at
	// {base}/clusters and topics at {base}/clusters/{id}/topics.
	KindHTTP Kind = "http"
)

// Origin records where a candidate source was named. Explicit origins always
// outrank conventional ones.
type Origin string

const (
	// OriginFlag is the --data command-line flag.
	OriginFlag Origin = "flag"
	// OriginEnv is the CLUSTERMAP_DB environment variable.
	OriginEnv Origin = "env"
	// OriginConfig is the data path from the YAML config file.
	OriginConfig Origin = "config"
	// OriginCwd is a conventional file in the working directory.
	OriginCwd Origin = "cwd"
)

// Priority values per origin (higher = more authoritative).
const (
	PriorityFlag   = 100
	PriorityEnv    = 80
	PriorityConfig = 60
	PriorityCwd    = 40
)

// Conventional file names probed in the working directory.
const (
	ConventionalJSON   = "clusters.json"
	ConventionalSQLite = "clusters.db"
)

// EnvDataSource is the environment variable naming a data path or URL.
const EnvDataSource = "CLUSTERMAP_DB"

// DataSource is one candidate location of cluster data.
type DataSource struct {
	// Path is the file path, or the URL for HTTP sources.
	Path string `json:"path"`
	// Kind identifies the reader used for this source.
	Kind Kind `json:"kind"`
	// Origin records where this candidate was named.
	Origin Origin `json:"origin"`
	// Priority ranks candidates during selection.
	Priority int `json:"priority"`
	// ModTime is the file modification time. Zero for HTTP sources.
	ModTime time.Time `json:"mod_time,omitempty"`
}

// Describe returns a short label for the status footer, e.g.
// "clusters.db (cwd)" or "https://pipeline.local/clusters (env)".
func (s DataSource) Describe() string {
	name := s.Path
	if s.Kind != KindHTTP {
		name = filepath.Base(s.Path)
	}
	return fmt.Sprintf("%s (%s)", name, s.Origin)
}

// KindOf infers the source kind from a path: URLs are HTTP, SQLite database
// extensions are SQLite, everything else is treated as a JSON document.
func KindOf(path string) Kind {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return KindHTTP
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	}
	return KindJSON
}

// DiscoverOptions configures source discovery.
type DiscoverOptions struct {
	// FlagPath is the value of the --data flag. Highest precedence.
	FlagPath string
	// ConfigPath is the data path from the loaded config, if any.
	ConfigPath string
	// Dir is where conventional files are probed. Empty means the
	// current working directory.
	Dir string
}

// Discover collects every candidate source in precedence order: the --data
// flag, then CLUSTERMAP_DB, then the config path, then conventional files in
// the working directory. Explicitly named paths that do not exist are an
// error; absent conventional files are silently skipped.
func Discover(opts DiscoverOptions) ([]DataSource, error) {
	var sources []DataSource

	explicit := []struct {
		path     string
		origin   Origin
		priority int
	}{
		{opts.FlagPath, OriginFlag, PriorityFlag},
		{os.Getenv(EnvDataSource), OriginEnv, PriorityEnv},
		{opts.ConfigPath, OriginConfig, PriorityConfig},
	}
	for _, e := range explicit {
		if e.path == "" {
			continue
		}
		src, err := namedSource(e.path, e.origin, e.priority)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	for _, name := range []string{ConventionalJSON, ConventionalSQLite} {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		sources = append(sources, DataSource{
			Path:     path,
			Kind:     KindOf(path),
			Origin:   OriginCwd,
			Priority: PriorityCwd,
			ModTime:  info.ModTime(),
		})
	}

	debug.Log("discovered %d data source(s)", len(sources))
	for _, s := range sources {
		debug.Log("  %s kind=%s priority=%d", s.Path, s.Kind, s.Priority)
	}
	return sources, nil
}

// namedSource builds a DataSource for an explicitly named path, verifying
// that file paths exist.
func namedSource(path string, origin Origin, priority int) (DataSource, error) {
	src := DataSource{
		Path:     path,
		Kind:     KindOf(path),
		Origin:   origin,
		Priority: priority,
	}
	if src.Kind == KindHTTP {
		return src, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("data source from %s not found: %s", origin, path)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("data source from %s is a directory: %s", origin, path)
	}
	src.ModTime = info.ModTime()
	return src, nil
}

// SelectBest picks the most authoritative source: highest priority first,
// then the most recently modified, with SQLite preferred over JSON at equal
// freshness since the database reflects the pipeline's latest write.
func SelectBest(sources []DataSource) (DataSource, error) {
	if len(sources) == 0 {
		return DataSource{}, fmt.Errorf(
			"%w: pass --data, set %s, or place %s/%s in the working directory",
			ErrNoSource, EnvDataSource, ConventionalJSON, ConventionalSQLite)
	}

	sorted := make([]DataSource, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.After(sorted[j].ModTime)
		}
		return sorted[i].Kind == KindSQLite && sorted[j].Kind != KindSQLite
	})

	best := sorted[0]
	debug.Log("selected data source %s", best.Describe())
	return best, nil
}

// Resolve is Discover followed by SelectBest.
func Resolve(opts DiscoverOptions) (DataSource, error) {
	sources, err := Discover(opts)
	if err != nil {
		return DataSource{}, err
	}
	return SelectBest(sources)
}
