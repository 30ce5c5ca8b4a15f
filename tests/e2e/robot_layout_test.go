package main_test

import (
	"encoding/json"
	"math"
	"os/exec"
	"testing"
)

type layoutPayload struct {
	GeneratedAt string `json:"generated_at"`
	ViewRoot    string `json:"view_root"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Camera      struct {
		K float64 `json:"k"`
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"camera"`
	Nodes []layoutNode `json:"nodes"`
}

type layoutNode struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Level string  `json:"level"`
	Depth int     `json:"depth"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
}

func runRobotLayoutCmd(t *testing.T, dir string, args ...string) layoutPayload {
	t.Helper()
	cm := buildCmBinary(t)

	cmd := exec.Command(cm, append([]string{"--robot-layout"}, args...)...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("robot-layout failed: %v\n%s", err, out)
	}

	var payload layoutPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("robot-layout json decode: %v\nout=%s", err, out)
	}
	return payload
}

func TestRobotLayoutContract(t *testing.T) {
	env := t.TempDir()
	writeClusters(t, env, sampleClustersJSON)

	payload := runRobotLayoutCmd(t, env, "--export-width", "800", "--export-height", "600")

	if payload.Width != 800 || payload.Height != 600 {
		t.Fatalf("expected 800x600 canvas, got %dx%d", payload.Width, payload.Height)
	}
	if payload.ViewRoot != "" {
		t.Fatalf("whole-tree layout should have empty view_root, got %q", payload.ViewRoot)
	}
	if payload.Camera.K <= 0 || payload.Camera.K > 1 {
		t.Fatalf("camera zoom out of range (0,1]: %v", payload.Camera.K)
	}
	if len(payload.Nodes) != 9 {
		t.Fatalf("expected 9 placed clusters, got %d", len(payload.Nodes))
	}

	byID := make(map[string]layoutNode, len(payload.Nodes))
	for _, n := range payload.Nodes {
		byID[n.ID] = n
		if n.R <= 0 {
			t.Fatalf("node %s has non-positive radius %v", n.ID, n.R)
		}
		if n.X < 0 || n.X > 800 || n.Y < 0 || n.Y > 600 {
			t.Fatalf("node %s center (%v,%v) outside the canvas", n.ID, n.X, n.Y)
		}
		if n.Depth < 1 || n.Depth > 3 {
			t.Fatalf("node %s at unexpected depth %d", n.ID, n.Depth)
		}
	}

	// Containment: every cluster's circle lies inside its parent's circle.
	parents := map[string]string{
		"l1-prog": "l2-tech", "l1-hw": "l2-tech", "l1-cook": "l2-life",
		"l0-go": "l1-prog", "l0-py": "l1-prog",
		"l0-gpu": "l1-hw", "l0-recipes": "l1-cook",
	}
	const eps = 1e-6
	for child, parent := range parents {
		c, ok := byID[child]
		if !ok {
			t.Fatalf("missing node %s", child)
		}
		p, ok := byID[parent]
		if !ok {
			t.Fatalf("missing node %s", parent)
		}
		d := math.Hypot(c.X-p.X, c.Y-p.Y)
		if d+c.R > p.R+eps {
			t.Fatalf("%s (r=%v) sticks out of %s (r=%v) by %v", child, c.R, parent, p.R, d+c.R-p.R)
		}
	}

	// Heavier siblings pack into bigger circles.
	if byID["l1-prog"].R <= byID["l1-hw"].R {
		t.Fatalf("weight 40 cluster should outsize weight 20 sibling: %v <= %v",
			byID["l1-prog"].R, byID["l1-hw"].R)
	}
}

func TestRobotLayoutViewRoot(t *testing.T) {
	env := t.TempDir()
	writeClusters(t, env, sampleClustersJSON)

	payload := runRobotLayoutCmd(t, env, "--view-root", "l1-prog")

	if payload.ViewRoot != "l1-prog" {
		t.Fatalf("expected view_root l1-prog, got %q", payload.ViewRoot)
	}
	want := map[string]int{"l1-prog": 0, "l0-go": 1, "l0-py": 1}
	if len(payload.Nodes) != len(want) {
		t.Fatalf("expected %d nodes under l1-prog, got %d", len(want), len(payload.Nodes))
	}
	for _, n := range payload.Nodes {
		depth, ok := want[n.ID]
		if !ok {
			t.Fatalf("unexpected node %s in subtree layout", n.ID)
		}
		if n.Depth != depth {
			t.Fatalf("node %s at depth %d, want %d", n.ID, n.Depth, depth)
		}
	}
}

func TestRobotLayoutUnknownViewRoot(t *testing.T) {
	cm := buildCmBinary(t)
	env := t.TempDir()
	writeClusters(t, env, sampleClustersJSON)

	cmd := exec.Command(cm, "--robot-layout", "--view-root", "no-such-cluster")
	cmd.Dir = env
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure for unknown view root, got:\n%s", out)
	}
}

func TestRobotLayoutSingleTopLevel(t *testing.T) {
	env := t.TempDir()
	writeClusters(t, env, `{"clusters":[{"id":"only","name":"Only","level":"l2","weight":4,"children":[{"id":"kid","name":"Kid","level":"l1","weight":4}]}]}`)

	payload := runRobotLayoutCmd(t, env)

	if len(payload.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(payload.Nodes))
	}
	for _, n := range payload.Nodes {
		if n.ID == "only" && n.Depth != 1 {
			t.Fatalf("single top cluster should sit at depth 1, got %d", n.Depth)
		}
	}
}
