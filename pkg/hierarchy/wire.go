package hierarchy

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// wireNode is the JSON shape produced by the clustering pipeline and served
// by the hierarchy endpoint. Unknown fields are ignored.
type wireNode struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Level       string      `json:"level"`
	Weight      int         `json:"weight,omitempty"`
	Description string      `json:"description,omitempty"`
	Children    []*wireNode `json:"children,omitempty"`
}

// ParseJSON decodes a hierarchy document: either a JSON array of top-level
// cluster nodes or an object with a "clusters" array. The returned slice
// preserves the document's ordering.
func ParseJSON(data []byte) ([]*ClusterNode, error) {
	trimmed := firstNonSpace(data)
	switch trimmed {
	case '[':
		var wires []*wireNode
		if err := json.Unmarshal(data, &wires); err != nil {
			return nil, fmt.Errorf("parse cluster hierarchy: %w", err)
		}
		return fromWireList(wires)
	case '{':
		var doc struct {
			Clusters []*wireNode `json:"clusters"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse cluster hierarchy: %w", err)
		}
		if doc.Clusters == nil {
			return nil, fmt.Errorf("parse cluster hierarchy: object form requires a \"clusters\" array")
		}
		return fromWireList(doc.Clusters)
	default:
		return nil, fmt.Errorf("parse cluster hierarchy: document must be a JSON array or object")
	}
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

func fromWireList(wires []*wireNode) ([]*ClusterNode, error) {
	nodes := make([]*ClusterNode, 0, len(wires))
	for i, w := range wires {
		n, err := fromWire(w)
		if err != nil {
			return nil, fmt.Errorf("top-level cluster %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func fromWire(w *wireNode) (*ClusterNode, error) {
	if w == nil {
		return nil, fmt.Errorf("null cluster node")
	}
	if w.ID == "" {
		return nil, fmt.Errorf("cluster node missing id")
	}
	level, err := ParseLevel(w.Level)
	if err != nil {
		return nil, fmt.Errorf("cluster %q: %w", w.ID, err)
	}
	if w.Weight < 0 {
		return nil, fmt.Errorf("cluster %q: negative weight %d", w.ID, w.Weight)
	}
	node := &ClusterNode{
		ID:          w.ID,
		Name:        w.Name,
		Level:       level,
		Weight:      w.Weight,
		Description: w.Description,
	}
	if len(w.Children) > 0 {
		node.Children = make([]*ClusterNode, 0, len(w.Children))
		for _, cw := range w.Children {
			child, err := fromWire(cw)
			if err != nil {
				return nil, fmt.Errorf("under cluster %q: %w", w.ID, err)
			}
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}

// MarshalJSON emits the wire shape, so a parsed hierarchy round-trips. Used
// by the robot output modes.
func (n *ClusterNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(n))
}

func toWire(n *ClusterNode) *wireNode {
	if n == nil {
		return nil
	}
	w := &wireNode{
		ID:          n.ID,
		Name:        n.Name,
		Level:       n.Level.String(),
		Weight:      n.Weight,
		Description: n.Description,
	}
	for _, c := range n.Children {
		w.Children = append(w.Children, toWire(c))
	}
	return w
}
