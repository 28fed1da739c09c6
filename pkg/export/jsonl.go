package export

import (
	"encoding/json"
	"strings"

	"github.com/l3aro/go-complexity/pkg/cfg"
)

// edgeRecord wraps an edge so JSONL consumers can tell block lines and
// edge lines apart.
type edgeRecord struct {
	Edge cfg.Edge `json:"edge"`
}

// JSONL renders the graph as one JSON object per line, blocks first,
// then edges.
func JSONL(g *cfg.Graph) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	for i := range g.Blocks {
		if err := enc.Encode(&g.Blocks[i]); err != nil {
			return "", err
		}
	}
	for _, e := range g.Edges {
		if err := enc.Encode(edgeRecord{Edge: e}); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// JSON renders the whole graph as one indented document.
func JSON(g *cfg.Graph) (string, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
