package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blue-enigma/triply/internal/port"
)

// graphPageTemplate renders the knowledge graph as an interactive
// vis-network page.
const graphPageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Triply Knowledge Graph</title>
  <script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
  <style>
    html, body { margin: 0; height: 100%; }
    #graph { width: 100%; height: 100%; }
  </style>
</head>
<body>
  <div id="graph"></div>
  <script>
    const nodes = new vis.DataSet({{.Nodes}});
    const edges = new vis.DataSet({{.Edges}});
    const container = document.getElementById("graph");
    new vis.Network(container, { nodes, edges }, {
      physics: { barnesHut: { gravitationalConstant: -8000 } },
      edges: { arrows: "to" },
    });
  </script>
</body>
</html>
`

// GraphService renders the stored knowledge graph to a static HTML page.
type GraphService struct {
	graph     port.GraphStore
	limit     int
	staticDir string
	tmpl      *template.Template
}

// NewGraphService creates a graph visualization service writing into
// staticDir, reading at most limit edges per render.
func NewGraphService(graph port.GraphStore, limit int, staticDir string) *GraphService {
	return &GraphService{
		graph:     graph,
		limit:     limit,
		staticDir: staticDir,
		tmpl:      template.Must(template.New("graph").Parse(graphPageTemplate)),
	}
}

type vizNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
}

type vizEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Title string `json:"title"`
}

// GenerateHTML fetches a bounded subgraph and writes the rendered page
// to <staticDir>/graph.html, returning the written path.
func (g *GraphService) GenerateHTML(ctx context.Context) (string, error) {
	edges, err := g.graph.Subgraph(ctx, g.limit)
	if err != nil {
		return "", fmt.Errorf("fetch subgraph: %w", err)
	}

	nodeSet := map[string]vizNode{}
	vizEdges := make([]vizEdge, 0, len(edges))
	for _, e := range edges {
		addVizNode(nodeSet, e.SourceID, e.SourceName)
		addVizNode(nodeSet, e.TargetID, e.TargetName)
		vizEdges = append(vizEdges, vizEdge{From: e.SourceID, To: e.TargetID, Title: e.Relation})
	}

	vizNodes := make([]vizNode, 0, len(nodeSet))
	for _, e := range edges {
		if n, ok := nodeSet[e.SourceID]; ok {
			vizNodes = append(vizNodes, n)
			delete(nodeSet, e.SourceID)
		}
		if n, ok := nodeSet[e.TargetID]; ok {
			vizNodes = append(vizNodes, n)
			delete(nodeSet, e.TargetID)
		}
	}

	nodesJSON, err := json.Marshal(vizNodes)
	if err != nil {
		return "", fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(vizEdges)
	if err != nil {
		return "", fmt.Errorf("marshal edges: %w", err)
	}

	if err := os.MkdirAll(g.staticDir, 0o755); err != nil {
		return "", fmt.Errorf("create static dir: %w", err)
	}

	path := filepath.Join(g.staticDir, "graph.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create graph page: %w", err)
	}
	defer f.Close()

	data := struct {
		Nodes template.JS
		Edges template.JS
	}{
		Nodes: template.JS(nodesJSON),
		Edges: template.JS(edgesJSON),
	}
	if err := g.tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("render graph page: %w", err)
	}

	slog.Info("graph visualization saved", "path", path, "nodes", len(vizNodes), "edges", len(vizEdges))
	return path, nil
}

func addVizNode(set map[string]vizNode, id, name string) {
	if id == "" {
		return
	}
	if _, ok := set[id]; ok {
		return
	}
	label := name
	if label == "" {
		label = id
	}
	set[id] = vizNode{ID: id, Label: label, Title: label}
}
