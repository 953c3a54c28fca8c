// services/graph_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"agent-bounty-system/models"
	"agent-bounty-system/prompts"
)

// GraphNode is a vertex in the relationship graph. Post nodes carry the
// original content and link; author and topic nodes only carry a label.
type GraphNode struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Label   string `json:"label"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

type GraphEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphService builds an author/post/topic relationship graph over the
// current post corpus using the completion model.
type GraphService struct {
	Source    PostSource
	Completer TextCompleter
}

func NewGraphService(source PostSource, completer TextCompleter) *GraphService {
	return &GraphService{Source: source, Completer: completer}
}

// BuildGraph fetches the corpus, asks the model for nodes and edges, then
// re-attaches post content and URLs that the model only saw as IDs.
func (g *GraphService) BuildGraph(ctx context.Context) (*Graph, error) {
	posts, err := g.Source.FetchPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts for graph: %w", err)
	}
	if len(posts) == 0 {
		return &Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}, nil
	}

	type promptPost struct {
		ID     string `json:"id"`
		Author string `json:"author"`
		Text   string `json:"text"`
	}
	indexed := make(map[string]models.Post, len(posts))
	promptPosts := make([]promptPost, 0, len(posts))
	for i, p := range posts {
		id := fmt.Sprintf("%s_%d", slugifyAuthor(p.AuthorFullname), i)
		indexed[id] = p
		promptPosts = append(promptPosts, promptPost{ID: id, Author: p.AuthorFullname, Text: p.Text})
	}

	payload, err := json.Marshal(promptPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode posts: %w", err)
	}

	raw, err := g.Completer.Complete(ctx, prompts.BuildGraph(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("graph generation failed: %w", err)
	}

	var graph Graph
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &graph); err != nil {
		return nil, fmt.Errorf("failed to parse graph response: %w", err)
	}

	for i, node := range graph.Nodes {
		if node.Type != "post" {
			continue
		}
		if p, ok := indexed[node.ID]; ok {
			graph.Nodes[i].Content = p.Text
			graph.Nodes[i].URL = p.URL
		}
	}

	log.Printf("[Graph] Built graph with %d nodes and %d edges from %d posts", len(graph.Nodes), len(graph.Edges), len(posts))
	return &graph, nil
}

func slugifyAuthor(author string) string {
	author = strings.ToLower(strings.TrimSpace(author))
	author = strings.ReplaceAll(author, " ", "_")
	if author == "" {
		author = "unknown"
	}
	return author
}

// stripJSONFences removes a markdown code fence wrapper if present.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencedJSONRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
