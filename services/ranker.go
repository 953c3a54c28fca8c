// services/ranker.go
package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"agent-bounty-system/models"
)

// Boost weights for the composite relevance score. The composite is an
// unbounded additive heuristic used only for relative ordering.
const (
	phraseBoostWeight = 0.2
	authorBoostWeight = 0.3
	termBoostWeight   = 0.1
	recencyBoostMax   = 0.2
	recencyWindowDays = 30

	minPostLength = 50 // raw posts shorter than this carry too little signal
)

// Ranker scores grouped posts against a query using embedding similarity
// plus lexical and recency boosts.
type Ranker struct {
	Embedder Embedder
}

func NewRanker(embedder Embedder) *Ranker {
	return &Ranker{Embedder: embedder}
}

// Rank filters, groups and scores raw posts against the query, returning the
// groups sorted by descending composite score.
func (r *Ranker) Rank(ctx context.Context, posts []models.Post, query string) ([]models.RankedPost, error) {
	grouped := GroupPostsByAuthor(FilterLongPosts(posts, minPostLength))
	if len(grouped) == 0 {
		return nil, fmt.Errorf("no posts left after filtering")
	}

	texts := make([]string, len(grouped))
	for i, g := range grouped {
		texts[i] = g.Text
	}

	postEmbeddings, err := r.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed posts: %w", err)
	}
	queryEmbeddings, err := r.Embedder.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	now := time.Now()
	ranked := make([]models.RankedPost, len(grouped))
	for i, g := range grouped {
		g.Embedding = postEmbeddings[i]
		ranked[i] = models.RankedPost{
			GroupedPost: g,
			Similarity:  CompositeScore(postEmbeddings[i], queryEmbeddings[0], g, query, now),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	log.Printf("[Ranker] Ranked %d author groups (top: %s)", len(ranked), ranked[0].AuthorFullname)
	return ranked, nil
}

// FilterLongPosts drops posts shorter than minLength characters.
func FilterLongPosts(posts []models.Post, minLength int) []models.Post {
	filtered := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if len(p.Text) >= minLength {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// GroupPostsByAuthor concatenates each author's posts into one numbered block
// and keeps the most recent timestamp. Group order follows first appearance.
func GroupPostsByAuthor(posts []models.Post) []models.GroupedPost {
	var order []string
	byAuthor := make(map[string]*models.GroupedPost)

	for _, p := range posts {
		if p.Text == "" {
			continue
		}
		g, ok := byAuthor[p.AuthorFullname]
		if !ok {
			g = &models.GroupedPost{AuthorFullname: p.AuthorFullname}
			byAuthor[p.AuthorFullname] = g
			order = append(order, p.AuthorFullname)
		}
		g.OriginalTexts = append(g.OriginalTexts, p.Text)
		g.Timestamp = p.Timestamp
	}

	grouped := make([]models.GroupedPost, 0, len(order))
	for _, author := range order {
		g := byAuthor[author]
		var b strings.Builder
		fmt.Fprintf(&b, "Author: %s\nPosts:\n", author)
		for i, t := range g.OriginalTexts {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "[%d] %s", i+1, t)
		}
		g.Text = b.String()
		grouped = append(grouped, *g)
	}
	return grouped
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Zero-magnitude or mismatched vectors score 0 rather than dividing by zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CompositeScore combines embedding similarity with lexical and recency boosts.
func CompositeScore(postEmbedding, queryEmbedding []float64, post models.GroupedPost, query string, now time.Time) float64 {
	score := CosineSimilarity(postEmbedding, queryEmbedding)

	postLower := strings.ToLower(post.Text)
	queryLower := strings.ToLower(query)
	authorLower := strings.ToLower(post.AuthorFullname)

	// Exact phrase match against any original (un-grouped) text.
	for _, t := range post.OriginalTexts {
		if strings.Contains(strings.ToLower(t), queryLower) {
			score += phraseBoostWeight
			break
		}
	}

	if authorLower != "" && strings.Contains(queryLower, authorLower) {
		score += authorBoostWeight
	}

	for _, term := range strings.Fields(queryLower) {
		if len(term) > 2 && strings.Contains(postLower, term) {
			score += termBoostWeight
		}
	}

	if t := post.ParsedTime(); !t.IsZero() {
		score += recencyBoost(t, now)
	}

	return score
}

func recencyBoost(postTime, now time.Time) float64 {
	days := now.Sub(postTime).Hours() / 24
	return math.Max(0, recencyBoostMax*(1-days/recencyWindowDays))
}

// AverageSimilarity is the mean composite score across ranked posts.
func AverageSimilarity(posts []models.RankedPost) float64 {
	if len(posts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range posts {
		sum += p.Similarity
	}
	return sum / float64(len(posts))
}
