// Package replica holds the deployed-replica's in-process state: the
// indexed snapshot writes are applied to, and the write-log/lease contracts
// the coordinator replays against. Building an actual retrieval/vector index
// is explicitly out of scope (spec Non-goals); Snapshot is the minimal
// in-memory stand-in a real index would sit behind, so the write-coordinator
// and its ordering/idempotence guarantees can be built and tested in full.
package replica

import (
	"sort"
	"strings"
	"sync"
)

// Document is one retrievable unit a replica serves reads against.
type Document struct {
	SourceID string            `json:"sourceId"`
	Text     string            `json:"text"`
	Labels   map[string]string `json:"labels,omitempty"`
	Upvotes  int               `json:"upvotes"`
}

// Association records a user-taught pairing of two texts, the way a synonym
// would be taught. Search does not consult associations.
type Association struct {
	TextA string
	TextB string
}

// Snapshot is the mutable in-memory state a replica's write coordinator
// applies operations to and its read handlers (search/predict) query
// directly. A single mutex guards it: reads and writes are cheap enough that
// a single lock never becomes the bottleneck invariant §5 worries about
// (that invariant targets the write *log*, not this snapshot).
type Snapshot struct {
	mu           sync.RWMutex
	documents    map[string]*Document
	associations []Association
}

// NewSnapshot returns an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{documents: make(map[string]*Document)}
}

// Insert adds or replaces a document. Idempotent on SourceID.
func (s *Snapshot) Insert(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[doc.SourceID] = &doc
}

// Delete removes documents by source id. Deleting an unknown id is a no-op,
// matching the idempotent-replay requirement of §4.5.
func (s *Snapshot) Delete(sourceIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range sourceIDs {
		delete(s.documents, id)
	}
}

// Upvote increments a document's counter. It is not idempotent: each call
// adds one, and the snapshot tracks only a counter per source id, not the
// query that produced the upvote. An unknown source id is ignored.
func (s *Snapshot) Upvote(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.documents[sourceID]; ok {
		d.Upvotes++
	}
}

// Associate records a taught (textA, textB) pairing.
func (s *Snapshot) Associate(textA, textB string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.associations = append(s.associations, Association{TextA: textA, TextB: textB})
}

// ScoredDocument pairs a Document with a relevance score for a query.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// Search ranks documents by whitespace-token overlap with query, breaking
// ties by upvote count, and returns the top k. This is a placeholder for
// the real retrieval index the spec marks out of scope; it exists so the
// write coordinator's effects are observable through a read path.
func (s *Snapshot) Search(query string, topK int) []ScoredDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qTokens := tokenSet(query)

	results := make([]ScoredDocument, 0, len(s.documents))

	for _, d := range s.documents {
		score := jaccard(qTokens, tokenSet(d.Text))
		if score == 0 && len(qTokens) == 0 {
			continue
		}

		results = append(results, ScoredDocument{Document: *d, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}

		return results[i].Document.Upvotes > results[j].Document.Upvotes
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	return results
}

// Predict returns the single best match's text as the generated response,
// standing in for the actual model inference the spec excludes.
func (s *Snapshot) Predict(text string) (ScoredDocument, bool) {
	top := s.Search(text, 1)
	if len(top) == 0 {
		return ScoredDocument{}, false
	}

	return top[0], true
}

// Documents returns a snapshot copy for introspection (e.g. save/export).
func (s *Snapshot) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, *d)
	}

	return docs
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		set[f] = struct{}{}
	}

	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0

	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection

	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
