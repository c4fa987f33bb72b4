package store

import (
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// VectorIndex is an in-memory nearest-neighbor index for one embedding
// model, backed by coder/hnsw and synced from the durable vectors
// table (spec.md section 4.6, "rebuildVecIndex / syncVecIndex"). IDs
// are opaque strings the caller maps back to (mirrorHash, seq); this
// package uses vecID to encode that pair.
type VectorIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	idMap  map[string]uint64
	keyMap map[uint64]string

	nextKey uint64
}

// VectorMatch is one nearest-neighbor search hit.
type VectorMatch struct {
	MirrorHash string
	Seq        int
	Score      float32 // (1 + cosine similarity) / 2, in [0, 1]; higher is more relevant
}

// NewVectorIndex constructs an empty index using cosine distance, the
// right metric for normalized text embeddings.
func NewVectorIndex() *VectorIndex {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.Ml = 0.25
	g.EfSearch = 20
	return &VectorIndex{
		graph:  g,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

func vecID(mirrorHash string, seq int) string {
	return mirrorHash + "\x00" + itoa(seq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Upsert inserts or replaces the vector for (mirrorHash, seq). Existing
// entries are lazily orphaned rather than removed from the graph:
// deleting the last node in coder/hnsw can corrupt the graph.
func (vi *VectorIndex) Upsert(mirrorHash string, seq int, embedding []float32) {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	id := vecID(mirrorHash, seq)
	if oldKey, ok := vi.idMap[id]; ok {
		delete(vi.keyMap, oldKey)
		delete(vi.idMap, id)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	normalizeVectorInPlace(vec)

	key := vi.nextKey
	vi.nextKey++
	vi.graph.Add(hnsw.MakeNode(key, vec))
	vi.idMap[id] = key
	vi.keyMap[key] = id
}

// Delete removes (mirrorHash, seq) from the index's lookup maps.
func (vi *VectorIndex) Delete(mirrorHash string, seq int) {
	vi.mu.Lock()
	defer vi.mu.Unlock()
	id := vecID(mirrorHash, seq)
	if key, ok := vi.idMap[id]; ok {
		delete(vi.keyMap, key)
		delete(vi.idMap, id)
	}
}

// Search returns up to k nearest neighbors to query, sorted by
// descending score.
func (vi *VectorIndex) Search(query []float32, k int) []VectorMatch {
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	if vi.graph.Len() == 0 || k <= 0 {
		return nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeVectorInPlace(q)

	nodes := vi.graph.Search(q, k)
	out := make([]VectorMatch, 0, len(nodes))
	for _, node := range nodes {
		id, ok := vi.keyMap[node.Key]
		if !ok {
			continue
		}
		mirrorHash, seq, ok := splitVecID(id)
		if !ok {
			continue
		}
		dist := vi.graph.Distance(q, node.Value)
		out = append(out, VectorMatch{
			MirrorHash: mirrorHash,
			Seq:        seq,
			Score:      1.0 - dist/2.0,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Len reports the number of live entries (excluding lazily-deleted orphans).
func (vi *VectorIndex) Len() int {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return len(vi.idMap)
}

func splitVecID(id string) (string, int, bool) {
	for i := 0; i < len(id); i++ {
		if id[i] == 0 {
			seq, ok := parseInt(id[i+1:])
			return id[:i], seq, ok
		}
	}
	return "", 0, false
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(s) {
		return 0, false
	}
	n := 0
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}
