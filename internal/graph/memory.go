package graph

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
)

// Memory is the map-backed Store. It mirrors the SQLite semantics closely
// enough that the engine tests run against either backend. WithTransaction
// runs the callback directly and offers no rollback.
type Memory struct {
	mu       sync.RWMutex
	nextNode int64
	nextEdge int64
	nodes    map[int64]*Node
	index    map[refKey]int64
	edges    map[edgeKey]*Edge
}

type refKey struct {
	label, name, path string
	line              int
}

type edgeKey struct {
	source, target int64
	edgeType       string
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nodes: make(map[int64]*Node),
		index: make(map[refKey]int64),
		edges: make(map[edgeKey]*Edge),
	}
}

func (m *Memory) UpsertNode(ctx context.Context, ref NodeRef, props map[string]any) (int64, error) {
	if ref.Label == "" {
		return 0, errEmptyLabel
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := refKey{ref.Label, ref.Name, ref.Path, ref.Line}
	if id, ok := m.index[key]; ok {
		mergeProps(m.nodes[id].Properties, props)
		return id, nil
	}
	m.nextNode++
	id := m.nextNode
	m.nodes[id] = &Node{
		ID:         id,
		Label:      ref.Label,
		Name:       ref.Name,
		Path:       ref.Path,
		Line:       ref.Line,
		Properties: cloneProps(props),
	}
	m.index[key] = id
	return id, nil
}

func (m *Memory) UpsertEdge(ctx context.Context, from, to NodeRef, edgeType string, props map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sourceIDs := m.findIDsLocked(from)
	if len(sourceIDs) == 0 {
		return nil
	}
	targetIDs := m.findIDsLocked(to)
	if len(targetIDs) == 0 {
		return nil
	}
	for _, src := range sourceIDs {
		for _, tgt := range targetIDs {
			key := edgeKey{src, tgt, edgeType}
			if e, ok := m.edges[key]; ok {
				mergeProps(e.Properties, props)
				continue
			}
			m.nextEdge++
			m.edges[key] = &Edge{
				ID:         m.nextEdge,
				SourceID:   src,
				TargetID:   tgt,
				Type:       edgeType,
				Properties: cloneProps(props),
			}
		}
	}
	return nil
}

func (m *Memory) FindNode(ctx context.Context, ref NodeRef) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.findIDsLocked(ref)
	if len(ids) == 0 {
		return nil, nil
	}
	return cloneNode(m.nodes[ids[0]]), nil
}

func (m *Memory) FindNodes(ctx context.Context, ref NodeRef) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Node
	for _, id := range m.findIDsLocked(ref) {
		result = append(result, cloneNode(m.nodes[id]))
	}
	return result, nil
}

func (m *Memory) NodesByFile(ctx context.Context, filePath string) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Node
	for _, n := range m.nodes {
		if n.Path == filePath {
			result = append(result, cloneNode(n))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Line != result[j].Line {
			return result[i].Line < result[j].Line
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) EdgesFrom(ctx context.Context, sourceID int64, edgeType string) ([]*Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Edge
	for _, e := range m.edges {
		if e.SourceID == sourceID && e.Type == edgeType {
			result = append(result, cloneEdge(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SearchEntities(ctx context.Context, query string, limit int) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	var result []*Node
	for _, n := range m.nodes {
		if !entityLabelSet[n.Label] {
			continue
		}
		source, _ := n.Properties["source"].(string)
		if strings.Contains(strings.ToLower(n.Name), q) ||
			(source != "" && strings.Contains(strings.ToLower(source), q)) {
			result = append(result, cloneNode(n))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) ListRepositories(ctx context.Context) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Node
	for _, n := range m.nodes {
		if n.Label == LabelRepository {
			result = append(result, cloneNode(n))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (m *Memory) RepositoryNodeCount(ctx context.Context, repoPath string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.findIDsLocked(NodeRef{Label: LabelRepository, Path: repoPath})
	if len(ids) == 0 {
		return 0, nil
	}
	return len(m.containsClosureLocked(ids[0])) - 1, nil
}

func (m *Memory) CountNodesByLabel(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, n := range m.nodes {
		counts[n.Label]++
	}
	return counts, nil
}

func (m *Memory) CountEdgesByType(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, e := range m.edges {
		counts[e.Type]++
	}
	return counts, nil
}

func (m *Memory) DeleteFileSubtree(ctx context.Context, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doomed := make(map[int64]bool)
	for id, n := range m.nodes {
		if n.Path == filePath {
			doomed[id] = true
		}
	}
	m.deleteNodesLocked(doomed)

	for _, dir := range ancestorDirs(filePath) {
		ids := m.findIDsLocked(NodeRef{Label: LabelDirectory, Path: dir})
		if len(ids) == 0 {
			continue
		}
		if m.containsCountLocked(ids[0]) > 0 {
			break
		}
		m.deleteNodesLocked(map[int64]bool{ids[0]: true})
	}
	return nil
}

func (m *Memory) DeleteRepository(ctx context.Context, repoPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.findIDsLocked(NodeRef{Label: LabelRepository, Path: repoPath})
	if len(ids) == 0 {
		return nil
	}
	m.deleteNodesLocked(m.containsClosureLocked(ids[0]))
	return nil
}

func (m *Memory) RawQuery(ctx context.Context, query string) ([]map[string]any, error) {
	return nil, ErrRawUnsupported
}

func (m *Memory) WithTransaction(ctx context.Context, fn func(Store) error) error {
	return fn(m)
}

func (m *Memory) Close() error {
	return nil
}

// findIDsLocked resolves a selector to node ids, ascending. Callers hold
// m.mu.
func (m *Memory) findIDsLocked(ref NodeRef) []int64 {
	var ids []int64
	for id, n := range m.nodes {
		if n.Label != ref.Label {
			continue
		}
		if ref.Name != "" && n.Name != ref.Name {
			continue
		}
		if ref.Path != "" && n.Path != ref.Path {
			continue
		}
		if ref.Line > 0 && n.Line != ref.Line {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Memory) containsCountLocked(id int64) int {
	count := 0
	for _, e := range m.edges {
		if e.SourceID == id && e.Type == EdgeContains {
			count++
		}
	}
	return count
}

// containsClosureLocked returns the node plus everything reachable over
// CONTAINS and HAS_PARAMETER ownership edges.
func (m *Memory) containsClosureLocked(root int64) map[int64]bool {
	closure := map[int64]bool{root: true}
	queue := []int64{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range m.edges {
			if e.SourceID != id || closure[e.TargetID] {
				continue
			}
			if e.Type != EdgeContains && e.Type != EdgeHasParameter {
				continue
			}
			closure[e.TargetID] = true
			queue = append(queue, e.TargetID)
		}
	}
	return closure
}

// deleteNodesLocked removes the given nodes with their index entries and
// every incident edge.
func (m *Memory) deleteNodesLocked(ids map[int64]bool) {
	if len(ids) == 0 {
		return
	}
	for id := range ids {
		n, ok := m.nodes[id]
		if !ok {
			continue
		}
		delete(m.index, refKey{n.Label, n.Name, n.Path, n.Line})
		delete(m.nodes, id)
	}
	for key, e := range m.edges {
		if ids[e.SourceID] || ids[e.TargetID] {
			delete(m.edges, key)
		}
	}
}

var entityLabelSet = func() map[string]bool {
	set := make(map[string]bool, len(EntityLabels))
	for _, l := range EntityLabels {
		set[l] = true
	}
	return set
}()

func cloneNode(n *Node) *Node {
	c := *n
	c.Properties = cloneProps(n.Properties)
	return &c
}

func cloneEdge(e *Edge) *Edge {
	c := *e
	c.Properties = cloneProps(e.Properties)
	return &c
}

func cloneProps(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	return maps.Clone(props)
}

func mergeProps(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}
