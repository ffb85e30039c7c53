package graph

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const nodeCols = "id, label, name, path, line, properties"

// FindNode returns the first node matching the selector, or nil when none
// does.
func (s *SQLite) FindNode(ctx context.Context, ref NodeRef) (*Node, error) {
	query, args := selectorQuery("SELECT "+nodeCols+" FROM nodes", ref, "ORDER BY id LIMIT 1")
	return scanNode(s.q.QueryRowContext(ctx, query, args...))
}

// FindNodes returns all nodes matching the selector, ascending by id.
func (s *SQLite) FindNodes(ctx context.Context, ref NodeRef) ([]*Node, error) {
	query, args := selectorQuery("SELECT "+nodeCols+" FROM nodes", ref, "ORDER BY id")
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// NodesByFile returns every node stored under a file path: the File node
// itself plus its entities and parameters.
func (s *SQLite) NodesByFile(ctx context.Context, filePath string) ([]*Node, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+nodeCols+" FROM nodes WHERE path = ? ORDER BY line, id", filePath)
	if err != nil {
		return nil, fmt.Errorf("nodes by file: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// EdgesFrom returns outgoing edges of a type from a node.
func (s *SQLite) EdgesFrom(ctx context.Context, sourceID int64, edgeType string) ([]*Edge, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, source_id, target_id, type, properties
		FROM edges WHERE source_id = ? AND type = ? ORDER BY id`, sourceID, edgeType)
	if err != nil {
		return nil, fmt.Errorf("edges from: %w", err)
	}
	defer rows.Close()
	var result []*Edge
	for rows.Next() {
		var e Edge
		var props string
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Type, &props); err != nil {
			return nil, err
		}
		e.Properties = unmarshalProps(props)
		result = append(result, &e)
	}
	return result, rows.Err()
}

// SearchEntities finds code entities whose name or source text contains the
// query, case-insensitive, capped at limit.
func (s *SQLite) SearchEntities(ctx context.Context, query string, limit int) ([]*Node, error) {
	placeholders := strings.Repeat("?,", len(EntityLabels))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(EntityLabels)+3)
	for _, l := range EntityLabels {
		args = append(args, l)
	}
	pattern := "%" + query + "%"
	args = append(args, pattern, pattern, limit)

	rows, err := s.q.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM nodes
		WHERE label IN (%s)
		  AND (name LIKE ? OR json_extract(properties, '$.source') LIKE ?)
		ORDER BY label, name, path, line LIMIT ?`, nodeCols, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// ListRepositories returns all Repository nodes ordered by path.
func (s *SQLite) ListRepositories(ctx context.Context) ([]*Node, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+nodeCols+" FROM nodes WHERE label = ? ORDER BY path", LabelRepository)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// RepositoryNodeCount returns how many nodes a repository's containment
// closure holds, excluding the repository node itself. Zero when the
// repository is not indexed.
func (s *SQLite) RepositoryNodeCount(ctx context.Context, repoPath string) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx, `
		WITH RECURSIVE closure(id) AS (
			SELECT id FROM nodes WHERE label = ? AND path = ?
			UNION
			SELECT e.target_id FROM edges e
			JOIN closure c ON e.source_id = c.id AND e.type IN (?, ?)
		)
		SELECT COUNT(*) FROM closure`,
		LabelRepository, repoPath, EdgeContains, EdgeHasParameter).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository node count: %w", err)
	}
	if count > 0 {
		count--
	}
	return count, nil
}

// CountNodesByLabel returns node counts grouped by label.
func (s *SQLite) CountNodesByLabel(ctx context.Context) (map[string]int, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT label, COUNT(*) FROM nodes GROUP BY label")
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	defer rows.Close()
	return scanCounts(rows)
}

// CountEdgesByType returns edge counts grouped by type.
func (s *SQLite) CountEdgesByType(ctx context.Context) (map[string]int, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT type, COUNT(*) FROM edges GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}
	defer rows.Close()
	return scanCounts(rows)
}

// maxRawRows caps RawQuery result sets.
const maxRawRows = 1000

// RawQuery runs one SELECT statement and returns up to maxRawRows rows as
// column name to value maps. Anything that does not start with SELECT is
// rejected with ErrReadOnly before touching the database.
func (s *SQLite) RawQuery(ctx context.Context, query string) ([]map[string]any, error) {
	stmt := strings.TrimSpace(query)
	if !isSelect(stmt) {
		return nil, ErrReadOnly
	}
	rows, err := s.q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("raw query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result []map[string]any
	for rows.Next() {
		if len(result) >= maxRawRows {
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = vals[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func isSelect(stmt string) bool {
	if len(stmt) < 6 || !strings.EqualFold(stmt[:6], "select") {
		return false
	}
	if len(stmt) == 6 {
		return true
	}
	switch stmt[6] {
	case ' ', '\t', '\n', '\r', '(', '*':
		return true
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*Node, error) {
	var n Node
	var props string
	err := row.Scan(&n.ID, &n.Label, &n.Name, &n.Path, &n.Line, &props)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	n.Properties = unmarshalProps(props)
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	var result []*Node
	for rows.Next() {
		var n Node
		var props string
		if err := rows.Scan(&n.ID, &n.Label, &n.Name, &n.Path, &n.Line, &props); err != nil {
			return nil, err
		}
		n.Properties = unmarshalProps(props)
		result = append(result, &n)
	}
	return result, rows.Err()
}

func scanCounts(rows *sql.Rows) (map[string]int, error) {
	result := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		result[key] = count
	}
	return result, rows.Err()
}
