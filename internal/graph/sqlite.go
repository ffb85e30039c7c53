package graph

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both
// contexts.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite is the file-backed Store.
type SQLite struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

var _ Store = (*SQLite)(nil)

// DefaultPath returns the default database location under the user cache
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".cache", "codegraph-mcp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir cache: %w", err)
	}
	return filepath.Join(dir, "graph.db"), nil
}

// OpenPath opens or creates a SQLite database at the given path.
func OpenPath(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &SQLite{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory SQLite database (for testing). The pool is
// pinned to one connection because each sqlite3 connection gets its own
// private :memory: database.
func OpenMemory() (*SQLite, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL DEFAULT '',
		line INTEGER NOT NULL DEFAULT 0,
		properties TEXT NOT NULL DEFAULT '{}',
		UNIQUE(label, name, path, line)
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(path);
	CREATE INDEX IF NOT EXISTS idx_nodes_label_name ON nodes(label, name);
	CREATE INDEX IF NOT EXISTS idx_nodes_label_path ON nodes(label, path);

	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		target_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		properties TEXT NOT NULL DEFAULT '{}',
		UNIQUE(source_id, target_id, type)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id, type);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id, type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTransaction executes fn within a single SQLite transaction. The
// callback receives a transaction-scoped store; the receiver's q field is
// never mutated, so concurrent read-only callers on s are unaffected. When s
// is itself transaction-scoped, fn runs on it directly.
func (s *SQLite) WithTransaction(ctx context.Context, fn func(Store) error) error {
	if s.inTx() {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &SQLite{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLite) inTx() bool {
	_, ok := s.q.(*sql.Tx)
	return ok
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB (for advanced queries).
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// UpsertNode inserts or updates a node keyed by (label, name, path, line).
// The property JSON is patched rather than replaced, so partial writes keep
// existing keys. RETURNING sidesteps the stale ids LastInsertId produces on
// the ON CONFLICT DO UPDATE path.
func (s *SQLite) UpsertNode(ctx context.Context, ref NodeRef, props map[string]any) (int64, error) {
	if ref.Label == "" {
		return 0, errEmptyLabel
	}
	var id int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO nodes (label, name, path, line, properties)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(label, name, path, line) DO UPDATE SET
			properties=json_patch(properties, excluded.properties)
		RETURNING id`,
		ref.Label, ref.Name, ref.Path, ref.Line, marshalProps(props)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert node: %w", err)
	}
	return id, nil
}

// UpsertEdge resolves both endpoint selectors and merges one edge per
// (source, target) pair. When either selector matches nothing the write is a
// silent no-op. A selector without a line can match several nodes (same name
// declared twice in one file); each match gets an edge.
func (s *SQLite) UpsertEdge(ctx context.Context, from, to NodeRef, edgeType string, props map[string]any) error {
	sourceIDs, err := s.findNodeIDs(ctx, from)
	if err != nil {
		return err
	}
	if len(sourceIDs) == 0 {
		return nil
	}
	targetIDs, err := s.findNodeIDs(ctx, to)
	if err != nil {
		return err
	}
	if len(targetIDs) == 0 {
		return nil
	}
	for _, src := range sourceIDs {
		for _, tgt := range targetIDs {
			_, err := s.q.ExecContext(ctx, `
				INSERT INTO edges (source_id, target_id, type, properties)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(source_id, target_id, type) DO UPDATE SET
					properties=json_patch(properties, excluded.properties)`,
				src, tgt, edgeType, marshalProps(props))
			if err != nil {
				return fmt.Errorf("upsert edge %s: %w", edgeType, err)
			}
		}
	}
	return nil
}

// findNodeIDs resolves a selector to node ids, ascending. Zero ref fields
// are unconstrained.
func (s *SQLite) findNodeIDs(ctx context.Context, ref NodeRef) ([]int64, error) {
	query, args := selectorQuery("SELECT id FROM nodes", ref, "ORDER BY id")
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve selector: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func selectorQuery(prefix string, ref NodeRef, suffix string) (string, []any) {
	where := []string{"label = ?"}
	args := []any{ref.Label}
	if ref.Name != "" {
		where = append(where, "name = ?")
		args = append(args, ref.Name)
	}
	if ref.Path != "" {
		where = append(where, "path = ?")
		args = append(args, ref.Path)
	}
	if ref.Line > 0 {
		where = append(where, "line = ?")
		args = append(args, ref.Line)
	}
	return prefix + " WHERE " + strings.Join(where, " AND ") + " " + suffix, args
}

// DeleteFileSubtree removes the File node and everything it contains
// (entities, parameters; their edges cascade), then prunes ancestor
// Directory nodes left without outgoing CONTAINS edges, deepest first. The
// walk stops at the first directory still containing something, since its
// ancestors necessarily still contain it.
func (s *SQLite) DeleteFileSubtree(ctx context.Context, filePath string) error {
	return s.WithTransaction(ctx, func(st Store) error {
		tx := st.(*SQLite)
		if _, err := tx.q.ExecContext(ctx, "DELETE FROM nodes WHERE path = ?", filePath); err != nil {
			return fmt.Errorf("delete file nodes: %w", err)
		}
		for _, dir := range ancestorDirs(filePath) {
			node, err := tx.FindNode(ctx, NodeRef{Label: LabelDirectory, Path: dir})
			if err != nil {
				return err
			}
			if node == nil {
				continue
			}
			var contained int
			err = tx.q.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM edges WHERE source_id = ? AND type = ?",
				node.ID, EdgeContains).Scan(&contained)
			if err != nil {
				return fmt.Errorf("count contains: %w", err)
			}
			if contained > 0 {
				break
			}
			if _, err := tx.q.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", node.ID); err != nil {
				return fmt.Errorf("prune directory: %w", err)
			}
		}
		return nil
	})
}

// DeleteRepository removes the repository node and its entire containment
// closure, following CONTAINS and HAS_PARAMETER ownership edges. Module
// nodes are shared across repositories and survive; edges into them cascade
// away with their files.
func (s *SQLite) DeleteRepository(ctx context.Context, repoPath string) error {
	_, err := s.q.ExecContext(ctx, `
		WITH RECURSIVE closure(id) AS (
			SELECT id FROM nodes WHERE label = ? AND path = ?
			UNION
			SELECT e.target_id FROM edges e
			JOIN closure c ON e.source_id = c.id AND e.type IN (?, ?)
		)
		DELETE FROM nodes WHERE id IN (SELECT id FROM closure)`,
		LabelRepository, repoPath, EdgeContains, EdgeHasParameter)
	if err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}
	return nil
}
