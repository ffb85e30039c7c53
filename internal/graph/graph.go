// Package graph stores the code graph: labeled nodes keyed by their
// uniqueness fields and typed edges between them. Two implementations share
// the Store interface, a SQLite file store and an in-memory store.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
)

// Node labels. Entity labels map one-to-one onto the extraction IR kinds.
const (
	LabelRepository = "Repository"
	LabelDirectory  = "Directory"
	LabelFile       = "File"
	LabelFunction   = "Function"
	LabelClass      = "Class"
	LabelStruct     = "Struct"
	LabelEnum       = "Enum"
	LabelUnion      = "Union"
	LabelTrait      = "Trait"
	LabelInterface  = "Interface"
	LabelMacro      = "Macro"
	LabelVariable   = "Variable"
	LabelParameter  = "Parameter"
	LabelModule     = "Module"
)

// Edge types.
const (
	EdgeContains     = "CONTAINS"
	EdgeHasParameter = "HAS_PARAMETER"
	EdgeImports      = "IMPORTS"
	EdgeCalls        = "CALLS"
	EdgeInherits     = "INHERITS"
)

// EntityLabels are the code-entity labels, excluding the containment scaffold
// (Repository/Directory/File), parameters, and modules.
var EntityLabels = []string{
	LabelFunction, LabelClass, LabelStruct, LabelEnum, LabelUnion,
	LabelTrait, LabelInterface, LabelMacro, LabelVariable,
}

var (
	// ErrReadOnly is returned by RawQuery for anything but a SELECT.
	ErrReadOnly = errors.New("raw queries are restricted to SELECT statements")
	// ErrRawUnsupported is returned by backends without a SQL surface.
	ErrRawUnsupported = errors.New("raw queries require the sqlite backend")

	errEmptyLabel = errors.New("upsert node: empty label")
)

// NodeRef selects nodes by their key fields. Label is mandatory. For writes
// the remaining fields are stored exactly as given; for reads and edge
// endpoint resolution a zero field (empty string, line 0) is unconstrained,
// so a Function can be addressed by name and file without knowing its line.
type NodeRef struct {
	Label string
	Name  string
	Path  string
	Line  int
}

// Node is a stored graph node.
type Node struct {
	ID         int64
	Label      string
	Name       string
	Path       string
	Line       int
	Properties map[string]any
}

// Edge is a stored graph edge.
type Edge struct {
	ID         int64
	SourceID   int64
	TargetID   int64
	Type       string
	Properties map[string]any
}

// Store is the graph persistence interface. Every write is an upsert keyed
// by the node's uniqueness fields; edge writes resolve both endpoint
// selectors first and silently no-op when either side matches nothing.
type Store interface {
	UpsertNode(ctx context.Context, ref NodeRef, props map[string]any) (int64, error)
	UpsertEdge(ctx context.Context, from, to NodeRef, edgeType string, props map[string]any) error

	FindNode(ctx context.Context, ref NodeRef) (*Node, error)
	FindNodes(ctx context.Context, ref NodeRef) ([]*Node, error)
	NodesByFile(ctx context.Context, filePath string) ([]*Node, error)
	EdgesFrom(ctx context.Context, sourceID int64, edgeType string) ([]*Edge, error)
	SearchEntities(ctx context.Context, query string, limit int) ([]*Node, error)
	ListRepositories(ctx context.Context) ([]*Node, error)
	RepositoryNodeCount(ctx context.Context, repoPath string) (int, error)
	CountNodesByLabel(ctx context.Context) (map[string]int, error)
	CountEdgesByType(ctx context.Context) (map[string]int, error)

	DeleteFileSubtree(ctx context.Context, filePath string) error
	DeleteRepository(ctx context.Context, repoPath string) error

	// RawQuery runs a read-only SQL statement and returns rows as column
	// name to value maps. Backends without SQL return ErrRawUnsupported.
	RawQuery(ctx context.Context, query string) ([]map[string]any, error)

	// WithTransaction runs fn against a transaction-scoped store. Calls on
	// an already transactional store run fn directly.
	WithTransaction(ctx context.Context, fn func(Store) error) error

	Close() error
}

// ancestorDirs lists the directories above path, deepest first, up to the
// filesystem root. Subtree deletion walks this to prune emptied Directory
// nodes.
func ancestorDirs(path string) []string {
	var dirs []string
	for dir := filepath.Dir(path); ; {
		dirs = append(dirs, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dirs
}

func marshalProps(props map[string]any) string {
	if len(props) == 0 {
		return "{}"
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func unmarshalProps(data string) map[string]any {
	if data == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return map[string]any{}
	}
	return m
}
