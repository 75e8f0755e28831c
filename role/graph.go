package role

import (
	"context"
	"errors"
	"sort"
)

var (
	// ErrNotFound indicates a role code or id with no backing record.
	ErrNotFound = errors.New("role not found")
	// ErrCycle indicates an inheritance walk that revisited a role, or an
	// edit that would introduce such a walk.
	ErrCycle = errors.New("role inheritance cycle")
	// ErrCrossRealm indicates an inheritance edge between roles of
	// different realms.
	ErrCrossRealm = errors.New("cross-realm role inheritance")
	// ErrDepthExceeded indicates an inheritance chain longer than the
	// configured bound.
	ErrDepthExceeded = errors.New("role inheritance depth exceeded")
)

// DefaultMaxDepth bounds the inheritance walk when no explicit limit is
// configured.
const DefaultMaxDepth = 32

// Role is an immutable snapshot of a role record. InheritFrom references
// the single optional parent by id.
type Role struct {
	ID          int64
	Code        string
	Realm       string
	Permissions []string
	InheritFrom *int64
}

// Source supplies role records to the graph. Implementations are expected
// to read the current persisted state; the graph never caches across calls.
type Source interface {
	FindByCode(ctx context.Context, code string) (*Role, error)
	FindByID(ctx context.Context, id int64) (*Role, error)
}

// Graph walks the inheritance relation exposed by a [Source].
type Graph struct {
	source   Source
	maxDepth int
}

// NewGraph wraps source. maxDepth <= 0 selects [DefaultMaxDepth].
func NewGraph(source Source, maxDepth int) *Graph {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Graph{source: source, maxDepth: maxDepth}
}

// EffectivePermissions returns the deduplicated, sorted union of the named
// role's own permissions and every ancestor's permissions. The walk
// terminates at a role with no parent; revisiting a role fails with
// [ErrCycle] rather than silently truncating.
func (g *Graph) EffectivePermissions(ctx context.Context, code string) ([]string, error) {
	current, err := g.source.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	union := make(map[string]struct{})
	visited := map[int64]struct{}{current.ID: {}}

	for depth := 0; ; depth++ {
		if depth > g.maxDepth {
			return nil, ErrDepthExceeded
		}
		for _, perm := range current.Permissions {
			union[perm] = struct{}{}
		}
		if current.InheritFrom == nil {
			break
		}

		parent, err := g.source.FindByID(ctx, *current.InheritFrom)
		if err != nil {
			return nil, err
		}
		if _, seen := visited[parent.ID]; seen {
			return nil, ErrCycle
		}
		visited[parent.ID] = struct{}{}
		current = parent
	}

	perms := make([]string, 0, len(union))
	for perm := range union {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms, nil
}

// WouldCreateCycle reports whether setting parentID as the parent of
// childID would make the graph cyclic. It must be consulted before any
// inherit_from write is persisted.
func (g *Graph) WouldCreateCycle(ctx context.Context, childID, parentID int64) (bool, error) {
	if childID == parentID {
		return true, nil
	}

	visited := map[int64]struct{}{}
	nextID := parentID
	for depth := 0; ; depth++ {
		if depth > g.maxDepth {
			return false, ErrDepthExceeded
		}
		if nextID == childID {
			return true, nil
		}
		if _, seen := visited[nextID]; seen {
			// Existing cycle upstream of the candidate parent; the edit
			// would graft onto it, so reject.
			return true, nil
		}
		visited[nextID] = struct{}{}

		ancestor, err := g.source.FindByID(ctx, nextID)
		if err != nil {
			return false, err
		}
		if ancestor.InheritFrom == nil {
			return false, nil
		}
		nextID = *ancestor.InheritFrom
	}
}

// ValidateParent checks a candidate inheritance edge: both roles must
// exist in the same realm and the edge must keep the graph acyclic.
func (g *Graph) ValidateParent(ctx context.Context, childID, parentID int64) error {
	child, err := g.source.FindByID(ctx, childID)
	if err != nil {
		return err
	}
	parent, err := g.source.FindByID(ctx, parentID)
	if err != nil {
		return err
	}
	if child.Realm != parent.Realm {
		return ErrCrossRealm
	}

	cyclic, err := g.WouldCreateCycle(ctx, childID, parentID)
	if err != nil {
		return err
	}
	if cyclic {
		return ErrCycle
	}
	return nil
}
