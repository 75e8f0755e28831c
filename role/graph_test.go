package role

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type memorySource struct {
	byID map[int64]*Role
}

func (m *memorySource) FindByCode(_ context.Context, code string) (*Role, error) {
	for _, r := range m.byID {
		if r.Code == code {
			clone := *r
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memorySource) FindByID(_ context.Context, id int64) (*Role, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func parent(id int64) *int64 { return &id }

// chainSource builds roles 1..n where role k inherits from role k-1 and
// contributes one unique permission plus one shared with its parent.
func chainSource(n int) *memorySource {
	src := &memorySource{byID: map[int64]*Role{}}
	for k := int64(1); k <= int64(n); k++ {
		r := &Role{
			ID:          k,
			Code:        code(k),
			Realm:       "end-user",
			Permissions: []string{perm(k), "common:read"},
		}
		if k > 1 {
			r.InheritFrom = parent(k - 1)
		}
		src.byID[k] = r
	}
	return src
}

func code(k int64) string { return string(rune('a'+k-1)) + "-role" }
func perm(k int64) string { return "perm:" + string(rune('a'+k-1)) }

func TestEffectivePermissionsDepths(t *testing.T) {
	ctx := context.Background()

	for _, depth := range []int{0, 1, 5} {
		src := chainSource(depth + 1)
		g := NewGraph(src, 0)

		perms, err := g.EffectivePermissions(ctx, code(int64(depth+1)))
		if err != nil {
			t.Fatalf("depth %d: EffectivePermissions: %v", depth, err)
		}

		want := map[string]struct{}{"common:read": {}}
		for k := int64(1); k <= int64(depth+1); k++ {
			want[perm(k)] = struct{}{}
		}
		if len(perms) != len(want) {
			t.Fatalf("depth %d: got %v, want %d unique permissions", depth, perms, len(want))
		}
		seen := map[string]struct{}{}
		for _, p := range perms {
			if _, dup := seen[p]; dup {
				t.Fatalf("depth %d: duplicate permission %q", depth, p)
			}
			seen[p] = struct{}{}
			if _, ok := want[p]; !ok {
				t.Fatalf("depth %d: unexpected permission %q", depth, p)
			}
		}
	}
}

func TestEffectivePermissionsDeterministicOrder(t *testing.T) {
	src := chainSource(3)
	g := NewGraph(src, 0)

	first, err := g.EffectivePermissions(context.Background(), code(3))
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	second, err := g.EffectivePermissions(context.Background(), code(3))
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolution not deterministic: %v vs %v", first, second)
	}
}

func TestEffectivePermissionsDetectsCycle(t *testing.T) {
	src := &memorySource{byID: map[int64]*Role{
		1: {ID: 1, Code: "a-role", Realm: "end-user", InheritFrom: parent(2)},
		2: {ID: 2, Code: "b-role", Realm: "end-user", InheritFrom: parent(1)},
	}}
	g := NewGraph(src, 0)

	if _, err := g.EffectivePermissions(context.Background(), "a-role"); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestWouldCreateCycle(t *testing.T) {
	// 3 -> 2 -> 1 (child -> parent)
	src := chainSource(3)
	g := NewGraph(src, 0)
	ctx := context.Background()

	cases := []struct {
		name             string
		child, candidate int64
		want             bool
	}{
		{"self edge", 1, 1, true},
		{"parent to own descendant", 1, 3, true},
		{"parent to own child", 2, 3, true},
		{"valid reparent", 3, 1, false},
		{"unrelated root", 2, 1, false},
	}

	for _, tc := range cases {
		got, err := g.WouldCreateCycle(ctx, tc.child, tc.candidate)
		if err != nil {
			t.Fatalf("%s: WouldCreateCycle: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: WouldCreateCycle = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValidateParentRejectsCrossRealm(t *testing.T) {
	src := &memorySource{byID: map[int64]*Role{
		1: {ID: 1, Code: "member", Realm: "end-user"},
		2: {ID: 2, Code: "operator", Realm: "admin"},
	}}
	g := NewGraph(src, 0)

	if err := g.ValidateParent(context.Background(), 1, 2); !errors.Is(err, ErrCrossRealm) {
		t.Fatalf("end-user inheriting admin: got %v, want ErrCrossRealm", err)
	}
	if err := g.ValidateParent(context.Background(), 2, 1); !errors.Is(err, ErrCrossRealm) {
		t.Fatalf("admin inheriting end-user: got %v, want ErrCrossRealm", err)
	}
}

func TestValidateParentAcceptsSameRealmAcyclicEdge(t *testing.T) {
	src := chainSource(2)
	src.byID[3] = &Role{ID: 3, Code: "c-role", Realm: "end-user"}
	g := NewGraph(src, 0)

	if err := g.ValidateParent(context.Background(), 3, 2); err != nil {
		t.Fatalf("ValidateParent: %v", err)
	}
}

func TestDepthBound(t *testing.T) {
	src := chainSource(10)
	g := NewGraph(src, 4)

	if _, err := g.EffectivePermissions(context.Background(), code(10)); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
}
