package sumgen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestConfigRelations(t *testing.T) {
	yaml := `
types:
  - name: AB
    alternatives: [A, B]
  - name: BC
    alternatives: [B, C]
  - name: ABC
    alternatives: [A, B, C]
  - name: Other
    alternatives: ["*A"]
`
	cfg, err := ParseConfig([]byte(yaml), "sumgen.yaml")
	require.NoError(t, err)

	var got []Relation
	for _, rel := range cfg.Relations() {
		if rel.Kind != Disjoint {
			got = append(got, rel)
		}
	}

	want := []Relation{
		{From: "AB", To: "BC", Kind: Narrowing, Shared: []string{"B"}},
		{From: "AB", To: "ABC", Kind: Widening, Shared: []string{"A", "B"}},
		{From: "BC", To: "AB", Kind: Narrowing, Shared: []string{"B"}},
		{From: "BC", To: "ABC", Kind: Widening, Shared: []string{"B", "C"}},
		{From: "ABC", To: "AB", Kind: Narrowing, Shared: []string{"A", "B"}},
		{From: "ABC", To: "BC", Kind: Narrowing, Shared: []string{"B", "C"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("relations mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigRelations_EveryOrderedPair(t *testing.T) {
	yaml := `
types:
  - name: X
    alternatives: [A]
  - name: Y
    alternatives: [B]
  - name: Z
    alternatives: [C]
`
	cfg, err := ParseConfig([]byte(yaml), "sumgen.yaml")
	require.NoError(t, err)

	rels := cfg.Relations()
	require.Len(t, rels, 6)
	for _, rel := range rels {
		require.Equal(t, Disjoint, rel.Kind, "%s → %s", rel.From, rel.To)
		require.Empty(t, rel.Shared)
	}
}

func TestInspectResultRelations_UsesTypeIdentity(t *testing.T) {
	// AliasA is an alias of A: same key, different spelling.
	res := &InspectResult{Types: []*ResolvedType{
		resolvedType("AB", resolvedAlt("A", "A", "m.A"), resolvedAlt("B", "B", "m.B")),
		resolvedType("Wide", resolvedAlt("AliasA", "AliasA", "m.A"), resolvedAlt("B", "B", "m.B"), resolvedAlt("C", "C", "m.C")),
	}}

	rels := res.Relations()
	require.Len(t, rels, 2)
	require.Equal(t, Relation{From: "AB", To: "Wide", Kind: Widening, Shared: []string{"A", "B"}}, rels[0])
	require.Equal(t, Relation{From: "Wide", To: "AB", Kind: Narrowing, Shared: []string{"AliasA", "B"}}, rels[1])
}

func TestRelationKindString(t *testing.T) {
	require.Equal(t, "widening", Widening.String())
	require.Equal(t, "narrowing", Narrowing.String())
	require.Equal(t, "disjoint", Disjoint.String())
}

func resolvedType(name string, alts ...*ResolvedAlt) *ResolvedType {
	rt := &ResolvedType{Spec: TypeSpec{Name: name}, Alternatives: alts}
	for _, ra := range alts {
		rt.Spec.Alternatives = append(rt.Spec.Alternatives, ra.Spec)
	}
	return rt
}

func resolvedAlt(name, goString, key string) *ResolvedAlt {
	return &ResolvedAlt{
		Spec:       AltSpec{Type: goString, Name: name},
		GoString:   goString,
		Key:        key,
		Comparable: true,
	}
}
