package sumgen

// RelationKind classifies the conversion from one declared sum type to another.
type RelationKind int

const (
	// Disjoint types share no alternative; no conversion is generated.
	Disjoint RelationKind = iota
	// Widening: every alternative of From is an alternative of To.
	Widening
	// Narrowing: the types overlap but From has alternatives To lacks.
	Narrowing
)

func (k RelationKind) String() string {
	switch k {
	case Widening:
		return "widening"
	case Narrowing:
		return "narrowing"
	default:
		return "disjoint"
	}
}

// Relation describes the conversion From → To.
type Relation struct {
	From string
	To   string
	Kind RelationKind
	// Shared lists the alternative names of From that To also holds, in
	// From's declaration order.
	Shared []string
}

// computeRelations returns the relation for every ordered pair of distinct
// types. key maps (type index, alternative index) to an identity string;
// alternatives with equal keys are the same type.
func computeRelations(specs []TypeSpec, key func(i, j int) string) []Relation {
	sets := make([]map[string]bool, len(specs))
	for i, ts := range specs {
		sets[i] = make(map[string]bool, len(ts.Alternatives))
		for j := range ts.Alternatives {
			sets[i][key(i, j)] = true
		}
	}

	var out []Relation
	for i, from := range specs {
		for k, to := range specs {
			if i == k {
				continue
			}
			rel := Relation{From: from.Name, To: to.Name}
			for j, alt := range from.Alternatives {
				if sets[k][key(i, j)] {
					rel.Shared = append(rel.Shared, alt.Name)
				}
			}
			switch {
			case len(rel.Shared) == len(from.Alternatives):
				rel.Kind = Widening
			case len(rel.Shared) > 0:
				rel.Kind = Narrowing
			}
			out = append(out, rel)
		}
	}
	return out
}

// Relations computes conversion relations from the type expressions as
// written. Two spellings of one type (an alias, for example) are treated as
// different here; InspectResult.Relations uses resolved type identity.
func (c *Config) Relations() []Relation {
	return computeRelations(c.Types, func(i, j int) string {
		canon, err := CanonicalType(c.Types[i].Alternatives[j].Type)
		if err != nil {
			return c.Types[i].Alternatives[j].Type
		}
		return canon
	})
}
