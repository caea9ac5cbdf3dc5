package yschema

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNoUniquePrimary is returned when a bean union member has no
	// property name that sets it apart from the other members.
	ErrNoUniquePrimary = errors.New("bean union member has no unique primary property")
	// ErrUnsupportedUnion is returned for member combinations that cannot be
	// disambiguated from document content.
	ErrUnsupportedUnion = errors.New("unsupported union")
)

type unionKind int

const (
	unionAtomicMap unionKind = iota
	unionBeanSeq
	unionBeans
)

// unionMember pairs a bean union member with the property that selects it.
type unionMember struct {
	primary string
	t       YType
}

type unionType struct {
	base
	name    string
	kind    unionKind
	members []YType

	// atomic/map or bean/sequence halves.
	first, second YType

	// bean unions only.
	byPrimary []unionMember
	props     []TypedProperty
	propsMap  map[string]TypedProperty
}

// Union creates a union of members. Supported combinations are one atomic
// type with one map type, one bean with one sequence, or any number of beans
// (see BeanUnion).
func Union(name string, members ...YType) (YType, error) {
	if len(members) > 0 && allBeans(members) {
		return BeanUnion(name, members...)
	}
	if len(members) == 2 {
		a, b := members[0], members[1]
		switch {
		case isPlainAtomic(a) && isPlainMap(b):
			return &unionType{name: name, kind: unionAtomicMap, members: members, first: a, second: b}, nil
		case isPlainAtomic(b) && isPlainMap(a):
			return &unionType{name: name, kind: unionAtomicMap, members: members, first: b, second: a}, nil
		case a.isBean() && isPlainSeq(b):
			return &unionType{name: name, kind: unionBeanSeq, members: members, first: a, second: b}, nil
		case b.isBean() && isPlainSeq(a):
			return &unionType{name: name, kind: unionBeanSeq, members: members, first: b, second: a}, nil
		}
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.String()
	}
	return nil, errors.Wrapf(ErrUnsupportedUnion, "%s of [%s]", name, strings.Join(names, ", "))
}

// MustUnion is like Union but panics on error.
func MustUnion(name string, members ...YType) YType {
	t, err := Union(name, members...)
	if err != nil {
		panic(err)
	}
	return t
}

// BeanUnion creates a union of beans. Every member must declare a property
// name that no other member declares; that property's presence in a mapping
// selects the member. Properties flagged Primary are preferred, otherwise
// the first unique property in declaration order is used.
func BeanUnion(name string, beans ...YType) (YType, error) {
	if len(beans) == 0 {
		return nil, errors.Errorf("bean union %s has no members", name)
	}
	if !allBeans(beans) {
		return nil, errors.Wrapf(ErrUnsupportedUnion, "bean union %s has a member that is not a bean", name)
	}

	// count how many members declare each property name
	declared := make(map[string]int)
	for _, b := range beans {
		for _, p := range beanProps(b) {
			declared[p.Name]++
		}
	}

	u := &unionType{
		name:     name,
		kind:     unionBeans,
		members:  beans,
		propsMap: make(map[string]TypedProperty),
	}
	for _, b := range beans {
		primary := uniquePrimary(beanProps(b), declared)
		if primary == "" {
			return nil, errors.Wrapf(ErrNoUniquePrimary, "union %s, member %s", name, b)
		}
		u.byPrimary = append(u.byPrimary, unionMember{primary: primary, t: b})

		for _, p := range beanProps(b) {
			if _, seen := u.propsMap[p.Name]; seen {
				continue
			}
			// Which member applies is unknown, so nothing is required yet.
			p.Required = false
			u.props = append(u.props, p)
			u.propsMap[p.Name] = p
		}
	}
	return u, nil
}

// MustBeanUnion is like BeanUnion but panics on error.
func MustBeanUnion(name string, beans ...YType) YType {
	t, err := BeanUnion(name, beans...)
	if err != nil {
		panic(err)
	}
	return t
}

func uniquePrimary(props []TypedProperty, declared map[string]int) string {
	var flagged []TypedProperty
	for _, p := range props {
		if p.Primary {
			flagged = append(flagged, p)
		}
	}
	candidates := props
	if len(flagged) > 0 {
		candidates = flagged
	}
	for _, p := range candidates {
		if declared[p.Name] == 1 {
			return p.Name
		}
	}
	return ""
}

func (t *unionType) String() string { return t.name }

func (t *unionType) isAtomic() bool {
	return t.kind == unionAtomicMap
}

func (t *unionType) isMap() bool {
	return t.kind == unionAtomicMap
}

func (t *unionType) isBean() bool {
	return t.kind == unionBeanSeq || t.kind == unionBeans
}

func (t *unionType) isSequenceable() bool {
	return t.kind == unionBeanSeq
}

func (t *unionType) narrow(dc DynamicContext, _ func(error)) YType {
	switch t.kind {
	case unionAtomicMap:
		switch {
		case dc.IsAtomic():
			return t.first
		case dc.IsMap():
			return t.second
		}
	case unionBeanSeq:
		switch {
		case dc.IsMap():
			return t.first
		case dc.IsSequence():
			return t.second
		}
	case unionBeans:
		defined := dc.DefinedProperties()
		for _, m := range t.byPrimary {
			if _, ok := defined[m.primary]; ok {
				return m.t
			}
		}
	}
	return t
}

func allBeans(ts []YType) bool {
	for _, t := range ts {
		if _, ok := t.(*beanType); !ok {
			return false
		}
	}
	return true
}

func beanProps(t YType) []TypedProperty {
	if b, ok := t.(*beanType); ok {
		return b.props
	}
	return nil
}

func isPlainAtomic(t YType) bool {
	return t.isAtomic() && !t.isMap() && !t.isBean() && !t.isSequenceable()
}

func isPlainMap(t YType) bool {
	return t.isMap() && !t.isAtomic() && !t.isSequenceable()
}

func isPlainSeq(t YType) bool {
	return t.isSequenceable() && !t.isAtomic() && !t.isMap() && !t.isBean()
}
