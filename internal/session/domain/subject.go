package domain

import "slices"

// Attribute is the kind of an authorization-relevant subject attribute.
type Attribute string

const (
	AttributeUserID               Attribute = "USER_ID"
	AttributeUserType             Attribute = "USER_TYPE"
	AttributeOrganizationID       Attribute = "ORGANIZATION_ID"
	AttributeClientIP             Attribute = "CLIENT_IP"
	AttributeAuthenticationMethod Attribute = "AUTHENTICATION_METHOD"
)

// USER_TYPE attribute values.
const (
	UserTypeInternal = "internal"
	UserTypeExternal = "external"
)

// Fragment is one identity source's contribution of attribute values. The
// closed set of fragments is: principal, internal role, external role,
// network origin and authentication method.
type Fragment map[Attribute][]string

func PrincipalFragment(p Principal) Fragment {
	return Fragment{AttributeUserID: {p.ID}}
}

func InternalRoleFragment(m InternalManager) Fragment {
	return Fragment{AttributeUserType: {UserTypeInternal}}
}

func ExternalRoleFragment(m ExternalManager) Fragment {
	return Fragment{
		AttributeUserType:       {UserTypeExternal},
		AttributeOrganizationID: {m.OrganizationID},
	}
}

func OriginFragment(ip string) Fragment {
	return Fragment{AttributeClientIP: {ip}}
}

func AuthMethodFragment(m AuthenticationMethod) Fragment {
	return Fragment{AttributeAuthenticationMethod: {string(m)}}
}

// Subject is the request-scoped composite identity handed to authorization
// checks. It is built fresh per request and never persisted.
type Subject struct {
	attrs map[Attribute]map[string]struct{}
}

// CombineFragments unions the attribute sets of all fragments. There is no
// precedence: a key present in two fragments yields the union of both
// fragments' values, regardless of order.
func CombineFragments(fragments ...Fragment) *Subject {
	s := &Subject{attrs: make(map[Attribute]map[string]struct{})}
	for _, fragment := range fragments {
		for attr, values := range fragment {
			set, ok := s.attrs[attr]
			if !ok {
				set = make(map[string]struct{})
				s.attrs[attr] = set
			}
			for _, v := range values {
				set[v] = struct{}{}
			}
		}
	}
	return s
}

// Get returns the sorted values held for an attribute, or nil when the
// subject carries none.
func (s *Subject) Get(attr Attribute) []string {
	set, ok := s.attrs[attr]
	if !ok || len(set) == 0 {
		return nil
	}

	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Has reports whether the subject holds the given value for an attribute.
func (s *Subject) Has(attr Attribute, value string) bool {
	_, ok := s.attrs[attr][value]
	return ok
}

// Attributes returns the attribute kinds the subject carries, sorted.
func (s *Subject) Attributes() []Attribute {
	out := make([]Attribute, 0, len(s.attrs))
	for attr := range s.attrs {
		out = append(out, attr)
	}
	slices.Sort(out)
	return out
}
