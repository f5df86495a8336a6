package datatype

// Set is an unordered collection of unique members
type Set struct {
	members map[string]struct{}
}

func NewSet() *Set {
	return &Set{members: make(map[string]struct{})}
}

func (*Set) Kind() Kind { return KindSet }
func (*Set) sealed()    {}

// Add reports whether member was not already present
func (s *Set) Add(member string) bool {
	if _, ok := s.members[member]; ok {
		return false
	}
	s.members[member] = struct{}{}
	return true
}

// Remove reports whether member was present
func (s *Set) Remove(member string) bool {
	if _, ok := s.members[member]; !ok {
		return false
	}
	delete(s.members, member)
	return true
}

func (s *Set) Contains(member string) bool {
	_, ok := s.members[member]
	return ok
}

func (s *Set) Len() int {
	return len(s.members)
}

// Members returns the members in no particular order
func (s *Set) Members() []string {
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	return out
}
