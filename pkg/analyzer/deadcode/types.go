package deadcode

// ScopeKind classifies a scope.
type ScopeKind string

const (
	ScopeGlobal   ScopeKind = "global"
	ScopeFunction ScopeKind = "function"
)

// String returns the string representation.
func (k ScopeKind) String() string {
	return string(k)
}

// Binding is a name declared in a scope.
type Binding struct {
	Name       string `json:"name"`
	Line       int    `json:"line"`
	IsFunction bool   `json:"is_function"`
	IsParam    bool   `json:"is_param"`
	// Index is the parameter position, or -1.
	Index int `json:"index"`
}

// Export is a property of the export object whose value is a bare name.
type Export struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Scope is the global scope of a fragment or the scope of one function.
type Scope struct {
	Kind     ScopeKind           `json:"kind"`
	Name     string              `json:"name,omitempty"`
	Line     int                 `json:"line"`
	Declared map[string]*Binding `json:"declared"`
	// Used holds names resolved to this scope plus names used here that
	// resolve nowhere.
	Used     map[string]bool `json:"used"`
	Children []*Scope        `json:"children,omitempty"`
	Parent   *Scope          `json:"-"`

	// HasExport is set on a global scope whose fragment ends its top
	// level with an object literal.
	HasExport bool     `json:"has_export,omitempty"`
	Exports   []Export `json:"exports,omitempty"`

	order []string
}

func newScope(kind ScopeKind, name string, parent *Scope, line int) *Scope {
	return &Scope{
		Kind:     kind,
		Name:     name,
		Line:     line,
		Declared: make(map[string]*Binding),
		Used:     make(map[string]bool),
		Parent:   parent,
	}
}

// declare adds b unless the name is already bound here.
func (s *Scope) declare(b *Binding) {
	if _, ok := s.Declared[b.Name]; ok {
		return
	}
	s.Declared[b.Name] = b
	s.order = append(s.order, b.Name)
}

// mark records a use of name in the nearest scope declaring it, or here.
func (s *Scope) mark(name string) {
	for sc := s; sc != nil; sc = sc.Parent {
		if _, ok := sc.Declared[name]; ok {
			sc.Used[name] = true
			return
		}
	}
	s.Used[name] = true
}

// Bindings returns the declared names in declaration order.
func (s *Scope) Bindings() []*Binding {
	out := make([]*Binding, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.Declared[name])
	}
	return out
}

// Unused returns the declared names never used, in declaration order.
func (s *Scope) Unused() []*Binding {
	var out []*Binding
	for _, b := range s.Bindings() {
		if !s.Used[b.Name] {
			out = append(out, b)
		}
	}
	return out
}

// Lookup returns the scope declaring name, searching outward from s.
func (s *Scope) Lookup(name string) *Scope {
	for sc := s; sc != nil; sc = sc.Parent {
		if _, ok := sc.Declared[name]; ok {
			return sc
		}
	}
	return nil
}

// Walk calls fn for s and every descendant scope, parents first.
func (s *Scope) Walk(fn func(*Scope)) {
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}
