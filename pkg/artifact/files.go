package artifact

// Files maps artifact names to their final local path, keeping first-insertion order.
// The zero value is ready to use.
type Files struct {
	order []string
	paths map[string]string
}

// NewFiles returns an empty table.
func NewFiles() *Files {
	return &Files{paths: make(map[string]string)}
}

// Set records path for name. Updating an existing name keeps its position.
func (f *Files) Set(name, path string) {
	if f.paths == nil {
		f.paths = make(map[string]string)
	}
	if _, ok := f.paths[name]; !ok {
		f.order = append(f.order, name)
	}
	f.paths[name] = path
}

// Get returns the path recorded for name.
func (f *Files) Get(name string) (string, bool) {
	p, ok := f.paths[name]
	return p, ok
}

// Len returns the number of entries.
func (f *Files) Len() int {
	return len(f.order)
}

// Names returns the artifact names in insertion order.
func (f *Files) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Map returns a copy of the table as a plain map.
func (f *Files) Map() map[string]string {
	out := make(map[string]string, len(f.paths))
	for k, v := range f.paths {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the table.
func (f *Files) Clone() *Files {
	c := NewFiles()
	for _, name := range f.order {
		c.Set(name, f.paths[name])
	}
	return c
}
