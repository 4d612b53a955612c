package xmltoken

// nsFrame is one scope on the in-scope-namespaces stack: a snapshot of
// prefix -> URI bindings visible at some element depth. Default (no
// prefix) binds under the empty-string key.
type nsFrame struct {
	bindings map[string]string
}

// nsStack resolves prefixed names to (URI, local) pairs across nested
// element scopes, per §4.2 "Namespace handling".
type nsStack struct {
	frames []nsFrame
}

func newNsStack() *nsStack {
	return &nsStack{frames: []nsFrame{{bindings: map[string]string{"xml": "http://www.w3.org/XML/1998/namespace"}}}}
}

// push adds a new frame that inherits the parent's bindings, then applies
// any xmlns declarations found among attrs.
func (s *nsStack) push(rawAttrs []rawAttr) {
	parent := s.frames[len(s.frames)-1]
	next := nsFrame{bindings: make(map[string]string, len(parent.bindings))}
	for k, v := range parent.bindings {
		next.bindings[k] = v
	}

	for _, a := range rawAttrs {
		switch {
		case a.prefix == "" && a.local == "xmlns":
			next.bindings[""] = a.value
		case a.prefix == "xmlns":
			next.bindings[a.local] = a.value
		}
	}

	s.frames = append(s.frames, next)
}

// pop discards the innermost frame (on Element-Close).
func (s *nsStack) pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// resolve maps a raw (prefix, local) pair to a namespace-qualified Name
// using the current (innermost) frame. isAttr controls the default-
// namespace rule: unprefixed attributes never inherit the default
// namespace, only unprefixed elements do.
func (s *nsStack) resolve(prefix, local string, isAttr bool) Name {
	frame := s.frames[len(s.frames)-1]
	if prefix == "" {
		if isAttr {
			return Name{URI: "", Local: local}
		}
		return Name{URI: frame.bindings[""], Local: local}
	}
	return Name{URI: frame.bindings[prefix], Local: local}
}

// rawAttr is an unresolved attribute as scanned straight off the wire,
// before namespace resolution (which needs the full attribute list of an
// element to see its xmlns declarations first).
type rawAttr struct {
	prefix, local string
	value         string
	start, end    int
}
