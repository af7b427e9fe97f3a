package source

import "strings"

// ImportKind distinguishes the import clause forms.
type ImportKind int

const (
	ImportDefault ImportKind = iota
	ImportNamed
	ImportNamespace
	ImportBare
)

// Import is one local binding introduced by an import statement.
type Import struct {
	Local    string
	Imported string
	Source   string
	Kind     ImportKind
	Line     int
}

// Class is a class declaration or expression.
type Class struct {
	Name       string
	Extends    string
	Line       int
	Node       *Node
	Default    bool
	Exported   bool
	Registered bool
	GTypeName  string
	Methods    map[string]*Node
	Order      []string
}

// Method returns the method_definition node for name, or nil.
func (c *Class) Method(name string) *Node {
	if c == nil {
		return nil
	}
	return c.Methods[name]
}

// Call is a call or new expression together with where it sits.
type Call struct {
	Node        *Node
	Callee      string
	Args        []*Node
	Line        int
	IsNew       bool
	Awaited     bool
	AssignedTo  string
	Class       string
	Method      string
	ModuleScope bool
	InCallback  bool
}

// Receiver is the callee path without its final segment.
func (c *Call) Receiver() string {
	r, _ := SplitPath(c.Callee)
	return r
}

// Name is the final segment of the callee path.
func (c *Call) Name() string {
	_, n := SplitPath(c.Callee)
	return n
}

// Arg returns the i-th argument, or nil.
func (c *Call) Arg(i int) *Node {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Member is a member access path.
type Member struct {
	Path string
	Line int
	Node *Node
}

// Literal is a string or template literal.
type Literal struct {
	Value    string
	Line     int
	Template bool
}

// Binding is a module-level variable declaration.
type Binding struct {
	Name string
	Kind string
	Line int
}

// Symbols is the flat symbol table of one file.
type Symbols struct {
	Imports  []Import
	Classes  []*Class
	Calls    []*Call
	Members  []Member
	Strings  []Literal
	Bindings []Binding

	byNode map[*Node]*Call
}

// Class returns the class with the given name, or nil.
func (s *Symbols) Class(name string) *Class {
	for _, c := range s.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// DefaultClass returns the default-exported class, or nil.
func (s *Symbols) DefaultClass() *Class {
	for _, c := range s.Classes {
		if c.Default {
			return c
		}
	}
	return nil
}

// Import returns the import binding a local name, if any.
func (s *Symbols) Import(local string) (Import, bool) {
	for _, imp := range s.Imports {
		if imp.Local == local {
			return imp, true
		}
	}
	return Import{}, false
}

// CallsIn returns the calls lexically inside a class method, including
// nested callbacks.
func (s *Symbols) CallsIn(class, method string) []*Call {
	var out []*Call
	for _, c := range s.Calls {
		if c.Class == class && c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallAt returns the call record for a call or new expression node.
func (s *Symbols) CallAt(n *Node) *Call {
	return s.byNode[n]
}

type scope struct {
	class  *Class
	method string
	depth  int
	inFunc bool
}

type extractor struct {
	syms        *Symbols
	defaultName string
}

func extract(f *File) *Symbols {
	e := &extractor{syms: &Symbols{byNode: make(map[*Node]*Call)}}
	if f.Root == nil {
		return e.syms
	}
	for _, stmt := range f.Root.Children {
		e.topLevel(stmt)
	}
	e.walk(f.Root, scope{})
	if e.defaultName != "" {
		if c := e.syms.Class(e.defaultName); c != nil {
			c.Default = true
			c.Exported = true
		}
	}
	return e.syms
}

// topLevel records imports, module bindings and default export aliases.
func (e *extractor) topLevel(n *Node) {
	switch n.Kind {
	case "import_statement":
		e.importStatement(n)
	case "lexical_declaration", "variable_declaration":
		kind := "var"
		if n.HasToken("let") {
			kind = "let"
		} else if n.HasToken("const") {
			kind = "const"
		}
		for _, d := range n.Children {
			if d.Kind != "variable_declarator" {
				continue
			}
			e.syms.Bindings = append(e.syms.Bindings, Binding{
				Name: d.Field("name").Text(),
				Kind: kind,
				Line: d.StartLine,
			})
		}
	case "export_statement":
		if !n.HasToken("default") {
			if d := n.Field("declaration"); d != nil {
				e.topLevel(d)
			}
			return
		}
		if v := Unwrap(n.Field("value")); v != nil && v.Kind == "identifier" {
			e.defaultName = v.Text()
		}
	}
}

func (e *extractor) importStatement(n *Node) {
	src, _ := StringValue(n.Field("source"))
	clause := n.FirstChild("import_clause")
	if clause == nil {
		e.syms.Imports = append(e.syms.Imports, Import{Source: src, Kind: ImportBare, Line: n.StartLine})
		return
	}
	for _, c := range clause.Children {
		switch c.Kind {
		case "identifier":
			e.syms.Imports = append(e.syms.Imports, Import{
				Local: c.Text(), Imported: "default", Source: src, Kind: ImportDefault, Line: n.StartLine,
			})
		case "namespace_import":
			if id := c.FirstChild("identifier"); id != nil {
				e.syms.Imports = append(e.syms.Imports, Import{
					Local: id.Text(), Imported: "*", Source: src, Kind: ImportNamespace, Line: n.StartLine,
				})
			}
		case "named_imports":
			for _, spec := range c.Children {
				if spec.Kind != "import_specifier" {
					continue
				}
				imported := spec.Field("name").Text()
				local := imported
				if alias := spec.Field("alias"); alias != nil {
					local = alias.Text()
				} else if len(spec.Children) == 2 {
					local = spec.Children[1].Text()
				}
				e.syms.Imports = append(e.syms.Imports, Import{
					Local: local, Imported: imported, Source: src, Kind: ImportNamed, Line: n.StartLine,
				})
			}
		}
	}
}

func (e *extractor) walk(n *Node, sc scope) {
	switch n.Kind {
	case "class_declaration", "class":
		c := e.class(n)
		for _, child := range n.Children {
			e.walk(child, scope{class: c, inFunc: sc.inFunc})
		}
		return
	case "method_definition":
		if sc.class != nil && sc.method == "" {
			name := n.Field("name").Text()
			sc.class.Methods[name] = n
			sc.class.Order = append(sc.class.Order, name)
			inner := scope{class: sc.class, method: name, inFunc: true}
			for _, child := range n.Children {
				e.walk(child, inner)
			}
			return
		}
		sc.depth++
		sc.inFunc = true
	case "function_declaration", "generator_function_declaration":
		if sc.class == nil && !sc.inFunc {
			inner := scope{method: n.Field("name").Text(), inFunc: true}
			for _, child := range n.Children {
				e.walk(child, inner)
			}
			return
		}
		sc.depth++
		sc.inFunc = true
	case "arrow_function", "function", "function_expression", "generator_function":
		sc.depth++
		sc.inFunc = true
	case "call_expression", "new_expression":
		e.call(n, sc)
	case "member_expression":
		e.syms.Members = append(e.syms.Members, Member{Path: Path(n), Line: n.StartLine, Node: n})
	case "string":
		v, _ := StringValue(n)
		e.syms.Strings = append(e.syms.Strings, Literal{Value: v, Line: n.StartLine})
	case "template_string":
		t := n.Text()
		if len(t) >= 2 {
			t = t[1 : len(t)-1]
		}
		e.syms.Strings = append(e.syms.Strings, Literal{Value: t, Line: n.StartLine, Template: true})
	}
	for _, child := range n.Children {
		e.walk(child, sc)
	}
}

func (e *extractor) class(n *Node) *Class {
	c := &Class{
		Name:    n.Field("name").Text(),
		Line:    n.StartLine,
		Node:    n,
		Methods: make(map[string]*Node),
	}
	if h := n.FirstChild("class_heritage"); h != nil && len(h.Children) > 0 {
		c.Extends = Path(h.Children[0])
		if c.Extends == "?" {
			c.Extends = h.Children[0].Text()
		}
	}

	p := n.Parent
	for p != nil && p.Kind == "parenthesized_expression" {
		p = p.Parent
	}
	if p != nil && p.Kind == "arguments" {
		if call := p.Parent; call != nil && call.Kind == "call_expression" &&
			strings.HasSuffix(Path(call.Field("function")), "registerClass") {
			c.Registered = true
			if len(p.Children) > 1 {
				c.GTypeName = objectString(p.Children[0], "GTypeName")
			}
			p = call.Parent
		}
	}
	if c.Name == "" {
		c.Name = bindingName(p)
	}
	if p != nil && p.Kind == "export_statement" {
		c.Exported = true
		c.Default = p.HasToken("default")
	}
	if c.GTypeName == "" {
		c.GTypeName = staticGTypeName(n)
	}
	e.syms.Classes = append(e.syms.Classes, c)
	return c
}

// bindingName names an anonymous class from the declaration holding it.
func bindingName(p *Node) string {
	switch {
	case p == nil:
		return ""
	case p.Kind == "variable_declarator":
		return p.Field("name").Text()
	case p.Kind == "assignment_expression":
		return Path(p.Field("left"))
	}
	return ""
}

func objectString(obj *Node, key string) string {
	obj = Unwrap(obj)
	if obj == nil || obj.Kind != "object" {
		return ""
	}
	for _, pair := range obj.Children {
		if pair.Kind != "pair" {
			continue
		}
		k := pair.Field("key").Text()
		if strings.Trim(k, `'"`) == key {
			v, _ := StringValue(pair.Field("value"))
			return v
		}
	}
	return ""
}

func staticGTypeName(class *Node) string {
	body := class.Field("body")
	if body == nil {
		return ""
	}
	for _, m := range body.Children {
		if m.Kind != "field_definition" || !m.HasToken("static") {
			continue
		}
		if m.Field("property").Text() == "GTypeName" {
			v, _ := StringValue(m.Field("value"))
			return v
		}
		if len(m.Children) == 2 && m.Children[0].Text() == "GTypeName" {
			v, _ := StringValue(m.Children[1])
			return v
		}
	}
	return ""
}

func (e *extractor) call(n *Node, sc scope) {
	c := &Call{
		Node:        n,
		Line:        n.StartLine,
		IsNew:       n.Kind == "new_expression",
		ModuleScope: !sc.inFunc,
		InCallback:  sc.depth > 0,
		Method:      sc.method,
	}
	if sc.class != nil {
		c.Class = sc.class.Name
	}
	if c.IsNew {
		c.Callee = Path(n.Field("constructor"))
	} else {
		c.Callee = Path(n.Field("function"))
	}
	if args := n.Field("arguments"); args != nil {
		c.Args = args.Children
	}

	p := n.Parent
	for p != nil && p.Kind == "parenthesized_expression" {
		p = p.Parent
	}
	if p != nil && p.Kind == "await_expression" {
		c.Awaited = true
		p = p.Parent
	}
	switch {
	case p == nil:
	case p.Kind == "assignment_expression" && p.Field("right") != nil && p.Field("right").Contains(n):
		c.AssignedTo = Path(p.Field("left"))
		if c.AssignedTo == "?" {
			c.AssignedTo = p.Field("left").Text()
		}
	case p.Kind == "variable_declarator":
		c.AssignedTo = p.Field("name").Text()
	}
	e.syms.Calls = append(e.syms.Calls, c)
	e.syms.byNode[n] = c
}
