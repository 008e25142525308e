package wiregen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
)

// Directive kinds.
const (
	KindPacket = "packet"
	KindStruct = "struct"
	KindEnum   = "enum"
)

// File is the set of declarations found in one source file.
type File struct {
	Path    string
	Package string
	Types   []*Type
}

// Type is a struct or enum carrying a wire directive.
type Type struct {
	Name       string
	Kind       string
	PacketID   int64
	State      string
	Side       string
	Fields     []*Field
	Variants   []Variant
	Underlying string
}

// Field is one wire field of a struct.
type Field struct {
	Name     string
	GoType   string
	Wire     string
	Elem     string
	ElemType string
	Max      int
	HasMax   bool
	Optional bool
}

// Variant is one named constant of an enum.
type Variant struct {
	Name  string
	Value string
}

// ParseFile reads a Go source file and returns its wire declarations.
// Files without directives yield an empty Types slice.
func ParseFile(path string, src any) (*File, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	out := &File{Path: path, Package: f.Name.Name}
	enums := make(map[string]*Type)

	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			dir, args, ok := findDirective(doc)
			if !ok {
				continue
			}
			t, err := buildType(ts, dir, args)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fset.Position(ts.Pos()), err)
			}
			if t.Kind == KindEnum {
				enums[t.Name] = t
			}
			out.Types = append(out.Types, t)
		}
	}

	collectVariants(f, enums)
	for name, t := range enums {
		if len(t.Variants) == 0 {
			return nil, fmt.Errorf("%s: enum %s has no constants", path, name)
		}
	}
	return out, nil
}

// findDirective returns the first //wire: directive in a comment group.
func findDirective(doc *ast.CommentGroup) (string, map[string]string, bool) {
	if doc == nil {
		return "", nil, false
	}
	for _, c := range doc.List {
		text, ok := strings.CutPrefix(c.Text, "//wire:")
		if !ok {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		args := make(map[string]string)
		for _, kv := range fields[1:] {
			k, v, _ := strings.Cut(kv, "=")
			args[k] = v
		}
		return fields[0], args, true
	}
	return "", nil, false
}

func buildType(ts *ast.TypeSpec, dir string, args map[string]string) (*Type, error) {
	t := &Type{Name: ts.Name.Name, Kind: dir}

	switch dir {
	case KindPacket:
		id, err := strconv.ParseInt(args["id"], 0, 32)
		if err != nil {
			return nil, fmt.Errorf("packet %s: bad id %q", t.Name, args["id"])
		}
		t.PacketID = id
		t.State = args["state"]
		t.Side = args["side"]
		if !validState(t.State) {
			return nil, fmt.Errorf("packet %s: unknown state %q", t.Name, t.State)
		}
		if t.Side != "Clientbound" && t.Side != "Serverbound" {
			return nil, fmt.Errorf("packet %s: unknown side %q", t.Name, t.Side)
		}
		fallthrough
	case KindStruct:
		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			return nil, fmt.Errorf("%s: //wire:%s requires a struct type", t.Name, dir)
		}
		for _, f := range st.Fields.List {
			fields, err := buildFields(f)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Name, err)
			}
			t.Fields = append(t.Fields, fields...)
		}
	case KindEnum:
		ident, ok := ts.Type.(*ast.Ident)
		if !ok {
			return nil, fmt.Errorf("%s: //wire:enum requires an integer type", t.Name)
		}
		t.Underlying = ident.Name
	default:
		return nil, fmt.Errorf("%s: unknown directive //wire:%s", t.Name, dir)
	}
	return t, nil
}

func validState(s string) bool {
	switch s {
	case "Handshaking", "Status", "Login", "Configuration", "Play":
		return true
	}
	return false
}

func buildFields(f *ast.Field) ([]*Field, error) {
	if f.Tag == nil {
		return nil, fmt.Errorf("field %s has no wire tag", fieldNames(f))
	}
	raw, err := strconv.Unquote(f.Tag.Value)
	if err != nil {
		return nil, err
	}
	tag, ok := reflect.StructTag(raw).Lookup("wire")
	if !ok {
		return nil, fmt.Errorf("field %s has no wire tag", fieldNames(f))
	}
	goType := exprString(f.Type)

	var out []*Field
	for _, name := range f.Names {
		field, err := parseTag(name.Name, goType, tag)
		if err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, nil
}

// parseTag interprets a wire tag such as "string,max=16,optional".
func parseTag(name, goType, tag string) (*Field, error) {
	parts := strings.Split(tag, ",")
	field := &Field{Name: name, GoType: goType, Wire: parts[0]}
	for _, opt := range parts[1:] {
		k, v, _ := strings.Cut(opt, "=")
		switch k {
		case "max":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("field %s: bad max %q", name, v)
			}
			field.Max, field.HasMax = n, true
		case "optional":
			field.Optional = true
		case "elem":
			field.Elem = v
		default:
			return nil, fmt.Errorf("field %s: unknown option %q", name, k)
		}
	}

	base := goType
	if field.Optional {
		var ok bool
		if base, ok = strings.CutPrefix(goType, "*"); !ok {
			return nil, fmt.Errorf("field %s: optional requires a pointer type, got %s", name, goType)
		}
	}

	switch field.Wire {
	case "array":
		elemType, ok := strings.CutPrefix(base, "[]")
		if !ok {
			return nil, fmt.Errorf("field %s: array requires a slice type, got %s", name, goType)
		}
		if field.Elem == "" {
			field.Elem = "struct"
		}
		if _, ok := scalarKinds[field.Elem]; !ok && field.Elem != "struct" && field.Elem != "enum" {
			return nil, fmt.Errorf("field %s: unknown element kind %q", name, field.Elem)
		}
		field.ElemType = elemType
		if !field.HasMax {
			return nil, fmt.Errorf("field %s: array requires max", name)
		}
	case "enum", "struct":
	default:
		k, ok := scalarKinds[field.Wire]
		if !ok {
			return nil, fmt.Errorf("field %s: unknown wire kind %q", name, field.Wire)
		}
		if k.goType != base {
			return nil, fmt.Errorf("field %s: kind %s needs Go type %s, got %s", name, field.Wire, k.goType, base)
		}
	}
	return field, nil
}

// collectVariants attaches typed constants to their enums.
func collectVariants(f *ast.File, enums map[string]*Type) {
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			if vs.Type == nil || len(vs.Values) != len(vs.Names) {
				continue
			}
			t, ok := enums[exprString(vs.Type)]
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				t.Variants = append(t.Variants, Variant{Name: name.Name, Value: exprString(vs.Values[i])})
			}
		}
	}
}

func fieldNames(f *ast.Field) string {
	names := make([]string, len(f.Names))
	for i, n := range f.Names {
		names[i] = n.Name
	}
	return strings.Join(names, ", ")
}

func exprString(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.StarExpr:
		return "*" + exprString(x.X)
	case *ast.ArrayType:
		if x.Len == nil {
			return "[]" + exprString(x.Elt)
		}
		return "[" + exprString(x.Len) + "]" + exprString(x.Elt)
	case *ast.SelectorExpr:
		return exprString(x.X) + "." + x.Sel.Name
	case *ast.BasicLit:
		return x.Value
	case *ast.UnaryExpr:
		return x.Op.String() + exprString(x.X)
	default:
		return fmt.Sprintf("%T", e)
	}
}
