package wiregen

import (
	"bytes"
	"fmt"
	"go/format"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
)

// DefaultProtocolImport is the import path of the codec package the
// generated code calls into.
const DefaultProtocolImport = "github.com/vango-dev/blockwire/pkg/protocol"

// scalarKind describes how a field kind maps onto Encoder/Decoder calls.
// write and read are format strings taking the value expression and, for
// bounded kinds, the limit.
type scalarKind struct {
	goType  string
	write   string
	read    string
	fails   bool   // write returns an error
	bounded string // default limit, empty if the kind is unbounded
	size    int    // in-memory element size used for array preallocation
}

var scalarKinds = map[string]scalarKind{
	"varint":  {goType: "int32", write: "e.WriteVarInt(%s)", read: "d.ReadVarInt()", size: 4},
	"varlong": {goType: "int64", write: "e.WriteVarLong(%s)", read: "d.ReadVarLong()", size: 8},
	"bool":    {goType: "bool", write: "e.WriteBool(%s)", read: "d.ReadBool()", size: 1},
	"u8":      {goType: "uint8", write: "e.WriteUint8(%s)", read: "d.ReadUint8()", size: 1},
	"i8":      {goType: "int8", write: "e.WriteInt8(%s)", read: "d.ReadInt8()", size: 1},
	"u16":     {goType: "uint16", write: "e.WriteUint16(%s)", read: "d.ReadUint16()", size: 2},
	"i16":     {goType: "int16", write: "e.WriteInt16(%s)", read: "d.ReadInt16()", size: 2},
	"u32":     {goType: "uint32", write: "e.WriteUint32(%s)", read: "d.ReadUint32()", size: 4},
	"i32":     {goType: "int32", write: "e.WriteInt32(%s)", read: "d.ReadInt32()", size: 4},
	"u64":     {goType: "uint64", write: "e.WriteUint64(%s)", read: "d.ReadUint64()", size: 8},
	"i64":     {goType: "int64", write: "e.WriteInt64(%s)", read: "d.ReadInt64()", size: 8},
	"f32":     {goType: "float32", write: "e.WriteFloat32(%s)", read: "d.ReadFloat32()", size: 4},
	"f64":     {goType: "float64", write: "e.WriteFloat64(%s)", read: "d.ReadFloat64()", size: 8},
	"uuid":    {goType: "uuid.UUID", write: "e.WriteUUID(%s)", read: "d.ReadUUID()", size: 16},
	"bytes":   {goType: "[]byte", write: "e.WriteByteArray(%s)", read: "d.ReadByteArray()", size: 24},
	"ident":   {goType: "protocol.Ident", write: "e.WriteIdent(%s)", read: "d.ReadIdent()", fails: true, size: 32},
	"string": {goType: "string", write: "e.WriteBoundedString(%s, %s)", read: "d.ReadBoundedString(%s)",
		fails: true, bounded: "protocol.MaxStringLen", size: 16},
	"rest": {goType: "[]byte", write: "e.WriteRawBytes(%s, %s)", read: "d.ReadRawBytes(%s)",
		fails: true, bounded: "protocol.MaxPacketSize", size: 24},
}

// knownImports resolves package qualifiers that may appear in generated
// closures.
var knownImports = map[string]string{
	"uuid": "github.com/google/uuid",
}

// Generator renders generated code for parsed files.
type Generator struct {
	// ProtocolImport overrides DefaultProtocolImport.
	ProtocolImport string
}

// OutputPath returns the path of the generated file for a source file.
func OutputPath(src string) string {
	dir, base := filepath.Split(src)
	return filepath.Join(dir, strings.TrimSuffix(base, ".go")+"_wire.go")
}

var headerTmpl = template.Must(template.New("header").Parse(`// Code generated by wiregen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import (
{{.Imports}})
`))

// Generate returns gofmt'd source for f.
func (g *Generator) Generate(f *File) ([]byte, error) {
	protoImport := g.ProtocolImport
	if protoImport == "" {
		protoImport = DefaultProtocolImport
	}

	var body strings.Builder
	imports := map[string]bool{protoImport: true}
	var packets []*Type

	for _, t := range f.Types {
		switch t.Kind {
		case KindEnum:
			imports["fmt"] = true
			imports["strconv"] = true
			writeEnum(&body, t)
		case KindPacket:
			packets = append(packets, t)
			writeDescriptor(&body, t)
			fallthrough
		case KindStruct:
			for _, field := range t.Fields {
				for qual, path := range knownImports {
					if strings.Contains(field.ElemType, qual+".") {
						imports[path] = true
					}
				}
			}
			writeEncode(&body, t)
			writeDecode(&body, t)
		}
	}

	if len(packets) > 0 {
		body.WriteString("func init() {\n")
		for _, t := range packets {
			fmt.Fprintf(&body, "\tRegistry.Register(func() protocol.Packet { return new(%s) })\n", t.Name)
		}
		body.WriteString("}\n")
	}

	var out bytes.Buffer
	err := headerTmpl.Execute(&out, map[string]any{
		"Source":  filepath.Base(f.Path),
		"Package": f.Package,
		"Imports": importBlock(sortedKeys(imports)),
	})
	if err != nil {
		return nil, err
	}
	out.WriteString("\n")
	out.WriteString(body.String())

	src, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code for %s: %w\n%s", f.Path, err, out.Bytes())
	}
	return src, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Standard library imports first, then the rest, as goimports would.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0; j-- {
			a, b := keys[j-1], keys[j]
			if isStd(a) == isStd(b) && a < b || isStd(a) && !isStd(b) {
				break
			}
			keys[j-1], keys[j] = b, a
		}
	}
	return keys
}

// importBlock renders import paths with standard library packages grouped
// ahead of the rest.
func importBlock(paths []string) string {
	var b strings.Builder
	for i, p := range paths {
		if i > 0 && !isStd(p) && isStd(paths[i-1]) {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\t%q\n", p)
	}
	return b.String()
}

func isStd(path string) bool {
	return !strings.Contains(path, ".")
}

func writeDescriptor(b *strings.Builder, t *Type) {
	fmt.Fprintf(b, "// %sID is the packet ID of %s.\n", t.Name, t.Name)
	fmt.Fprintf(b, "const %sID int32 = 0x%02x\n\n", t.Name, t.PacketID)
	fmt.Fprintf(b, "// Descriptor implements protocol.Packet.\n")
	fmt.Fprintf(b, "func (*%s) Descriptor() protocol.Descriptor {\n", t.Name)
	fmt.Fprintf(b, "\treturn protocol.Descriptor{ID: %sID, Name: %q, Side: protocol.%s, State: protocol.State%s}\n",
		t.Name, t.Name, t.Side, t.State)
	b.WriteString("}\n\n")
}

func writeEncode(b *strings.Builder, t *Type) {
	iface := "protocol.Encodable"
	if t.Kind == KindPacket {
		iface = "protocol.Packet"
	}
	fmt.Fprintf(b, "// EncodeTo implements %s.\n", iface)
	fmt.Fprintf(b, "func (p *%s) EncodeTo(e *protocol.Encoder) error {\n", t.Name)
	for _, f := range t.Fields {
		b.WriteString(encodeField(t.Name, f))
	}
	b.WriteString("\treturn nil\n}\n\n")
}

func writeDecode(b *strings.Builder, t *Type) {
	iface := "protocol.Decodable"
	if t.Kind == KindPacket {
		iface = "protocol.Packet"
	}
	fmt.Fprintf(b, "// DecodeFrom implements %s.\n", iface)
	fmt.Fprintf(b, "func (p *%s) DecodeFrom(d *protocol.Decoder) (err error) {\n", t.Name)
	for _, f := range t.Fields {
		b.WriteString(decodeField(t.Name, f))
	}
	b.WriteString("\treturn nil\n}\n\n")
}

func fieldErr(typ, field string) string {
	return fmt.Sprintf("\t\treturn protocol.NewFieldError(%q, %q, err)\n\t}\n", typ, field)
}

func limit(f *Field, k scalarKind) string {
	if f.HasMax {
		return strconv.Itoa(f.Max)
	}
	return k.bounded
}

// writeCall returns the Encoder call writing expr for a scalar kind.
func writeCall(f *Field, kind string, expr string) string {
	k := scalarKinds[kind]
	if k.bounded != "" {
		return fmt.Sprintf(k.write, expr, limit(f, k))
	}
	return fmt.Sprintf(k.write, expr)
}

// readCall returns the Decoder call reading a scalar kind.
func readCall(f *Field, kind string) string {
	k := scalarKinds[kind]
	if k.bounded != "" {
		return fmt.Sprintf(k.read, limit(f, k))
	}
	return k.read
}

// elemEncodeBody is the body of a closure encoding v of the given kind.
func elemEncodeBody(f *Field, kind string) string {
	switch kind {
	case "enum", "struct":
		return "return v.EncodeTo(e)"
	}
	if scalarKinds[kind].fails {
		return "return " + writeCall(f, kind, "v")
	}
	return writeCall(f, kind, "v") + "\nreturn nil"
}

// elemDecodeBody is the body of a closure decoding a value of typ.
func elemDecodeBody(f *Field, kind, typ string) string {
	switch kind {
	case "enum", "struct":
		return fmt.Sprintf("var v %s\nerr := v.DecodeFrom(d)\nreturn v, err", typ)
	}
	return "return " + readCall(f, kind)
}

func encodeField(typ string, f *Field) string {
	v := "p." + f.Name
	switch {
	case f.Wire == "array":
		return fmt.Sprintf("\tif err := protocol.WriteArray(e, %s, %d, func(e *protocol.Encoder, v %s) error {\n%s\n}); err != nil {\n",
			v, f.Max, f.ElemType, elemEncodeBody(f, f.Elem)) + fieldErr(typ, f.Name)
	case f.Optional:
		base := strings.TrimPrefix(f.GoType, "*")
		return fmt.Sprintf("\tif err := protocol.WriteOptional(e, %s, func(e *protocol.Encoder, v %s) error {\n%s\n}); err != nil {\n",
			v, base, elemEncodeBody(f, f.Wire)) + fieldErr(typ, f.Name)
	case f.Wire == "enum" || f.Wire == "struct":
		return fmt.Sprintf("\tif err := %s.EncodeTo(e); err != nil {\n", v) + fieldErr(typ, f.Name)
	case scalarKinds[f.Wire].fails:
		return fmt.Sprintf("\tif err := %s; err != nil {\n", writeCall(f, f.Wire, v)) + fieldErr(typ, f.Name)
	default:
		return "\t" + writeCall(f, f.Wire, v) + "\n"
	}
}

func decodeField(typ string, f *Field) string {
	v := "p." + f.Name
	switch {
	case f.Wire == "array":
		size := 64
		if k, ok := scalarKinds[f.Elem]; ok {
			size = k.size
		}
		return fmt.Sprintf("\tif %s, err = protocol.ReadArray(d, %d, %d, func(d *protocol.Decoder) (%s, error) {\n%s\n}); err != nil {\n",
			v, f.Max, size, f.ElemType, elemDecodeBody(f, f.Elem, f.ElemType)) + fieldErr(typ, f.Name)
	case f.Optional:
		base := strings.TrimPrefix(f.GoType, "*")
		return fmt.Sprintf("\tif %s, err = protocol.ReadOptional(d, func(d *protocol.Decoder) (%s, error) {\n%s\n}); err != nil {\n",
			v, base, elemDecodeBody(f, f.Wire, base)) + fieldErr(typ, f.Name)
	case f.Wire == "enum" || f.Wire == "struct":
		return fmt.Sprintf("\tif err = %s.DecodeFrom(d); err != nil {\n", v) + fieldErr(typ, f.Name)
	default:
		return fmt.Sprintf("\tif %s, err = %s; err != nil {\n", v, readCall(f, f.Wire)) + fieldErr(typ, f.Name)
	}
}

func writeEnum(b *strings.Builder, t *Type) {
	n := t.Name
	fmt.Fprintf(b, "// EncodeTo implements protocol.Encodable.\n")
	fmt.Fprintf(b, "func (v %s) EncodeTo(e *protocol.Encoder) error {\n", n)
	fmt.Fprintf(b, "\tif !v.Valid() {\n\t\treturn fmt.Errorf(\"%%w: %s %%d\", protocol.ErrInvalidDiscriminant, int32(v))\n\t}\n", n)
	b.WriteString("\te.WriteVarInt(int32(v))\n\treturn nil\n}\n\n")

	fmt.Fprintf(b, "// DecodeFrom implements protocol.Decodable.\n")
	fmt.Fprintf(b, "func (v *%s) DecodeFrom(d *protocol.Decoder) error {\n", n)
	b.WriteString("\tn, err := d.ReadVarInt()\n\tif err != nil {\n\t\treturn err\n\t}\n")
	fmt.Fprintf(b, "\tif !%s(n).Valid() {\n\t\treturn fmt.Errorf(\"%%w: %s %%d\", protocol.ErrInvalidDiscriminant, n)\n\t}\n", n, n)
	fmt.Fprintf(b, "\t*v = %s(n)\n\treturn nil\n}\n\n", n)

	names := make([]string, len(t.Variants))
	for i, variant := range t.Variants {
		names[i] = variant.Name
	}
	fmt.Fprintf(b, "// Valid reports whether v is a declared %s.\n", n)
	fmt.Fprintf(b, "func (v %s) Valid() bool {\n\tswitch v {\n\tcase %s:\n\t\treturn true\n\t}\n\treturn false\n}\n\n",
		n, strings.Join(names, ", "))

	fmt.Fprintf(b, "// String returns the name of v.\n")
	fmt.Fprintf(b, "func (v %s) String() string {\n\tswitch v {\n", n)
	for _, variant := range t.Variants {
		fmt.Fprintf(b, "\tcase %s:\n\t\treturn %q\n", variant.Name, strings.TrimPrefix(variant.Name, n))
	}
	fmt.Fprintf(b, "\t}\n\treturn \"%s(\" + strconv.Itoa(int(v)) + \")\"\n}\n\n", n)
}
