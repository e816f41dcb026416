package module

import (
	"testing"

	"github.com/clojurewasm/cljw/internal/compiler"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/gc"
	"github.com/clojurewasm/cljw/internal/value"
)

func newTestEnv() *env.Env {
	return env.New(gc.New())
}

func TestEncodeDecode_SimpleProto(t *testing.T) {
	proto := &compiler.Proto{
		Name:       "test",
		ParamNames: []string{"a", "b"},
		Code:       []byte{byte(compiler.OpConst), 0, 0, byte(compiler.OpConst), 1, 0, byte(compiler.OpReturn)},
		Consts:     []value.Value{value.Int(42), value.Int(10)},
		Names:      []string{"a", "b"},
	}

	data, err := Encode(proto)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := Decode(data, newTestEnv())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.Name != proto.Name {
		t.Errorf("Name mismatch: expected %q, got %q", proto.Name, decoded.Name)
	}
	if len(decoded.ParamNames) != len(proto.ParamNames) {
		t.Fatalf("ParamNames length mismatch: expected %d, got %d", len(proto.ParamNames), len(decoded.ParamNames))
	}
	for i := range proto.ParamNames {
		if decoded.ParamNames[i] != proto.ParamNames[i] {
			t.Errorf("ParamNames[%d] mismatch: expected %q, got %q", i, proto.ParamNames[i], decoded.ParamNames[i])
		}
	}
	if len(decoded.Code) != len(proto.Code) {
		t.Fatalf("Code length mismatch: expected %d, got %d", len(proto.Code), len(decoded.Code))
	}
	for i := range proto.Code {
		if decoded.Code[i] != proto.Code[i] {
			t.Errorf("Code[%d] mismatch: expected %d, got %d", i, proto.Code[i], decoded.Code[i])
		}
	}
	if len(decoded.Consts) != len(proto.Consts) {
		t.Fatalf("Consts length mismatch: expected %d, got %d", len(proto.Consts), len(decoded.Consts))
	}
	for i := range proto.Consts {
		if decoded.Consts[i].Kind != proto.Consts[i].Kind {
			t.Errorf("Consts[%d] kind mismatch: expected %v, got %v", i, proto.Consts[i].Kind, decoded.Consts[i].Kind)
		}
		if decoded.Consts[i].AsInt() != proto.Consts[i].AsInt() {
			t.Errorf("Consts[%d] value mismatch: expected %d, got %d", i, proto.Consts[i].AsInt(), decoded.Consts[i].AsInt())
		}
	}
}

func TestEncodeDecode_AllConstTypes(t *testing.T) {
	e := newTestEnv()
	v := e.FindOrCreate("user").Intern("x")

	tests := []struct {
		name string
		v    value.Value
	}{
		{"nil", value.Nil()},
		{"bool_true", value.Bool(true)},
		{"bool_false", value.Bool(false)},
		{"char", value.Char('x')},
		{"int_positive", value.Int(42)},
		{"int_negative", value.Int(-42)},
		{"float", value.Float(3.14)},
		{"string", value.String("hello")},
		{"string_unicode", value.String("hello 世界")},
		{"keyword", value.KeywordValue("user", "foo")},
		{"symbol", value.SymbolValue("", "bar")},
		{"var", value.Value{Kind: value.KindVar, Data: v}},
		{"list", value.ListValue(value.Cons(value.Int(1), value.Cons(value.Int(2), value.EmptyList())))},
		{"vector", value.Value{}},
	}
	tests[len(tests)-1].v = vectorOf(value.Int(1), value.Int(2), value.Int(3))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proto := &compiler.Proto{Name: "t_" + tt.name, Consts: []value.Value{tt.v}}
			data, err := Encode(proto)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			decoded, err := Decode(data, e)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if len(decoded.Consts) != 1 {
				t.Fatalf("expected 1 const, got %d", len(decoded.Consts))
			}
			if decoded.Consts[0].Kind != tt.v.Kind {
				t.Errorf("kind mismatch: expected %v, got %v", tt.v.Kind, decoded.Consts[0].Kind)
			}
		})
	}
}

func vectorOf(vals ...value.Value) value.Value {
	vec := value.EmptyVector()
	for _, v := range vals {
		vec = vec.Conj(v)
	}
	return value.Value{Kind: value.KindVector, Data: vec}
}

func TestEncodeDecode_NestedProtos(t *testing.T) {
	child := &compiler.Proto{
		Name:       "child",
		ParamNames: []string{"n"},
		Code:       []byte{byte(compiler.OpLoadLocal), 0, 0, byte(compiler.OpReturn)},
		Names:      []string{"n"},
	}
	root := &compiler.Proto{
		Name:   "root",
		Code:   []byte{byte(compiler.OpMakeClosure), 0, 0, byte(compiler.OpReturn)},
		Protos: []*compiler.Proto{child},
	}

	data, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(data, newTestEnv())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Name != "root" {
		t.Fatalf("expected root proto first, got %q", decoded.Name)
	}
	if len(decoded.Protos) != 1 {
		t.Fatalf("expected 1 child proto, got %d", len(decoded.Protos))
	}
	if decoded.Protos[0].Name != "child" {
		t.Errorf("child Name mismatch: got %q", decoded.Protos[0].Name)
	}
	if len(decoded.Protos[0].ParamNames) != 1 || decoded.Protos[0].ParamNames[0] != "n" {
		t.Errorf("child ParamNames mismatch: got %v", decoded.Protos[0].ParamNames)
	}
}

func TestEncodeDecode_TryInfo(t *testing.T) {
	body := &compiler.Proto{Name: "try-body", Code: []byte{byte(compiler.OpReturn)}}
	catchBody := &compiler.Proto{Name: "catch-body", ParamNames: []string{"e"}, Code: []byte{byte(compiler.OpReturn)}}
	root := &compiler.Proto{
		Name:   "root",
		Code:   []byte{byte(compiler.OpTry), 0, 0, byte(compiler.OpReturn)},
		Protos: []*compiler.Proto{body, catchBody},
		TryInfos: []compiler.TryInfo{
			{
				BodyProto: 0,
				Catches: []compiler.CatchInfo{
					{ClassName: "Exception", Local: "e", BodyProto: 1},
				},
				FinallyProto: -1,
			},
		},
	}

	data, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(data, newTestEnv())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded.TryInfos) != 1 {
		t.Fatalf("expected 1 TryInfo, got %d", len(decoded.TryInfos))
	}
	ti := decoded.TryInfos[0]
	if ti.BodyProto != 0 || ti.FinallyProto != -1 {
		t.Errorf("TryInfo indices mismatch: %+v", ti)
	}
	if len(ti.Catches) != 1 || ti.Catches[0].ClassName != "Exception" || ti.Catches[0].BodyProto != 1 {
		t.Errorf("Catches mismatch: %+v", ti.Catches)
	}
}

func TestEncodeDecode_ClassMetadata(t *testing.T) {
	root := &compiler.Proto{
		Name:        "root",
		Code:        []byte{byte(compiler.OpNewInstance), 0, 0, 2, 0, byte(compiler.OpReturn)},
		ClassNames:  []string{"Point"},
		ClassFields: [][]string{{"x", "y"}},
	}

	data, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(data, newTestEnv())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded.ClassNames) != 1 || decoded.ClassNames[0] != "Point" {
		t.Errorf("ClassNames mismatch: %v", decoded.ClassNames)
	}
	if len(decoded.ClassFields) != 1 || len(decoded.ClassFields[0]) != 2 {
		t.Fatalf("ClassFields mismatch: %v", decoded.ClassFields)
	}
	if decoded.ClassFields[0][0] != "x" || decoded.ClassFields[0][1] != "y" {
		t.Errorf("ClassFields contents mismatch: %v", decoded.ClassFields[0])
	}
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	if _, err := Decode([]byte("nope"), newTestEnv()); err == nil {
		t.Fatal("expected an error for bad magic, got nil")
	}
}

func TestDecode_RejectsIncompatibleVersion(t *testing.T) {
	root := &compiler.Proto{Name: "root"}
	data, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// Corrupt the version's major byte (byte index 5: magic(4) + high byte of the little-endian version u16).
	data[5] = VersionMajor + 1
	if _, err := Decode(data, newTestEnv()); err == nil {
		t.Fatal("expected an error for incompatible version, got nil")
	}
}
