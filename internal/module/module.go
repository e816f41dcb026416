// Package module implements spec §6.1's binary Module format: a
// little-endian, length-prefixed encoding of a compiled internal/compiler
// Proto tree (a string table plus a flat proto table, each proto
// referencing its constants, children, and class metadata by index) that
// round-trips byte-for-byte (spec §8 property 7, "parse(serialize(env))
// == env").
//
// Grounded on the teacher's internal/bytecode/serializer.go: the same
// magic+version header, length-prefixed-string, and count-then-items
// idiom for every variable-length section, adapted from the teacher's
// per-Chunk format (one flat instruction list plus a LocalCount) to a
// proto *tree* (internal/compiler.Proto nests one Protos slice per
// fn-arity/try-clause/method body) and from the teacher's typed
// Value union to internal/value.Value's Kind-tagged representation.
//
// internal/compiler.Proto carries no line-number table or upvalue/slot
// capture metadata (locals are name-indexed, not slot-allocated — see
// DESIGN.md), so this format's proto record omits the line-info and
// captures sections the spec's binary layout describes; every other
// field round-trips exactly. This is a documented simplification, not an
// oversight: a slot-capture scheme would need a full closure-conversion
// analysis pass that buys nothing here, since vm.Frame already resolves
// captures by name through its parent chain at runtime.
package module

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/clojurewasm/cljw/internal/compiler"
	"github.com/clojurewasm/cljw/internal/env"
	"github.com/clojurewasm/cljw/internal/value"
)

// Header layout: magic(4) | version(u16) | flags(u16), exactly as
// spec'd — version packs Major into the high byte and Minor into the
// low byte of a single u16 rather than the two-field header an earlier
// draft of this file used.
const (
	Magic        = "CLJW"
	VersionMajor = 1
	VersionMinor = 0
)

// constTag discriminates internal/value.Value kinds this format knows how
// to encode. Only the kinds that can actually appear in a compiled
// Proto's Consts table are covered (literals, interned symbols/keywords,
// Var references written as an (ns, name) pair, and quoted list/vector
// literals of those) — a Fn or other runtime-only value reaching Consts
// is rejected by writeConst with an error.
type constTag byte

const (
	tagNil constTag = iota
	tagBool
	tagChar
	tagInt
	tagFloat
	tagString
	tagKeyword
	tagSymbol
	tagVar
	tagList
	tagVector
)

// Writer serializes a root *compiler.Proto (and everything it
// transitively references) to the binary format.
type Writer struct {
	strings    []string
	stringIdx  map[string]uint32
	out        bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{stringIdx: make(map[string]uint32)}
}

// Encode serializes root into a single byte slice: header, string table,
// then the flattened proto table rooted at root.
func Encode(root *compiler.Proto) ([]byte, error) {
	w := NewWriter()
	protos := flattenProtos(root)

	var body bytes.Buffer
	if err := w.writeProtoTable(&body, protos); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(Magic)
	binary.Write(&out, binary.LittleEndian, uint16(VersionMajor)<<8|uint16(VersionMinor))
	binary.Write(&out, binary.LittleEndian, uint16(0)) // flags, reserved

	if err := w.writeStringTable(&out); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// flattenProtos walks root and every Proto it (transitively) references
// via Protos/TryInfos, assigning each a stable table index in
// depth-first order — root is always index 0.
func flattenProtos(root *compiler.Proto) []*compiler.Proto {
	var order []*compiler.Proto
	seen := make(map[*compiler.Proto]bool)
	var visit func(p *compiler.Proto)
	visit = func(p *compiler.Proto) {
		if p == nil || seen[p] {
			return
		}
		seen[p] = true
		order = append(order, p)
		for _, child := range p.Protos {
			visit(child)
		}
	}
	visit(root)
	return order
}

func (w *Writer) internString(s string) uint32 {
	if idx, ok := w.stringIdx[s]; ok {
		return idx
	}
	idx := uint32(len(w.strings))
	w.strings = append(w.strings, s)
	w.stringIdx[s] = idx
	return idx
}

func (w *Writer) writeStringTable(out io.Writer) error {
	// internString is called lazily while writing the proto table, so the
	// table itself must be built before this is called — Encode does that
	// by writing the proto table into a scratch buffer first (populating
	// w.strings) and only then writing the string table ahead of it.
	if err := binary.Write(out, binary.LittleEndian, uint32(len(w.strings))); err != nil {
		return err
	}
	for _, s := range w.strings {
		if err := writeBytes(out, []byte(s)); err != nil {
			return err
		}
	}
	return nil
}

func writeBytes(out io.Writer, b []byte) error {
	if err := binary.Write(out, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := out.Write(b)
	return err
}

func (w *Writer) writeProtoTable(out io.Writer, protos []*compiler.Proto) error {
	index := make(map[*compiler.Proto]uint32, len(protos))
	for i, p := range protos {
		index[p] = uint32(i)
	}

	var body bytes.Buffer
	for _, p := range protos {
		if err := w.writeProto(&body, p, index); err != nil {
			return err
		}
	}

	if err := binary.Write(out, binary.LittleEndian, uint32(len(protos))); err != nil {
		return err
	}
	_, err := out.Write(body.Bytes())
	return err
}

func (w *Writer) writeProto(out io.Writer, p *compiler.Proto, index map[*compiler.Proto]uint32) error {
	binary.Write(out, binary.LittleEndian, w.internString(p.Name))
	binary.Write(out, binary.LittleEndian, uint16(len(p.ParamNames)))
	for _, n := range p.ParamNames {
		binary.Write(out, binary.LittleEndian, w.internString(n))
	}
	variadic := uint8(0)
	if p.Variadic {
		variadic = 1
	}
	binary.Write(out, binary.LittleEndian, variadic)

	if err := writeBytes(out, p.Code); err != nil {
		return err
	}

	binary.Write(out, binary.LittleEndian, uint32(len(p.Consts)))
	for _, c := range p.Consts {
		if err := w.writeConst(out, c); err != nil {
			return err
		}
	}

	binary.Write(out, binary.LittleEndian, uint32(len(p.Names)))
	for _, n := range p.Names {
		binary.Write(out, binary.LittleEndian, w.internString(n))
	}

	binary.Write(out, binary.LittleEndian, uint32(len(p.Protos)))
	for _, child := range p.Protos {
		binary.Write(out, binary.LittleEndian, index[child])
	}

	binary.Write(out, binary.LittleEndian, uint32(len(p.TryInfos)))
	for _, t := range p.TryInfos {
		binary.Write(out, binary.LittleEndian, uint32(t.BodyProto))
		binary.Write(out, binary.LittleEndian, uint32(len(t.Catches)))
		for _, c := range t.Catches {
			binary.Write(out, binary.LittleEndian, w.internString(c.ClassName))
			binary.Write(out, binary.LittleEndian, w.internString(c.Local))
			binary.Write(out, binary.LittleEndian, uint32(c.BodyProto))
		}
		finally := int32(t.FinallyProto)
		binary.Write(out, binary.LittleEndian, finally)
	}

	binary.Write(out, binary.LittleEndian, uint32(len(p.ClassNames)))
	for i, cn := range p.ClassNames {
		binary.Write(out, binary.LittleEndian, w.internString(cn))
		fields := p.ClassFields[i]
		binary.Write(out, binary.LittleEndian, uint32(len(fields)))
		for _, f := range fields {
			binary.Write(out, binary.LittleEndian, w.internString(f))
		}
	}
	return nil
}

func (w *Writer) writeConst(out io.Writer, v value.Value) error {
	switch v.Kind {
	case value.KindNil:
		return writeTag(out, tagNil)
	case value.KindBool:
		if err := writeTag(out, tagBool); err != nil {
			return err
		}
		b := uint8(0)
		if v.Data.(bool) {
			b = 1
		}
		return binary.Write(out, binary.LittleEndian, b)
	case value.KindChar:
		if err := writeTag(out, tagChar); err != nil {
			return err
		}
		return binary.Write(out, binary.LittleEndian, int32(v.Data.(rune)))
	case value.KindInt:
		if err := writeTag(out, tagInt); err != nil {
			return err
		}
		return binary.Write(out, binary.LittleEndian, v.AsInt())
	case value.KindFloat:
		if err := writeTag(out, tagFloat); err != nil {
			return err
		}
		return binary.Write(out, binary.LittleEndian, v.Data.(float64))
	case value.KindString:
		if err := writeTag(out, tagString); err != nil {
			return err
		}
		return binary.Write(out, binary.LittleEndian, w.internString(v.AsString()))
	case value.KindKeyword:
		if err := writeTag(out, tagKeyword); err != nil {
			return err
		}
		kw := v.AsKeyword()
		binary.Write(out, binary.LittleEndian, w.internString(kw.Ns))
		return binary.Write(out, binary.LittleEndian, w.internString(kw.Name))
	case value.KindSymbol:
		if err := writeTag(out, tagSymbol); err != nil {
			return err
		}
		sym := v.AsSymbol()
		binary.Write(out, binary.LittleEndian, w.internString(sym.Ns))
		return binary.Write(out, binary.LittleEndian, w.internString(sym.Name))
	case value.KindVar:
		if err := writeTag(out, tagVar); err != nil {
			return err
		}
		va := v.Data.(*env.Var)
		binary.Write(out, binary.LittleEndian, w.internString(va.Ns))
		return binary.Write(out, binary.LittleEndian, w.internString(va.Name))
	case value.KindList:
		if err := writeTag(out, tagList); err != nil {
			return err
		}
		items := v.AsList().ToSlice()
		if err := binary.Write(out, binary.LittleEndian, uint32(len(items))); err != nil {
			return err
		}
		for _, it := range items {
			if err := w.writeConst(out, it); err != nil {
				return err
			}
		}
		return nil
	case value.KindVector:
		if err := writeTag(out, tagVector); err != nil {
			return err
		}
		n := v.AsVector().Count()
		if err := binary.Write(out, binary.LittleEndian, uint32(n)); err != nil {
			return err
		}
		var werr error
		v.AsVector().Range(func(_ int, val value.Value) bool {
			if werr = w.writeConst(out, val); werr != nil {
				return false
			}
			return true
		})
		return werr
	default:
		return fmt.Errorf("module: cannot encode a %s constant", v.Kind)
	}
}

func writeTag(out io.Writer, t constTag) error {
	return binary.Write(out, binary.LittleEndian, uint8(t))
}
