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

// Decode is Encode's inverse: given an Env to resolve KindVar constants
// against (interning the Var if this is the first time this process has
// seen it — the same FindOrCreate/Intern path clojure.core's own
// bootstrap uses), it reconstructs the root Proto byte-for-byte (spec §8
// property 7).
func Decode(data []byte, e *env.Env) (*compiler.Proto, error) {
	r := &reader{buf: bytes.NewReader(data)}

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r.buf, magic); err != nil {
		return nil, fmt.Errorf("module: reading header: %w", err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("module: bad magic %q", magic)
	}
	version := r.u16()
	r.u16() // flags, reserved
	if r.err != nil {
		return nil, fmt.Errorf("module: reading header: %w", r.err)
	}
	major, minor := byte(version>>8), byte(version)
	if int(major) != VersionMajor {
		return nil, fmt.Errorf("module: incompatible version %d.%d (reader is %d.%d)", major, minor, VersionMajor, VersionMinor)
	}

	strings, err := r.readStringTable()
	if err != nil {
		return nil, err
	}

	protos, err := r.readProtoTable(strings, e)
	if err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	if len(protos) == 0 {
		return nil, fmt.Errorf("module: empty proto table")
	}
	return protos[0], nil
}

type reader struct {
	buf *bytes.Reader
	err error
}

func (r *reader) u16() uint16 {
	var v uint16
	if r.err == nil {
		r.err = binary.Read(r.buf, binary.LittleEndian, &v)
	}
	return v
}

func (r *reader) u32() uint32 {
	var v uint32
	if r.err == nil {
		r.err = binary.Read(r.buf, binary.LittleEndian, &v)
	}
	return v
}

func (r *reader) i32() int32 {
	var v int32
	if r.err == nil {
		r.err = binary.Read(r.buf, binary.LittleEndian, &v)
	}
	return v
}

func (r *reader) i64() int64 {
	var v int64
	if r.err == nil {
		r.err = binary.Read(r.buf, binary.LittleEndian, &v)
	}
	return v
}

func (r *reader) f64() float64 {
	var v float64
	if r.err == nil {
		r.err = binary.Read(r.buf, binary.LittleEndian, &v)
	}
	return v
}

func (r *reader) u8() uint8 {
	var v uint8
	if r.err == nil {
		r.err = binary.Read(r.buf, binary.LittleEndian, &v)
	}
	return v
}

func (r *reader) bytes() []byte {
	n := r.u32()
	if r.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.buf, b); err != nil {
		r.err = err
		return nil
	}
	return b
}

func (r *reader) str(table []string) string {
	idx := r.u32()
	if r.err != nil {
		return ""
	}
	if int(idx) >= len(table) {
		r.err = fmt.Errorf("module: string index %d out of range (table has %d entries)", idx, len(table))
		return ""
	}
	return table[idx]
}

func (r *reader) readStringTable() ([]string, error) {
	n := r.u32()
	if r.err != nil {
		return nil, r.err
	}
	table := make([]string, n)
	for i := range table {
		b := r.bytes()
		if r.err != nil {
			return nil, r.err
		}
		table[i] = string(b)
	}
	return table, nil
}

func (r *reader) readProtoTable(strings []string, e *env.Env) ([]*compiler.Proto, error) {
	n := r.u32()
	if r.err != nil {
		return nil, r.err
	}
	protos := make([]*compiler.Proto, n)
	for i := range protos {
		protos[i] = &compiler.Proto{}
	}
	for i := range protos {
		if err := r.readProto(protos[i], strings, protos, e); err != nil {
			return nil, err
		}
	}
	return protos, nil
}

func (r *reader) readProto(p *compiler.Proto, strings []string, all []*compiler.Proto, e *env.Env) error {
	p.Name = r.str(strings)

	nparams := r.u16()
	p.ParamNames = make([]string, nparams)
	for i := range p.ParamNames {
		p.ParamNames[i] = r.str(strings)
	}
	p.Variadic = r.u8() != 0

	p.Code = r.bytes()

	nconsts := r.u32()
	p.Consts = make([]value.Value, nconsts)
	for i := range p.Consts {
		v, err := r.readConst(strings, e)
		if err != nil {
			return err
		}
		p.Consts[i] = v
	}

	nnames := r.u32()
	p.Names = make([]string, nnames)
	for i := range p.Names {
		p.Names[i] = r.str(strings)
	}

	nprotos := r.u32()
	p.Protos = make([]*compiler.Proto, nprotos)
	for i := range p.Protos {
		idx := r.u32()
		if r.err != nil {
			return r.err
		}
		if int(idx) >= len(all) {
			return fmt.Errorf("module: child proto index %d out of range", idx)
		}
		p.Protos[i] = all[idx]
	}

	ntries := r.u32()
	p.TryInfos = make([]compiler.TryInfo, ntries)
	for i := range p.TryInfos {
		body := int(r.u32())
		ncatches := r.u32()
		catches := make([]compiler.CatchInfo, ncatches)
		for j := range catches {
			catches[j] = compiler.CatchInfo{
				ClassName: r.str(strings),
				Local:     r.str(strings),
				BodyProto: int(r.u32()),
			}
		}
		finally := int(r.i32())
		p.TryInfos[i] = compiler.TryInfo{BodyProto: body, Catches: catches, FinallyProto: finally}
	}

	nclasses := r.u32()
	p.ClassNames = make([]string, nclasses)
	p.ClassFields = make([][]string, nclasses)
	for i := range p.ClassNames {
		p.ClassNames[i] = r.str(strings)
		nfields := r.u32()
		fields := make([]string, nfields)
		for j := range fields {
			fields[j] = r.str(strings)
		}
		p.ClassFields[i] = fields
	}

	return r.err
}

func (r *reader) readConst(strings []string, e *env.Env) (value.Value, error) {
	tag := constTag(r.u8())
	if r.err != nil {
		return value.Value{}, r.err
	}
	switch tag {
	case tagNil:
		return value.Nil(), nil
	case tagBool:
		return value.Bool(r.u8() != 0), nil
	case tagChar:
		return value.Char(rune(r.i32())), nil
	case tagInt:
		return value.Int(r.i64()), nil
	case tagFloat:
		return value.Float(r.f64()), nil
	case tagString:
		return value.String(r.str(strings)), nil
	case tagKeyword:
		ns := r.str(strings)
		name := r.str(strings)
		return value.KeywordValue(ns, name), nil
	case tagSymbol:
		ns := r.str(strings)
		name := r.str(strings)
		return value.SymbolValue(ns, name), nil
	case tagVar:
		ns := r.str(strings)
		name := r.str(strings)
		v := e.FindOrCreate(ns).Intern(name)
		return value.Value{Kind: value.KindVar, Data: v}, nil
	case tagList:
		n := r.u32()
		items := make([]value.Value, n)
		for i := range items {
			v, err := r.readConst(strings, e)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		l := value.EmptyList()
		for i := len(items) - 1; i >= 0; i-- {
			l = value.Cons(items[i], l)
		}
		return value.ListValue(l), nil
	case tagVector:
		n := r.u32()
		vec := value.EmptyVector()
		for i := uint32(0); i < n; i++ {
			v, err := r.readConst(strings, e)
			if err != nil {
				return value.Value{}, err
			}
			vec = vec.Conj(v)
		}
		return value.VectorValue(vec), nil
	default:
		return value.Value{}, fmt.Errorf("module: unknown const tag %d", tag)
	}
}
