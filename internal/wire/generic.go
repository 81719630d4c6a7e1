package wire

import (
	"fmt"
	"sort"
)

// Type tags of generic values.
const (
	tagNil byte = iota
	tagString
	tagInt32
	tagInt64
	tagFloat64
	tagBool
	tagList
	tagMap
	tagFloat32
	tagBytes
)

// WriteGenericValue writes v with a type tag. Supported values are nil,
// string, bool, int, int32, int64, float32, float64, []byte, []string,
// []any and map[string]any, nested freely. int is written as int64; map keys
// are written in sorted order.
func (w *Writer) WriteGenericValue(v any) {
	switch v := v.(type) {
	case nil:
		w.write([]byte{tagNil})
	case string:
		w.write([]byte{tagString})
		w.WriteString(v)
	case int32:
		w.write([]byte{tagInt32})
		w.WriteInt32(v)
	case int64:
		w.write([]byte{tagInt64})
		w.WriteInt64(v)
	case int:
		w.write([]byte{tagInt64})
		w.WriteInt64(int64(v))
	case float64:
		w.write([]byte{tagFloat64})
		w.WriteFloat64(v)
	case float32:
		w.write([]byte{tagFloat32})
		w.WriteFloat32(v)
	case bool:
		w.write([]byte{tagBool})
		w.WriteBool(v)
	case []byte:
		w.write([]byte{tagBytes})
		w.WriteBytes(v)
	case []string:
		w.write([]byte{tagList})
		w.WriteVInt(uint64(len(v)))
		for _, s := range v {
			w.WriteGenericValue(s)
		}
	case []any:
		w.write([]byte{tagList})
		w.WriteVInt(uint64(len(v)))
		for _, e := range v {
			w.WriteGenericValue(e)
		}
	case map[string]any:
		w.write([]byte{tagMap})
		w.WriteMap(v)
	default:
		w.fail(fmt.Errorf("wire: cannot write value of type %T", v))
	}
}

// WriteMap writes a count followed by key and generic value pairs.
func (w *Writer) WriteMap(m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.WriteVInt(uint64(len(keys)))
	for _, k := range keys {
		w.WriteString(k)
		w.WriteGenericValue(m[k])
	}
}

// ReadGenericValue reads a value written by WriteGenericValue. Lists decode
// as []any and maps as map[string]any.
func (r *Reader) ReadGenericValue() any {
	p := r.read(1)
	if p == nil {
		return nil
	}
	switch tag := p[0]; tag {
	case tagNil:
		return nil
	case tagString:
		return r.ReadString()
	case tagInt32:
		return r.ReadInt32()
	case tagInt64:
		return r.ReadInt64()
	case tagFloat64:
		return r.ReadFloat64()
	case tagFloat32:
		return r.ReadFloat32()
	case tagBool:
		return r.ReadBool()
	case tagBytes:
		return r.ReadBytes()
	case tagList:
		n := r.ReadLength()
		list := make([]any, 0, capacity(n))
		for i := 0; i < n && r.err == nil; i++ {
			list = append(list, r.ReadGenericValue())
		}
		return list
	case tagMap:
		return r.ReadMap()
	default:
		r.fail(fmt.Errorf("wire: unknown value tag %d", tag))
		return nil
	}
}

// ReadMap reads a map written by WriteMap.
func (r *Reader) ReadMap() map[string]any {
	n := r.ReadLength()
	m := make(map[string]any, capacity(n))
	for i := 0; i < n && r.err == nil; i++ {
		k := r.ReadString()
		m[k] = r.ReadGenericValue()
	}
	return m
}
