package telemetry

import (
	"fmt"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
)

// FieldError indicates a missing or mistyped field in a payload.
type FieldError struct {
	Name string
	Want string
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s expected", e.Name, e.Want)
}

// object builds a structpb.Struct.
type object map[string]*structpb.Value

func (o object) num(name string, v float64) object {
	o[name] = &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
	return o
}

func (o object) str(name, v string) object {
	o[name] = &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
	return o
}

func (o object) flag(name string, v bool) object {
	o[name] = &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
	return o
}

func (o object) obj(name string, v object) object {
	o[name] = &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: v.pb()}}
	return o
}

func (o object) pb() *structpb.Struct {
	return &structpb.Struct{Fields: o}
}

func (o object) marshal() ([]byte, error) {
	return proto.Marshal(o.pb())
}

func (o object) json() (string, error) {
	return (&jsonpb.Marshaler{}).MarshalToString(o.pb())
}

// reader extracts fields from a structpb.Struct, keeping the first error.
type reader struct {
	prefix string
	fields map[string]*structpb.Value
	err    *error
}

func unmarshal(data []byte, err *error) reader {
	var s structpb.Struct
	if *err = proto.Unmarshal(data, &s); *err != nil {
		return reader{err: err}
	}
	return reader{fields: s.Fields, err: err}
}

func (r reader) fail(name, want string) {
	if *r.err == nil {
		*r.err = &FieldError{Name: r.prefix + name, Want: want}
	}
}

func (r reader) has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

func (r reader) num(name string) float64 {
	if v, ok := r.fields[name].GetKind().(*structpb.Value_NumberValue); ok {
		return v.NumberValue
	}
	r.fail(name, "number")
	return 0
}

func (r reader) str(name string) string {
	if v, ok := r.fields[name].GetKind().(*structpb.Value_StringValue); ok {
		return v.StringValue
	}
	r.fail(name, "string")
	return ""
}

func (r reader) flag(name string) bool {
	if v, ok := r.fields[name].GetKind().(*structpb.Value_BoolValue); ok {
		return v.BoolValue
	}
	r.fail(name, "bool")
	return false
}

func (r reader) obj(name string) reader {
	sub := reader{prefix: r.prefix + name + ".", err: r.err}
	if v, ok := r.fields[name].GetKind().(*structpb.Value_StructValue); ok {
		sub.fields = v.StructValue.GetFields()
	} else {
		r.fail(name, "object")
	}
	return sub
}

func (r reader) u16(name string) uint16 { return uint16(r.num(name)) }
func (r reader) u64(name string) uint64 { return uint64(r.num(name)) }
func (r reader) i32(name string) int32  { return int32(r.num(name)) }
func (r reader) u8(name string) byte    { return byte(r.num(name)) }
