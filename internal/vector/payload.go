package vector

import (
	pb "github.com/qdrant/go-client/qdrant"
)

// toPayload converts a JSON-decoded map into a Qdrant payload.
func toPayload(m map[string]interface{}) map[string]*pb.Value {
	if m == nil {
		return nil
	}
	out := make(map[string]*pb.Value, len(m))
	for k, v := range m {
		out[k] = toValue(v)
	}
	return out
}

// fromPayload converts a Qdrant payload back into plain Go values.
func fromPayload(p map[string]*pb.Value) map[string]interface{} {
	if p == nil {
		return nil
	}
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = fromValue(v)
	}
	return out
}

// toValue maps JSON-decoded scalars, slices, and maps to pb.Value. Unsupported
// types are stored as null.
func toValue(v interface{}) *pb.Value {
	switch x := v.(type) {
	case nil:
		return &pb.Value{Kind: &pb.Value_NullValue{NullValue: pb.NullValue_NULL_VALUE}}
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: x}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: x}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: x}}
	case float32:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: float64(x)}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(x)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: x}}
	case []interface{}:
		values := make([]*pb.Value, len(x))
		for i, item := range x {
			values[i] = toValue(item)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
	case map[string]interface{}:
		return &pb.Value{Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: toPayload(x)}}}
	default:
		return &pb.Value{Kind: &pb.Value_NullValue{NullValue: pb.NullValue_NULL_VALUE}}
	}
}

func fromValue(v *pb.Value) interface{} {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = fromValue(item)
		}
		return out
	case *pb.Value_StructValue:
		return fromPayload(kind.StructValue.GetFields())
	default:
		return nil
	}
}
