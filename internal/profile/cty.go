package profile

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ctyToGo converts a cty value from a feature option attribute into the
// equivalent native Go value: bools, strings, numbers (int64 when whole,
// float64 otherwise), and nested lists/maps thereof.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}

	t := val.Type()
	switch {
	case t == cty.Bool:
		return val.True(), nil
	case t == cty.String:
		return val.AsString(), nil
	case t == cty.Number:
		bf := val.AsBigFloat()
		if i, acc := bf.Int64(); acc == 0 { // accurate, no fraction lost
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			goVal, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, goVal)
		}
		return out, nil
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			goVal, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out[kv.AsString()] = goVal
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported option value type %s", t.FriendlyName())
	}
}
