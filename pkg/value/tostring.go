package value

import (
	"fmt"
	"math"
	"strconv"
)

// ToString implements the guest-visible string conversion used by
// print/string-concatenation opcodes. Numbers format with %.6g but drop
// the decimal point entirely when the result is integral (so 3.0 prints
// as "3", matching the guest's single numeric type not distinguishing
// ints from floats at the syntax level); objects without a more specific
// rule print as "<Name instance>".
func ToString(v Value) string {
	switch v.tag {
	case TagNil:
		return "nil"
	case TagBool:
		if v.b {
			return "true"
		}
		return "false"
	case TagNumber:
		return formatNumber(v.n)
	case TagString:
		return *v.s
	case TagObject:
		o := v.obj.(*Obj)
		if o.isArray {
			return arrayString(o)
		}
		return "<object instance>"
	case TagFunction:
		f := v.obj.(*Function)
		if f.Name != "" {
			return fmt.Sprintf("<fn %s>", f.Name)
		}
		return "<fn anonymous>"
	case TagClosure:
		return ToString(FunctionValue(v.obj.(*Closure).Fn))
	case TagNative:
		return "<native fn>"
	case TagStruct:
		s := v.obj.(*StructInstance)
		return fmt.Sprintf("<%s instance>", s.Def.Name)
	default:
		return "<unknown>"
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	s := strconv.FormatFloat(n, 'g', 6, 64)
	return s
}

func arrayString(o *Obj) string {
	s := "["
	for i := 0; i < o.Length(); i++ {
		if i > 0 {
			s += ", "
		}
		elem, _ := o.At(i)
		s += ToString(elem)
	}
	return s + "]"
}
