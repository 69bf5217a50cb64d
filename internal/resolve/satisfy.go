package resolve

import (
	"fmt"
	"go/types"
)

// satisfies reports whether t meets iface, with an explanation on
// failure. Method-set interfaces use the implements relation; constraint
// interfaces (unions, comparable) use the satisfies relation, exactly as
// the compiler would when instantiating the generated verifier.
//
// t is checked as written: no automatic addressing or dereferencing, so
// a bound met only through an extra pointer layer is a failure here and
// would be one in the generated code too.
func satisfies(t types.Type, iface *types.Interface) (bool, string) {
	if iface.IsMethodSet() {
		if types.Implements(t, iface) {
			return true, ""
		}
		if m, wrongType := types.MissingMethod(t, iface, true); m != nil {
			if wrongType {
				return false, fmt.Sprintf("method %s has the wrong signature", m.Name())
			}
			if ptrHasMethod(t, iface) {
				return false, fmt.Sprintf("method %s requires a pointer receiver (the bound applies to the type as written)", m.Name())
			}
			return false, fmt.Sprintf("missing method %s", m.Name())
		}
		return false, "does not implement the interface"
	}

	if types.Satisfies(t, iface) {
		return true, ""
	}
	return false, "does not satisfy the constraint"
}

// ptrHasMethod reports whether *t would implement iface when t itself
// does not. Used only to sharpen the diagnostic message.
func ptrHasMethod(t types.Type, iface *types.Interface) bool {
	if _, isPtr := t.Underlying().(*types.Pointer); isPtr {
		return false
	}
	return types.Implements(types.NewPointer(t), iface)
}
