package canonical

// Subset reports whether the override value is satisfied by the live
// value. The check is asymmetric: for objects only the keys the override
// mentions must match, extra live fields never cause a mismatch. Scalars,
// nulls, and arrays require exact (normalized) equality.
//
// "Field not declared at all" is a caller concern: a patch that never
// mentions a field is trivially satisfied and its validator should not
// call Subset in the first place. An explicit null in the override is a
// real claim and must match a live null.
func Subset(override, live Value) bool {
	if override.kind != Object {
		return Equal(override, live)
	}
	if live.kind != Object {
		return false
	}

	liveMembers := make(map[string]Value, len(live.object))
	for _, m := range live.object {
		liveMembers[m.Key] = m.Value
	}

	for _, m := range override.object {
		lv, ok := liveMembers[m.Key]
		if !ok {
			return false
		}
		if !Subset(m.Value, lv) {
			return false
		}
	}
	return true
}

// SubsetAny is Subset over raw decoded values.
func SubsetAny(override, live any) (bool, error) {
	co, err := FromAny(override)
	if err != nil {
		return false, err
	}
	cl, err := FromAny(live)
	if err != nil {
		return false, err
	}
	return Subset(co, cl), nil
}
