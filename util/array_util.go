package util

/*
TransformSlice processes input slice s by calling the mapper callback for each
element and returning the slice of values returned by the callback.

Could be used for extracting single field values from slice of structs etc.
*/
func TransformSlice[S ~[]E, E any, V any](s S, mapper func(E) V) []V {
	r := make([]V, len(s))
	for i, v := range s {
		r[i] = mapper(v)
	}
	return r
}

// RemoveFirst returns s without the first element equal to v, preserving
// the order of the remaining elements. The backing array of s is reused.
func RemoveFirst[S ~[]E, E comparable](s S, v E) (S, bool) {
	for i, e := range s {
		if e == v {
			return append(s[:i], s[i+1:]...), true
		}
	}
	return s, false
}
