// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package to converts the pointer heavy Azure SDK models to plain values.
package to

// ValOrZero returns the value of the pointer or the zero value of the type if the pointer is nil.
func ValOrZero[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}

	return *v
}

// MapValOrZero returns a copy of m with every pointer replaced by its value.
// Nil values become the zero value of the type. The result is never nil.
func MapValOrZero[K comparable, V any](m map[K]*V) map[K]V {
	res := make(map[K]V, len(m))
	for k, v := range m {
		res[k] = ValOrZero(v)
	}

	return res
}

// Ptr returns a pointer to v, for filling SDK request models.
func Ptr[T any](v T) *T {
	return &v
}
