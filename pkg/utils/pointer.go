package utils

// ToPointer returns a pointer to a copy of v.
func ToPointer[T any](v T) *T {
	return &v
}
