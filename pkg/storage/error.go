package storage

// NotFoundError is returned when no record exists for a key.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return "policy not found"
	}

	return "policy not found: " + e.Key
}
