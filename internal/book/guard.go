package book

// Authorize enforces the ownership contract for an operation addressed by
// id. current is nil when the store has no record with that id. Existence is
// checked before ownership, and both before any mutation.
func Authorize(current *Book, userID string) error {
	if current == nil {
		return ErrNotFound
	}
	if current.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}
