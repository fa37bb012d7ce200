package utils

// RowVersionConflictError is returned when there's a concurrency mismatch.
// It includes the "latest" record so the controller can return it to the
// client if desired.
type RowVersionConflictError struct {
	Current any
}

func (e *RowVersionConflictError) Error() string {
	return "row_version_conflict"
}

func NewRowVersionConflictError(current any) error {
	return &RowVersionConflictError{Current: current}
}
