package storage

type storageError string

const (
	ErrNotFound     = storageError("not found")
	ErrDuplicateKey = storageError("duplicate key")
)

func (e storageError) Error() string {
	return string(e)
}
