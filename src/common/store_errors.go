package common

import "fmt"

// StoreErrType classifies storage errors.
type StoreErrType uint32

const (
	// KeyNotFound is returned when a key is absent from a store.
	KeyNotFound StoreErrType = iota
	// IO indicates a failure of the underlying storage medium. Steady-state
	// operations treat it as non-fatal; startup restoration does not.
	IO
	// Corrupted indicates that a record was read but could not be decoded.
	Corrupted
	// Empty ...
	Empty
)

// StoreErr is a typed error raised by storage backends.
type StoreErr struct {
	dataType string
	errType  StoreErrType
	key      string
}

// NewStoreErr ...
func NewStoreErr(dataType string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error ...
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case IO:
		m = "IO Error"
	case Corrupted:
		m = "Corrupted"
	case Empty:
		m = "Empty"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsStore checks that an error is of type StoreErr and that its code matches
// the provided StoreErrType.
func IsStore(err error, t StoreErrType) bool {
	storeErr, ok := err.(StoreErr)
	return ok && storeErr.errType == t
}
