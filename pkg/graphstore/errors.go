package graphstore

import "fmt"

// Kinds of stored entities, used in error messages.
const (
	KindObject       = "object"
	KindRelationship = "relationship"
	KindTransaction  = "transaction"
)

// NotFoundError reports a missing object or relationship.
type NotFoundError struct {
	Kind string
	Key  int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.Key)
}

// AlreadyExistsError reports a create with a key that is already taken.
type AlreadyExistsError struct {
	Kind string
	Key  int64
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %d already exists", e.Kind, e.Key)
}

// SchemaViolationError reports a write the store's own integrity rules refuse,
// such as a relationship to a missing object.
type SchemaViolationError struct {
	Reason string
	Err    error
}

func (e *SchemaViolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema violation: %s: %v", e.Reason, e.Err)
	}
	return "schema violation: " + e.Reason
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }

// MarshallingError reports properties that cannot be encoded or decoded.
type MarshallingError struct {
	Err error
}

func (e *MarshallingError) Error() string {
	return fmt.Sprintf("marshalling: %v", e.Err)
}

func (e *MarshallingError) Unwrap() error { return e.Err }

// TransactionError reports an unknown handle or a failed commit/rollback.
type TransactionError struct {
	TxID   string
	Reason string
	Err    error
}

func (e *TransactionError) Error() string {
	msg := fmt.Sprintf("transaction %s: %s", e.TxID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransactionError) Unwrap() error { return e.Err }

// ErrUnknownTx builds the error returned for handles the store does not know.
func ErrUnknownTx(txID string) *TransactionError {
	return &TransactionError{TxID: txID, Reason: "unknown or expired transaction"}
}
