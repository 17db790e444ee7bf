package domain

// PostingOperation is the lifecycle stage a posting plan request moves a plan into.
type PostingOperation string

const (
	OperationHold     PostingOperation = "HOLD"
	OperationCommit   PostingOperation = "COMMIT"
	OperationRollback PostingOperation = "ROLLBACK"
)

// IsFinal reports whether the operation terminates a plan. HOLD is the only
// non-final operation; a plan whose last operation is final accepts nothing
// except an identical replay of that operation.
func (op PostingOperation) IsFinal() bool {
	return op != OperationHold
}

// IsValid reports whether op is one of the three known operations.
func (op PostingOperation) IsValid() bool {
	switch op {
	case OperationHold, OperationCommit, OperationRollback:
		return true
	}
	return false
}
