package board

import "errors"

// Sentinel errors for board operations.
var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrNotAssignable  = errors.New("task is not unassigned")
	ErrStockExhausted = errors.New("no stock left for this task, refresh and retry")
	ErrInvalidRecord  = errors.New("invalid task record")
	ErrNotAssigned    = errors.New("task has no owner")
	ErrAlreadyDone    = errors.New("task is done, undo it before releasing")
	ErrNoUser         = errors.New("user required")
	ErrWrongAudience  = errors.New("task is not available to this group")
	ErrNotStocked     = errors.New("task kind has no stock")
)
