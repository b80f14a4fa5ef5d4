package exception

import "errors"

var (
	ErrEmptySubject    = errors.New("admission: empty subject")
	ErrQueueCapacity   = errors.New("admission: queue at capacity")
	ErrDuplicate       = errors.New("admission: duplicate subject within dedup window")
	ErrRateCeiling     = errors.New("admission: hourly dequeue ceiling reached")
	ErrLockHeld        = errors.New("admission: subject lock held")
	ErrInvalidPriority = errors.New("admission: invalid priority")
)
