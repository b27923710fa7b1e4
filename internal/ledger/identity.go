package ledger

import (
	"strconv"

	"github.com/google/uuid"
)

// ID стабильный идентификатор строки внутри сессии редактирования
type ID string

// IDGenerator выдает идентификаторы новых строк
type IDGenerator interface {
	NextID() ID
}

// Sequence монотонный счетчик, идентификаторы "1", "2", ...
type Sequence struct {
	last uint64
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) NextID() ID {
	s.last++
	return ID(strconv.FormatUint(s.last, 10))
}

// UUIDs случайные идентификаторы для случаев, когда нужна
// идентичность между сессиями
type UUIDs struct{}

func NewUUIDs() UUIDs {
	return UUIDs{}
}

func (UUIDs) NextID() ID {
	return ID(uuid.NewString())
}
