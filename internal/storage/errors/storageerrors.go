package storerrros

import (
	"errors"
	"fmt"
)

var (
	ErrBookNoExist = errors.New("book does not exists")
	ErrIsbnExists  = errors.New("book with this isbn already exists")
)

// NotEnoughCopiesError reports the copies that were actually available
// when a borrow asked for more.
type NotEnoughCopiesError struct {
	Available int
}

func (e *NotEnoughCopiesError) Error() string {
	return fmt.Sprintf("not enough copies available: %d", e.Available)
}
