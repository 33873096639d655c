package table

import "fmt"

// ColumnMissingError reports an operation that needs a column the table's
// schema does not carry.
type ColumnMissingError struct {
	Column string
}

func (e *ColumnMissingError) Error() string {
	return fmt.Sprintf("table has no %q column", e.Column)
}
