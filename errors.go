package docrel

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrStoreUnavailable is matched by errors.Is for any failure to reach
	// the underlying store, including timeouts and closed storage.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMapping is matched by errors.Is for value coercion failures.
	ErrMapping = errors.New("mapping failed")
)

type StoreUnavailableError struct {
	Op    string
	Table string
	Err   error
}

func unavailableErrf(op, table string, err error) error {
	if err == nil {
		err = ErrStoreUnavailable
	}
	var sue *StoreUnavailableError
	if errors.As(err, &sue) {
		return err
	}
	return &StoreUnavailableError{Op: op, Table: table, Err: err}
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreUnavailableError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Op)
	if e.Table != "" {
		buf.WriteByte(' ')
		buf.WriteString(e.Table)
	}
	buf.WriteString(": store unavailable")
	if e.Err != nil && e.Err != ErrStoreUnavailable {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// MappingError reports a present field whose value cannot be converted
// to the declared attribute type.
type MappingError struct {
	Relation string
	Field    string
	Value    any
	Type     reflect.Type
	Err      error
}

func mappingErrf(rel, field string, value any, typ reflect.Type, err error) error {
	return &MappingError{rel, field, value, typ, err}
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

func (e *MappingError) Error() string {
	var buf strings.Builder
	if e.Relation != "" {
		buf.WriteString(e.Relation)
		buf.WriteByte('.')
	}
	buf.WriteString(e.Field)
	fmt.Fprintf(&buf, ": cannot map %T %v to %v", e.Value, e.Value, e.Type)
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

type TableError struct {
	Table string
	Key   []byte
	Msg   string
	Err   error
}

func tableErrf(table string, key []byte, err error, format string, args ...any) error {
	return &TableError{table, key, fmt.Sprintf(format, args...), err}
}

func (e *TableError) Unwrap() error {
	return e.Err
}

func (e *TableError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table)
	if e.Key != nil {
		buf.WriteByte('/')
		fmt.Fprintf(&buf, "%x", e.Key)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
