package docrel

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"
)

var shapeInfoCache sync.Map

var (
	timeType  = reflect.TypeFor[time.Time]()
	bytesType = reflect.TypeFor[[]byte]()
)

type shapeInfo struct {
	typ    reflect.Type
	fields []*attrInfo
}

// attrInfo describes one nullable attribute of a shape: a pointer field
// filled from the record field of the same name.
type attrInfo struct {
	name  string
	index []int
	elem  reflect.Type
}

func reflectShape(typ reflect.Type) *shapeInfo {
	if v, ok := shapeInfoCache.Load(typ); ok {
		return v.(*shapeInfo)
	}
	info := reflectShapeWithoutCache(typ)
	actual, _ := shapeInfoCache.LoadOrStore(typ, info)
	return actual.(*shapeInfo)
}

func reflectShapeWithoutCache(typ reflect.Type) *shapeInfo {
	if typ.Kind() != reflect.Struct {
		panic(fmt.Errorf("%v not a struct", typ))
	}
	info := &shapeInfo{typ: typ}
	seen := make(map[string]bool)
	for _, f := range reflect.VisibleFields(typ) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("msgpack"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if f.Type.Kind() != reflect.Ptr {
			panic(fmt.Errorf("%v.%s must be a pointer to be nullable, got %v", typ, f.Name, f.Type))
		}
		if seen[name] {
			panic(fmt.Errorf("%v: duplicate attribute %q", typ, name))
		}
		seen[name] = true
		info.fields = append(info.fields, &attrInfo{
			name:  name,
			index: f.Index,
			elem:  f.Type.Elem(),
		})
	}
	if len(info.fields) == 0 {
		panic(fmt.Errorf("%v has no attributes", typ))
	}
	return info
}

func (si *shapeInfo) attrNames() []string {
	names := make([]string, len(si.fields))
	for i, a := range si.fields {
		names[i] = a.name
	}
	return names
}

// coerce converts a normalized record value to typ. ok is false when the
// value cannot represent a typ without loss.
func coerce(value any, typ reflect.Type) (reflect.Value, bool) {
	if typ.Kind() == reflect.Interface {
		v := reflect.New(typ).Elem()
		if value != nil {
			rv := reflect.ValueOf(value)
			if !rv.Type().AssignableTo(typ) {
				return reflect.Value{}, false
			}
			v.Set(rv)
		}
		return v, true
	}
	switch typ {
	case timeType:
		switch value := value.(type) {
		case time.Time:
			return reflect.ValueOf(value), true
		case string:
			t, err := time.Parse(time.RFC3339Nano, value)
			if err != nil {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(t), true
		}
		return reflect.Value{}, false
	case bytesType:
		switch value := value.(type) {
		case []byte:
			return reflect.ValueOf(value), true
		case string:
			return reflect.ValueOf([]byte(value)), true
		}
		return reflect.Value{}, false
	}

	v := reflect.New(typ).Elem()
	switch typ.Kind() {
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return reflect.Value{}, false
		}
		v.SetString(s)
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return reflect.Value{}, false
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		switch n := value.(type) {
		case int64:
			i = n
		case uint64:
			if n > math.MaxInt64 {
				return reflect.Value{}, false
			}
			i = int64(n)
		case float64:
			if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
				return reflect.Value{}, false
			}
			i = int64(n)
		default:
			return reflect.Value{}, false
		}
		if v.OverflowInt(i) {
			return reflect.Value{}, false
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var u uint64
		switch n := value.(type) {
		case int64:
			if n < 0 {
				return reflect.Value{}, false
			}
			u = uint64(n)
		case uint64:
			u = n
		case float64:
			if n != math.Trunc(n) || n < 0 || n >= math.MaxUint64 {
				return reflect.Value{}, false
			}
			u = uint64(n)
		default:
			return reflect.Value{}, false
		}
		if v.OverflowUint(u) {
			return reflect.Value{}, false
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		var f float64
		switch n := value.(type) {
		case int64:
			f = float64(n)
		case uint64:
			f = float64(n)
		case float64:
			f = n
		default:
			return reflect.Value{}, false
		}
		if v.OverflowFloat(f) {
			return reflect.Value{}, false
		}
		v.SetFloat(f)
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || !rv.Type().AssignableTo(typ) {
			return reflect.Value{}, false
		}
		v.Set(rv)
	}
	return v, true
}
