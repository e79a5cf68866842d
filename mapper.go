package docrel

import (
	"context"
	"fmt"
	"iter"
	"reflect"
)

// Mapper turns records of one relation into *T values. T is a struct of
// pointer fields; each field is named by its msgpack tag (or Go name) and
// becomes nil when the record lacks that field.
type Mapper[T any] struct {
	name     string
	relation string
	shape    *shapeInfo
}

// DefineMapper declares how rows of relation map to T, registered under
// registerAs. It panics if T is not a valid shape.
func DefineMapper[T any](relation, registerAs string) *Mapper[T] {
	return &Mapper[T]{
		name:     registerAs,
		relation: relation,
		shape:    reflectShape(reflect.TypeFor[T]()),
	}
}

func (m *Mapper[T]) Name() string     { return m.name }
func (m *Mapper[T]) Relation() string { return m.relation }

// Attributes lists the record fields T declares.
func (m *Mapper[T]) Attributes() []string {
	return m.shape.attrNames()
}

func (m *Mapper[T]) String() string {
	return fmt.Sprintf("%s.%s(%v)", m.relation, m.name, m.shape.typ)
}

// Map builds a T from rec. Only a present value of the wrong type is an
// error; absent and null fields leave the attribute nil.
func (m *Mapper[T]) Map(rec Record) (*T, error) {
	obj := new(T)
	objVal := reflect.ValueOf(obj).Elem()
	for _, a := range m.shape.fields {
		raw, ok := rec[a.name]
		if !ok || raw == nil {
			continue
		}
		v, ok := coerce(raw, a.elem)
		if !ok {
			return nil, mappingErrf(m.relation, a.name, raw, a.elem, nil)
		}
		ptr := reflect.New(a.elem)
		ptr.Elem().Set(v)
		objVal.FieldByIndex(a.index).Set(ptr)
	}
	return obj, nil
}

// MappedRelation is a Relation whose rows are materialized as *T.
type MappedRelation[T any] struct {
	rel    Relation
	mapper *Mapper[T]
}

// As attaches a mapper view to rel. It panics if the mapper was defined
// for a different relation.
func As[T any](rel Relation, m *Mapper[T]) MappedRelation[T] {
	if m.relation != "" && m.relation != rel.Name() {
		panic(fmt.Errorf("mapper %s is defined for relation %q, not %q", m.name, m.relation, rel.Name()))
	}
	return MappedRelation[T]{rel: rel, mapper: m}
}

func (mr MappedRelation[T]) Relation() Relation {
	return mr.rel
}

func (mr MappedRelation[T]) Mapper() *Mapper[T] {
	return mr.mapper
}

func (mr MappedRelation[T]) Filter(field string, value any) MappedRelation[T] {
	mr.rel = mr.rel.Filter(field, value)
	return mr
}

func (mr MappedRelation[T]) Project(fields ...string) MappedRelation[T] {
	mr.rel = mr.rel.Project(fields...)
	return mr
}

// Pluck is an alias for Project.
func (mr MappedRelation[T]) Pluck(fields ...string) MappedRelation[T] {
	return mr.Project(fields...)
}

func (mr MappedRelation[T]) OrderBy(field string) MappedRelation[T] {
	mr.rel = mr.rel.OrderBy(field)
	return mr
}

func (mr MappedRelation[T]) With(scopes ...func(Relation) Relation) MappedRelation[T] {
	mr.rel = mr.rel.With(scopes...)
	return mr
}

// ToSlice materializes the relation and maps every row, stopping at the
// first mapping error.
func (mr MappedRelation[T]) ToSlice(ctx context.Context) ([]*T, error) {
	records, err := mr.rel.Materialize(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*T, 0, len(records))
	for _, rec := range records {
		obj, err := mr.mapper.Map(rec)
		if err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	return result, nil
}

// All yields mapped rows lazily; rows are mapped as they are pulled.
func (mr MappedRelation[T]) All(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for rec, err := range mr.rel.All(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			obj, err := mr.mapper.Map(rec)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(obj, nil) {
				return
			}
		}
	}
}

// First returns the first mapped row, or nil if there are none.
func (mr MappedRelation[T]) First(ctx context.Context) (*T, error) {
	rec, found, err := mr.rel.First(ctx)
	if err != nil || !found {
		return nil, err
	}
	return mr.mapper.Map(rec)
}

func (mr MappedRelation[T]) String() string {
	return mr.rel.String() + ".as(" + mr.mapper.name + ")"
}
