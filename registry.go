package docrel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Registry holds named relations, their scopes and their mappers. Define
// everything first, then call Finalize; after that the registry is
// read-only and safe for concurrent use.
type Registry struct {
	backend Backend
	retry   RetryPolicy
	logger  *slog.Logger

	finalized bool
	relations map[string]*relationDef

	datasetsLock sync.Mutex
	datasets     map[string]*Dataset
}

type RegistryOptions struct {
	Logger *slog.Logger
	Retry  RetryPolicy
}

type relationDef struct {
	name    string
	dataset string
	scopes  []string
	mappers map[string]any
}

func NewRegistry(backend Backend, opt RegistryOptions) *Registry {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backend:   backend,
		retry:     opt.Retry,
		logger:    logger,
		relations: make(map[string]*relationDef),
		datasets:  make(map[string]*Dataset),
	}
}

func (reg *Registry) mustBeOpen(what string) {
	if reg.finalized {
		panic(fmt.Errorf("cannot define %s: registry is finalized", what))
	}
}

// DefineRelation declares relation name over the given dataset. An empty
// dataset means a dataset of the same name.
func (reg *Registry) DefineRelation(name, dataset string) {
	reg.mustBeOpen("relation " + name)
	if reg.relations[name] != nil {
		panic(fmt.Errorf("relation %q already defined", name))
	}
	if dataset == "" {
		dataset = name
	}
	reg.relations[name] = &relationDef{
		name:    name,
		dataset: dataset,
		mappers: make(map[string]any),
	}
}

func (reg *Registry) relationDef(name string) *relationDef {
	def := reg.relations[name]
	if def == nil {
		panic(fmt.Errorf("unknown relation %q", name))
	}
	return def
}

// Finalize freezes the registry.
func (reg *Registry) Finalize() *Registry {
	reg.finalized = true
	reg.logger.LogAttrs(context.Background(), slog.LevelDebug, "docrel: registry finalized",
		slog.Any("relations", reg.RelationNames()))
	return reg
}

func (reg *Registry) RelationNames() []string {
	var names []string
	for name := range reg.relations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Relation returns the base, unfiltered relation registered under name.
func (reg *Registry) Relation(name string) Relation {
	def := reg.relationDef(name)
	ds := reg.Dataset(def.dataset)
	return Relation{name: name, ds: ds, q: Query{Table: ds.Name()}}
}

// Dataset returns the accessor for a table. Accessors are created once per
// name and shared afterwards.
func (reg *Registry) Dataset(name string) *Dataset {
	reg.datasetsLock.Lock()
	defer reg.datasetsLock.Unlock()
	ds := reg.datasets[name]
	if ds == nil {
		ds = NewDataset(reg.backend, name, WithRetry(reg.retry))
		reg.datasets[name] = ds
	}
	return ds
}

// DatasetExists reports whether a table named name is present in the store.
func (reg *Registry) DatasetExists(ctx context.Context, name string) (bool, error) {
	return reg.Dataset(name).Exists(ctx)
}

// Scopes lists the names of scopes defined for a relation, in definition order.
func (reg *Registry) Scopes(relation string) []string {
	return slices.Clone(reg.relationDef(relation).scopes)
}

func (reg *Registry) addScope(relation, name string) {
	reg.mustBeOpen("scope " + relation + "." + name)
	def := reg.relationDef(relation)
	if slices.Contains(def.scopes, name) {
		panic(fmt.Errorf("scope %s.%s already defined", relation, name))
	}
	def.scopes = append(def.scopes, name)
}

// Scope is a named, parameterized query over one relation.
type Scope[P any] struct {
	relation string
	name     string
	fn       func(Relation, P) Relation
}

func DefineScope[P any](reg *Registry, relation, name string, fn func(r Relation, param P) Relation) *Scope[P] {
	reg.addScope(relation, name)
	return &Scope[P]{relation: relation, name: name, fn: fn}
}

func (s *Scope[P]) Name() string { return s.name }

func (s *Scope[P]) Apply(r Relation, param P) Relation {
	checkScopeRelation(s.relation, s.name, r)
	return s.fn(r, param)
}

// Bind returns the scope with its parameter fixed, for use with With.
func (s *Scope[P]) Bind(param P) func(Relation) Relation {
	return func(r Relation) Relation {
		return s.Apply(r, param)
	}
}

// Scope0 is a named query without parameters. Its Apply method can be
// passed to With directly.
type Scope0 struct {
	relation string
	name     string
	fn       func(Relation) Relation
}

func DefineScope0(reg *Registry, relation, name string, fn func(r Relation) Relation) *Scope0 {
	reg.addScope(relation, name)
	return &Scope0{relation: relation, name: name, fn: fn}
}

func (s *Scope0) Name() string { return s.name }

func (s *Scope0) Apply(r Relation) Relation {
	checkScopeRelation(s.relation, s.name, r)
	return s.fn(r)
}

func checkScopeRelation(relation, scope string, r Relation) {
	if r.Name() != relation {
		panic(fmt.Errorf("scope %s.%s applied to relation %q", relation, scope, r.Name()))
	}
}

// RegisterMapper makes m available under its name for its relation.
func RegisterMapper[T any](reg *Registry, m *Mapper[T]) *Mapper[T] {
	reg.mustBeOpen("mapper " + m.relation + "." + m.name)
	def := reg.relationDef(m.relation)
	if def.mappers[m.name] != nil {
		panic(fmt.Errorf("mapper %s.%s already registered", m.relation, m.name))
	}
	def.mappers[m.name] = m
	return m
}

// MapperFor looks up a registered mapper. It panics if there is none or if
// it maps to a type other than T.
func MapperFor[T any](reg *Registry, relation, name string) *Mapper[T] {
	raw := reg.relationDef(relation).mappers[name]
	if raw == nil {
		panic(fmt.Errorf("no mapper %s.%s", relation, name))
	}
	m, ok := raw.(*Mapper[T])
	if !ok {
		panic(fmt.Errorf("mapper %s.%s is %T, not %T", relation, name, raw, m))
	}
	return m
}

// ViewAs is Relation(relation) with the named mapper attached.
func ViewAs[T any](reg *Registry, relation, mapper string) MappedRelation[T] {
	return As(reg.Relation(relation), MapperFor[T](reg, relation, mapper))
}
