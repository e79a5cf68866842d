/*
Package docrel maps named relations over an embedded document store (Bolt)
to typed Go values.

We implement:

1. Datasets: named tables of schema-less records. A dataset answers whether
its table exists and yields all of its records.

2. Relations: immutable query descriptions over a dataset. Filter adds an
equality predicate, Project limits the returned fields, OrderBy sets the
single ascending sort key. Every call returns a new Relation.

3. Mappers: turn records into structs of pointer fields, leaving attributes
nil when projection (or the data) left the field out.

4. A registry tying it together: relations by name, named scopes (typed
query functions like “with_name”), and mappers registered per relation.

	reg := docrel.NewRegistry(store, docrel.RegistryOptions{})
	reg.DefineRelation("users", "")
	namesOnStreet := docrel.DefineScope(reg, "users", "names_on_street", func(r docrel.Relation, street string) docrel.Relation {
		return r.Filter("street", street).OrderBy("name").Project("name")
	})
	docrel.RegisterMapper(reg, docrel.DefineMapper[User]("users", "entity"))
	reg.Finalize()

	users, err := docrel.ViewAs[User](reg, "users", "entity").With(namesOnStreet.Bind("Main Street")).ToSlice(ctx)

# Technical Details

**Tables.** Each table is a root Bolt bucket. Records are keyed by the
bucket's big-endian sequence number, so store-native order is insertion order.

**Values.** Records are msgpack maps. On the way in and out, integers become
int64 (uint64 if too large) and floats become float64, so equality and
ordering do not depend on how a number was written.

**Query pipeline.** Filters run while walking the table, then the matches are
sorted (stable, so ties keep store-native order), then projected. Sorting on
pre-projection rows means the sort key does not have to be projected.

**Collation.** null < bool < number < string < time < anything else; numbers
compare numerically across int/uint/float, strings byte-wise.
*/
package docrel
