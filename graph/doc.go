// Package graph provides the entity-level data access of tabula: typed CRUD
// operations that follow the navigations declared by the mapped types.
//
// # Access
//
// An Access is created per mapped type on a connector and a descriptor
// cache:
//
//	cache := schema.NewCache()
//	authors, err := graph.New[Author](conn, cache)
//	if err != nil {
//	    return err
//	}
//	a, err := authors.SelectOne(ctx, 1)
//
// # Cascades
//
// Selects load the navigations of the returned entities with one query per
// navigation, whatever the number of entities. A type whose navigations are
// being loaded is not loaded again further down, so that cyclic mappings
// terminate.
//
// Saves follow the ownership of each navigation. Referenced entities
// (BelongsTo) are saved before the entity so that their keys can be copied
// onto its foreign key members; owned entities (HasMany, HasOne) are saved
// after it, once its generated keys are known.
//
// Deletes remove owned entities first, including those that were never
// loaded, then the entity, then its loaded referenced entities.
//
// Every entity is processed at most once per top-level call.
package graph
