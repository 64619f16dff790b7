package catalog

import (
	"sync"

	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// tableEntry is the catalog's metadata record for one table: its
// stable id, name, schema, primary key (if any), and the heap file
// that physically stores it.
type tableEntry struct {
	id         common.TableID
	name       string
	desc       *storage.TupleDesc
	primaryKey string
	heapFile   *storage.HeapFile
}

// Catalog is the process-wide registry mapping table names and ids to
// their schema and heap file. It is a singleton per database instance,
// initialized once at startup by LoadFromFile and treated as
// read-mostly afterward: the core never mutates it during normal
// operation, only at load time.
//
// Catalog implements storage.CatalogView, which is how the buffer
// pool resolves a PageID's table to a heap file without storage
// importing catalog.
type Catalog struct {
	mu     sync.RWMutex
	byID   map[common.TableID]*tableEntry
	byName map[string]*tableEntry
}

// NewCatalog returns an empty catalog. Tables are added with AddTable
// or in bulk via LoadFromFile.
func NewCatalog() *Catalog {
	return &Catalog{
		byID:   make(map[common.TableID]*tableEntry),
		byName: make(map[string]*tableEntry),
	}
}

// AddTable registers a table under id and name. Fails with
// DuplicateObject if either the id or the name is already registered.
func (c *Catalog) AddTable(id common.TableID, name string, desc *storage.TupleDesc, primaryKey string, heapFile *storage.HeapFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; exists {
		return common.NewError(common.DuplicateObject, "table id %d is already registered", id)
	}
	if _, exists := c.byName[name]; exists {
		return common.NewError(common.DuplicateObject, "table %q is already registered", name)
	}

	c.byID[id] = &tableEntry{
		id:         id,
		name:       name,
		desc:       desc,
		primaryKey: primaryKey,
		heapFile:   heapFile,
	}
	c.byName[name] = c.byID[id]
	return nil
}

// GetTableName returns the name registered under id.
func (c *Catalog) GetTableName(id common.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return "", common.NewError(common.NoSuchObject, "no table with id %d", id)
	}
	return e.name, nil
}

// GetTableID returns the id registered under name.
func (c *Catalog) GetTableID(name string) (common.TableID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byName[name]
	if !ok {
		return common.InvalidTableID, common.NewError(common.NoSuchObject, "no table named %q", name)
	}
	return e.id, nil
}

// GetTupleDesc returns the schema registered for id.
func (c *Catalog) GetTupleDesc(id common.TableID) (*storage.TupleDesc, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return nil, common.NewError(common.NoSuchObject, "no table with id %d", id)
	}
	return e.desc, nil
}

// GetPrimaryKey returns the primary-key field name for id, or "" if
// the table declares none.
func (c *Catalog) GetPrimaryKey(id common.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return "", common.NewError(common.NoSuchObject, "no table with id %d", id)
	}
	return e.primaryKey, nil
}

// GetHeapFile returns the heap file storing id's tuples. This is the
// method storage.CatalogView requires.
func (c *Catalog) GetHeapFile(id common.TableID) (*storage.HeapFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return nil, common.NewError(common.NoSuchObject, "no table with id %d", id)
	}
	return e.heapFile, nil
}

// TableIDIterator returns every registered table id, in no particular order.
func (c *Catalog) TableIDIterator() []common.TableID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]common.TableID, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	return ids
}
