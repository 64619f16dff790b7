package catalog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yale-db/godb-core/common"
	"github.com/yale-db/godb-core/storage"
)

// tableLinePattern matches one schema line: `name (fname type[, fname
// type[ pk]]*)`. Whitespace around the parens and between fields is
// tolerated.
var tableLinePattern = regexp.MustCompile(`^(\w+)\s*\((.+)\)\s*$`)

// mintTableID derives a stable, process-local table id from a table's
// data file path by folding its 64-bit FNV-1a hash into 32 bits. 0 is
// reserved for InvalidTableID, so a zero fold is bumped to 1.
func mintTableID(path string) common.TableID {
	h := common.Hash([]byte(path))
	folded := uint32(h) ^ uint32(h>>32)
	if folded == 0 {
		folded = 1
	}
	return common.TableID(folded)
}

// parseField parses one `fname type[ pk]` clause.
func parseField(clause string) (name string, fieldType common.Type, isPK bool, err error) {
	parts := strings.Fields(clause)
	if len(parts) < 2 || len(parts) > 3 {
		return "", 0, false, fmt.Errorf("malformed field clause %q", clause)
	}
	name = parts[0]
	switch strings.ToLower(parts[1]) {
	case "int":
		fieldType = common.IntType
	case "string":
		fieldType = common.StringType
	default:
		return "", 0, false, fmt.Errorf("unknown field type %q in clause %q", parts[1], clause)
	}
	if len(parts) == 3 {
		if strings.ToLower(parts[2]) != "pk" {
			return "", 0, false, fmt.Errorf("unexpected trailing token %q in clause %q", parts[2], clause)
		}
		isPK = true
	}
	return name, fieldType, isPK, nil
}

// parseLine parses one schema line into a table name, its descriptor,
// and its primary key field name (empty if none declared).
func parseLine(line string) (name string, desc *storage.TupleDesc, primaryKey string, err error) {
	m := tableLinePattern.FindStringSubmatch(line)
	if m == nil {
		return "", nil, "", fmt.Errorf("malformed schema line %q", line)
	}
	name = m[1]
	clauses := strings.Split(m[2], ",")
	fields := make([]storage.FieldDesc, 0, len(clauses))
	for _, clause := range clauses {
		fname, ftype, isPK, err := parseField(strings.TrimSpace(clause))
		if err != nil {
			return "", nil, "", fmt.Errorf("table %q: %w", name, err)
		}
		fields = append(fields, storage.FieldDesc{Type: ftype, Name: fname})
		if isPK {
			if primaryKey != "" {
				return "", nil, "", fmt.Errorf("table %q: more than one primary key declared", name)
			}
			primaryKey = fname
		}
	}
	return name, storage.NewTupleDesc(fields), primaryKey, nil
}

// LoadFromFile reads a line-oriented schema file and registers every
// table it names into c, opening (creating, if absent) its `<name>.dat`
// file under dataDir through files, and wrapping it as a heap file
// backed by bp.
//
// c is expected to already be the CatalogView the caller constructed
// bp with, so heap files registered here become immediately visible
// to buffer pool page faults.
func (c *Catalog) LoadFromFile(schemaPath string, dataDir string, bp *storage.BufferPool, files *storage.DiskFileManager) error {
	f, err := os.Open(schemaPath)
	if err != nil {
		return common.WrapIoError(err, "open schema file %s", schemaPath)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, desc, primaryKey, err := parseLine(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", schemaPath, lineNum, err)
		}

		fileName := name + ".dat"
		id := mintTableID(filepath.Join(dataDir, fileName))
		dbFile, err := files.Open(id, fileName)
		if err != nil {
			return err
		}
		heapFile := storage.NewHeapFile(id, desc, dbFile, bp)
		if err := c.AddTable(id, name, desc, primaryKey, heapFile); err != nil {
			return fmt.Errorf("%s:%d: %w", schemaPath, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return common.WrapIoError(err, "read schema file %s", schemaPath)
	}
	return nil
}
