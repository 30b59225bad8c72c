// assets/embed.go
//
// Files compiled into the binary:
//   - content.json: the default worlds and word tables.
//   - sql/*.sql:    ledger migrations, applied in lexical order.

package assets

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed content.json sql/*.sql
var FS embed.FS

// ContentJSON returns the embedded default content document.
func ContentJSON() ([]byte, error) {
	return FS.ReadFile("content.json")
}

// Migration is one embedded SQL file.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded migrations sorted by file name.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(FS, "sql")
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		b, err := FS.ReadFile("sql/" + e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: e.Name(), SQL: string(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
