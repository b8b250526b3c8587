package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed symbols/*.txt
var FS embed.FS

// ReadLines returns the non-blank, non-comment lines of r, trimmed.
func ReadLines(r fs.File) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// SymbolSet reads the embedded set called name (file symbols/<name>.txt).
func SymbolSet(name string) ([]string, error) {
	f, err := FS.Open(path.Join("symbols", name+".txt"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLines(f)
}

// SymbolSetNames lists the embedded sets in lexical order.
func SymbolSetNames() ([]string, error) {
	entries, err := fs.ReadDir(FS, "symbols")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if n := e.Name(); !e.IsDir() && strings.HasSuffix(n, ".txt") {
			names = append(names, strings.TrimSuffix(n, ".txt"))
		}
	}
	sort.Strings(names)
	return names, nil
}
