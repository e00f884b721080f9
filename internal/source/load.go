package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/imgajeed76/pgrid/internal/util"
)

// Load reads a file by extension: .csv, .tsv and .json are supported.
// A path of "-" reads CSV from r.
func Load(path string, stdin io.Reader) (*Table, error) {
	if path == "" {
		return nil, util.ErrNoSource
	}
	if path == "-" {
		return ReadCSV("stdin", stdin, 0)
	}

	var read func(name string, r io.Reader) (*Table, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		read = func(name string, r io.Reader) (*Table, error) { return ReadCSV(name, r, ',') }
	case ".tsv", ".tab":
		read = func(name string, r io.Reader) (*Table, error) { return ReadCSV(name, r, '\t') }
	case ".json":
		read = ReadJSON
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Ext(path), util.ErrUnknownSource)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return read(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), f)
}
