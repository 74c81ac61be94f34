package suite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tester/internal/fault"
)

// File is a loaded suite file.
type File struct {
	Path  string
	Nodes []Node
}

// Extensions lists the suite file extensions LoadDir picks up.
var Extensions = []string{".yaml", ".yml", ".json", ".cue"}

// LoadFile reads and parses one suite file. The format follows the file
// extension.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite %s: %w", path, err)
	}
	raw, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	nodes, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Path: path, Nodes: nodes}, nil
}

func decode(path string, data []byte) (any, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return decodeYAML(path, data)
	case ".json":
		return decodeJSON(path, data)
	case ".cue":
		return decodeCUE(path, data)
	default:
		return nil, fault.New(fault.CodeInvalidSuite, path, "unsupported suite format %q", ext)
	}
}

func decodeYAML(path string, data []byte) (any, error) {
	var raw any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return []any{}, nil
		}
		return nil, fault.Wrap(fault.CodeInvalidSuite, path, err, "parse YAML suite %s", path)
	}
	return raw, nil
}

func decodeJSON(path string, data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fault.Wrap(fault.CodeInvalidSuite, path, err, "parse JSON suite %s", path)
	}
	return raw, nil
}

// decodeCUE evaluates a CUE file. The suite is the value of a top-level
// "suite" field when present, otherwise the whole file.
func decodeCUE(path string, data []byte) (any, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fault.Wrap(fault.CodeInvalidSuite, path, err, "compile CUE suite: %s", cueerrors.Details(err, nil))
	}
	if s := v.LookupPath(cue.ParsePath("suite")); s.Exists() {
		v = s
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fault.Wrap(fault.CodeInvalidSuite, path, err, "CUE suite is not concrete: %s", cueerrors.Details(err, nil))
	}
	js, err := v.MarshalJSON()
	if err != nil {
		return nil, fault.Wrap(fault.CodeInvalidSuite, path, err, "export CUE suite %s", path)
	}
	return decodeJSON(path, js)
}

// LoadDir loads every suite file under dir, recursively, in lexical path
// order. A non-empty filter is a filepath.Match pattern applied to base
// names.
func LoadDir(dir, filter string) ([]*File, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSuiteFile(path) {
			return nil
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, d.Name()); !ok {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// LoadPaths loads each path as a file or, for directories, with LoadDir.
func LoadPaths(paths []string, filter string) ([]*File, error) {
	var files []*File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("suite path: %w", err)
		}
		if info.IsDir() {
			dirFiles, err := LoadDir(p, filter)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
			continue
		}
		f, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func isSuiteFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
