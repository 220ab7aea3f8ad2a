package viewconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/presenter/internal/ir"
)

// Load error codes.
const (
	ErrCodeNotFound    = "E001" // path not found
	ErrCodeNoFiles     = "E002" // no configuration files
	ErrCodeLoadFailed  = "E003" // CUE load failed
	ErrCodeBuildFailed = "E004" // CUE build failed
	ErrCodeDecode      = "E005" // file does not decode into view configs
	ErrCodeDuplicate   = "E006" // view declared by two files
)

// LoadError reports a configuration source that could not be read.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result holds the views loaded from one source.
type Result struct {
	Views map[string]*ir.ViewConfig
	// Files lists every file that contributed, sorted.
	Files []string
}

// Names returns the loaded view names, sorted.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Views))
	for name := range r.Views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var supported = map[string]bool{".cue": true, ".json": true, ".yaml": true, ".yml": true}

// Load reads view configurations from path, a file or a directory.
// Directories are scanned without recursion. A view left without a view
// name takes its key.
func Load(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), File: path}
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), File: path}
		}
		for _, entry := range entries {
			if !entry.IsDir() && supported[strings.ToLower(filepath.Ext(entry.Name()))] {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
	} else {
		files = []string{path}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no .cue, .json or .yaml files", File: path}
	}

	result := &Result{Views: map[string]*ir.ViewConfig{}, Files: files}
	var cueFiles []string
	for _, file := range files {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".cue":
			cueFiles = append(cueFiles, file)
		case ".json":
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), File: file}
			}
			views, err := decodeViews(data)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error(), File: file}
			}
			if err := result.add(file, views); err != nil {
				return nil, err
			}
		default:
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), File: file}
			}
			raw, err := YAMLToJSON(data)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error(), File: file}
			}
			views, err := decodeViews(raw)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error(), File: file}
			}
			if err := result.add(file, views); err != nil {
				return nil, err
			}
		}
	}

	if len(cueFiles) > 0 {
		views, err := loadCUE(cueFiles)
		if err != nil {
			return nil, err
		}
		if err := result.add(strings.Join(cueFiles, ","), views); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *Result) add(file string, views map[string]*ir.ViewConfig) error {
	for name, cfg := range views {
		if _, exists := r.Views[name]; exists {
			return &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("view %q declared more than once", name), File: file}
		}
		if cfg == nil {
			cfg = &ir.ViewConfig{}
		}
		if cfg.View == "" {
			cfg.View = name
		}
		r.Views[name] = cfg
	}
	return nil
}

type viewsFile struct {
	Views map[string]*ir.ViewConfig `json:"views"`
}

func decodeViews(data []byte) (map[string]*ir.ViewConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var f viewsFile
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if f.Views == nil {
		return nil, fmt.Errorf("missing top-level views field")
	}
	return f.Views, nil
}

// loadCUE unifies the given files into one instance and decodes its views
// field, one view at a time so errors carry a position.
func loadCUE(files []string) (map[string]*ir.ViewConfig, error) {
	abs := make([]string, len(files))
	for i, f := range files {
		a, err := filepath.Abs(f)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), File: f}
		}
		abs[i] = a
	}

	ctx := cuecontext.New()
	instances := load.Instances(abs, &load.Config{Dir: filepath.Dir(abs[0])})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	viewsVal := value.LookupPath(cue.ParsePath("views"))
	if !viewsVal.Exists() {
		return nil, &LoadError{Code: ErrCodeDecode, Message: "missing top-level views field", Pos: value.Pos()}
	}

	iter, err := viewsVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("iterating views: %v", err), Pos: viewsVal.Pos()}
	}

	views := map[string]*ir.ViewConfig{}
	for iter.Next() {
		name := iter.Label()
		raw, err := iter.Value().MarshalJSON()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("view %s: %v", name, err), Pos: iter.Value().Pos()}
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		var cfg ir.ViewConfig
		if err := dec.Decode(&cfg); err != nil {
			return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("view %s: %v", name, err), Pos: iter.Value().Pos()}
		}
		views[name] = &cfg
	}
	return views, nil
}

// YAMLToJSON converts a YAML document into JSON so it can be decoded by
// the JSON unmarshalers of the wire types. Non-string map keys, such as
// numeric view ids, become strings.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	}
	return v
}
