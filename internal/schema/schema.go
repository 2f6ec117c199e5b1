package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/gitm/javango/internal/model"
)

// Spec is one compiled model declaration.
type Spec struct {
	Definition model.Definition

	// StrictCreate enables field validation on create.
	StrictCreate bool

	// Unique lists fields whose values must not repeat. Only backends
	// without their own constraints (the in-memory one) enforce it.
	Unique []string
}

// Options returns the model options implied by the spec.
func (s Spec) Options() []model.Option {
	if s.StrictCreate {
		return []model.Option{model.WithCreateValidation()}
	}
	return nil
}

// CompileError is a model declaration error with its CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile parses one model struct. The model name is the struct's label:
//
//	model: books_books: {
//		fields: ["id", "isbn", "title"]
//		strict_create: true
//		unique: ["isbn"]
//	}
func Compile(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Definition.Name = labels[len(labels)-1].String()
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields is required",
			Pos:     v.Pos(),
		}
	}
	fields, err := stringList(fieldsVal, "fields")
	if err != nil {
		return nil, err
	}
	spec.Definition.Fields = fields

	if strictVal := v.LookupPath(cue.ParsePath("strict_create")); strictVal.Exists() {
		strict, err := strictVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.StrictCreate = strict
	}

	if uniqueVal := v.LookupPath(cue.ParsePath("unique")); uniqueVal.Exists() {
		unique, err := stringList(uniqueVal, "unique")
		if err != nil {
			return nil, err
		}
		spec.Unique = unique
	}

	if err := spec.Definition.Validate(); err != nil {
		return nil, &CompileError{Field: "model", Message: err.Error(), Pos: v.Pos()}
	}
	for _, u := range spec.Unique {
		if !contains(spec.Definition.Fields, u) {
			return nil, &CompileError{
				Field:   "unique",
				Message: fmt.Sprintf("unique field %q is not declared in fields", u),
				Pos:     v.Pos(),
			}
		}
	}
	return spec, nil
}

// CompileString compiles every model declared in src.
func CompileString(src, filename string) ([]Spec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileModels(v)
}

// LoadFile compiles every model declared in one CUE file.
func LoadFile(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return CompileString(string(data), path)
}

// LoadDir loads the CUE package in dir and compiles its models.
func LoadDir(dir string) ([]Spec, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("models directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileModels(v)
}

// Load reads models from path, which may be a file or a directory.
func Load(path string) ([]Spec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("models path: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// compileModels compiles each field of the top-level "model" struct.
// Specs are sorted by name.
func compileModels(v cue.Value) ([]Spec, error) {
	modelsVal := v.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, &CompileError{Field: "model", Message: "no models declared", Pos: v.Pos()}
	}
	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []Spec
	for iter.Next() {
		spec, err := Compile(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("model.%s: %w", iter.Label(), err)
		}
		specs = append(specs, *spec)
	}
	if len(specs) == 0 {
		return nil, &CompileError{Field: "model", Message: "no models declared", Pos: modelsVal.Pos()}
	}
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Definition.Name < specs[j].Definition.Name
	})
	return specs, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: v.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
