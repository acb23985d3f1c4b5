// Package fixture loads class hierarchies and instances from CUE files.
//
// A fixture directory holds one CUE package:
//
//	class: {
//		USER: {}
//		animal: superclasses: ["USER"]
//		dog: superclasses: ["animal"]
//	}
//	instance: {
//		rex: class: "dog"
//		tom: "animal" // shorthand
//	}
//
// Classes are defined superclasses first regardless of declaration order.
// Instances are created in declaration order.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// ClassDef is one class declared in a fixture.
type ClassDef struct {
	Name         string
	Superclasses []string
	Pos          token.Pos
}

// InstanceDef is one instance declared in a fixture.
type InstanceDef struct {
	Name  string
	Class string
	Pos   token.Pos
}

// Fixture is a parsed fixture, not yet applied to a hierarchy.
type Fixture struct {
	Classes   []ClassDef
	Instances []InstanceDef
	FileCount int
}

// Load reads the CUE package in dir.
func Load(dir string) (*Fixture, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("fixture directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing fixture directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &Error{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &Error{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := validate(value); err != nil {
		return nil, err
	}

	f, err := Parse(value)
	if err != nil {
		return nil, err
	}
	f.FileCount = len(files)
	return f, nil
}

// LoadString compiles a single CUE source. filename is used in positions.
func LoadString(filename, src string) (*Fixture, error) {
	value := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := validate(value); err != nil {
		return nil, err
	}
	f, err := Parse(value)
	if err != nil {
		return nil, err
	}
	f.FileCount = 1
	return f, nil
}

// Parse extracts class and instance declarations from a built CUE value.
func Parse(v cue.Value) (*Fixture, error) {
	f := &Fixture{}

	classes := v.LookupPath(cue.ParsePath("class"))
	if classes.Exists() {
		iter, err := classes.Fields()
		if err != nil {
			return nil, formatCUEError(ErrCodeInvalidClass, err)
		}
		for iter.Next() {
			def, err := parseClass(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			f.Classes = append(f.Classes, def)
		}
	}

	instances := v.LookupPath(cue.ParsePath("instance"))
	if instances.Exists() {
		iter, err := instances.Fields()
		if err != nil {
			return nil, formatCUEError(ErrCodeInvalidInstance, err)
		}
		for iter.Next() {
			def, err := parseInstance(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			f.Instances = append(f.Instances, def)
		}
	}

	if len(f.Classes) == 0 && len(f.Instances) == 0 {
		return nil, &Error{Code: ErrCodeEmpty, Message: "no classes or instances found in fixture", Pos: v.Pos()}
	}
	return f, nil
}

func parseClass(name string, v cue.Value) (ClassDef, error) {
	def := ClassDef{Name: name, Pos: v.Pos()}

	supers := v.LookupPath(cue.ParsePath("superclasses"))
	if !supers.Exists() {
		return def, nil
	}
	iter, err := supers.List()
	if err != nil {
		return def, &Error{
			Code:    ErrCodeInvalidClass,
			Message: fmt.Sprintf("class %s: superclasses must be a list of class names", name),
			Pos:     supers.Pos(),
		}
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return def, &Error{
				Code:    ErrCodeInvalidClass,
				Message: fmt.Sprintf("class %s: superclass must be a string", name),
				Pos:     iter.Value().Pos(),
			}
		}
		def.Superclasses = append(def.Superclasses, s)
	}
	return def, nil
}

func parseInstance(name string, v cue.Value) (InstanceDef, error) {
	def := InstanceDef{Name: name, Pos: v.Pos()}

	if s, err := v.String(); err == nil {
		def.Class = s
		return def, nil
	}

	classVal := v.LookupPath(cue.ParsePath("class"))
	if !classVal.Exists() {
		return def, &Error{
			Code:    ErrCodeInvalidInstance,
			Message: fmt.Sprintf("instance %s: class is required", name),
			Pos:     v.Pos(),
		}
	}
	s, err := classVal.String()
	if err != nil {
		return def, &Error{
			Code:    ErrCodeInvalidInstance,
			Message: fmt.Sprintf("instance %s: class must be a string", name),
			Pos:     classVal.Pos(),
		}
	}
	def.Class = s
	return def, nil
}

// FindCUEFiles walks dir and returns every .cue file path.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// validate surfaces build errors and field conflicts anywhere in v.
func validate(v cue.Value) error {
	if err := v.Err(); err != nil {
		return formatCUEError(ErrCodeBuildFailed, err)
	}
	if err := v.Validate(); err != nil {
		return formatCUEError(ErrCodeBuildFailed, err)
	}
	return nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(code string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
