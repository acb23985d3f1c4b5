package fixture

import (
	"fmt"
	"strings"

	"github.com/roach88/envrt/internal/objsys"
)

// Result summarizes what Apply created.
type Result struct {
	Classes   []objsys.ClassID
	Instances []objsys.InstanceID
}

// Apply defines the fixture's classes and instances in h. Superclasses may
// name classes declared in the fixture or already defined in h.
//
// Apply stops at the first failure; whatever was created before it stays in h.
func (f *Fixture) Apply(h *objsys.Hierarchy) (*Result, error) {
	order, err := f.classOrder(h)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, def := range order {
		id, err := h.DefineClassNamed(def.Name, def.Superclasses...)
		if err != nil {
			return res, &Error{
				Code:    ErrCodeApplyFailed,
				Message: fmt.Sprintf("class %s: %v", def.Name, err),
				Pos:     def.Pos,
				Err:     err,
			}
		}
		res.Classes = append(res.Classes, id)
	}

	for _, def := range f.Instances {
		class, ok := h.LookupClass(def.Class)
		if !ok {
			return res, &Error{
				Code:    ErrCodeUnknownClass,
				Message: fmt.Sprintf("instance %s: class %s is not defined", def.Name, def.Class),
				Pos:     def.Pos,
			}
		}
		id, err := h.MakeInstance(class, def.Name)
		if err != nil {
			return res, &Error{
				Code:    ErrCodeApplyFailed,
				Message: fmt.Sprintf("instance %s: %v", def.Name, err),
				Pos:     def.Pos,
				Err:     err,
			}
		}
		res.Instances = append(res.Instances, id)
	}
	return res, nil
}

// classOrder returns the fixture's classes with every class after all of its
// superclasses. Ties keep declaration order.
func (f *Fixture) classOrder(h *objsys.Hierarchy) ([]ClassDef, error) {
	byName := make(map[string]int, len(f.Classes))
	for i, def := range f.Classes {
		byName[def.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(f.Classes))
	order := make([]ClassDef, 0, len(f.Classes))
	var path []string

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return &Error{
				Code:    ErrCodeCycle,
				Message: fmt.Sprintf("superclass cycle: %s -> %s", strings.Join(path, " -> "), f.Classes[i].Name),
				Pos:     f.Classes[i].Pos,
			}
		}
		state[i] = visiting
		path = append(path, f.Classes[i].Name)

		for _, super := range f.Classes[i].Superclasses {
			if j, ok := byName[super]; ok {
				if err := visit(j); err != nil {
					return err
				}
				continue
			}
			if _, ok := h.LookupClass(super); !ok {
				return &Error{
					Code:    ErrCodeUnknownClass,
					Message: fmt.Sprintf("class %s: superclass %s is not defined", f.Classes[i].Name, super),
					Pos:     f.Classes[i].Pos,
				}
			}
		}

		path = path[:len(path)-1]
		state[i] = done
		order = append(order, f.Classes[i])
		return nil
	}

	for i := range f.Classes {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}
