package objsys

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"
)

// ClassID is a stable handle to a class. Zero is NoClass.
type ClassID int

// InstanceID is a stable handle to an instance. Zero is NoInstance.
type InstanceID int

const (
	NoClass    ClassID    = 0
	NoInstance InstanceID = 0
)

// Class is a node in the hierarchy.
type Class struct {
	ID   ClassID
	Name string

	supers []ClassID
	subs   []ClassID // direct subclasses, registration order
	head   InstanceID
	tail   InstanceID
	live   int
}

// Superclasses returns the direct superclasses in definition order.
func (c *Class) Superclasses() []ClassID {
	return append([]ClassID(nil), c.supers...)
}

// Instance is an object owned by exactly one class.
type Instance struct {
	ID    InstanceID
	Name  string
	Class ClassID

	garbage  bool
	unlinked bool
	next     InstanceID
}

// Garbage reports whether the instance has been deleted but not yet reclaimed.
func (i Instance) Garbage() bool {
	return i.garbage
}

// Unlinked reports whether Reclaim has removed the instance from its class list.
func (i Instance) Unlinked() bool {
	return i.unlinked
}

// Hierarchy owns the classes and instances of one environment.
//
// Not safe for concurrent use; callers serialize access.
type Hierarchy struct {
	classes   []*Class    // index = id-1
	instances []*Instance // index = id-1
	classIdx  map[string]ClassID
	instIdx   map[string]InstanceID // live instances only
	gen       uint64
	logger    *slog.Logger
}

// HierarchyOption configures a Hierarchy.
type HierarchyOption func(*Hierarchy)

// WithLogger sets the hierarchy's logger.
func WithLogger(l *slog.Logger) HierarchyOption {
	return func(h *Hierarchy) {
		h.logger = l
	}
}

// NewHierarchy creates an empty hierarchy.
func NewHierarchy(opts ...HierarchyOption) *Hierarchy {
	h := &Hierarchy{
		classIdx: make(map[string]ClassID),
		instIdx:  make(map[string]InstanceID),
		gen:      1,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func normalize(name string) string {
	return norm.NFC.String(name)
}

// DefineClass adds a class with the given direct superclasses. The new class
// is appended to each superclass's direct subclass list.
func (h *Hierarchy) DefineClass(name string, supers ...ClassID) (ClassID, error) {
	name = normalize(name)
	if name == "" {
		return NoClass, &Error{Code: ErrCodeInvalidName, Message: "class name is empty"}
	}
	if _, ok := h.classIdx[name]; ok {
		return NoClass, &Error{Code: ErrCodeDuplicateClass, Message: "class already defined", Name: name}
	}

	var uniq []ClassID
	seen := make(map[ClassID]bool, len(supers))
	for _, s := range supers {
		if h.class(s) == nil {
			return NoClass, invalidClass(s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		uniq = append(uniq, s)
	}

	id := ClassID(len(h.classes) + 1)
	h.classes = append(h.classes, &Class{ID: id, Name: name, supers: uniq})
	h.classIdx[name] = id
	for _, s := range uniq {
		sc := h.class(s)
		sc.subs = append(sc.subs, id)
	}

	h.logger.Debug("class defined", "class", name, "id", id, "superclasses", len(uniq))
	return id, nil
}

// DefineClassNamed is DefineClass with superclasses given by name.
func (h *Hierarchy) DefineClassNamed(name string, supers ...string) (ClassID, error) {
	ids := make([]ClassID, 0, len(supers))
	for _, s := range supers {
		id, ok := h.LookupClass(s)
		if !ok {
			return NoClass, fmt.Errorf("define class %q: %w", name, unknownClass(s))
		}
		ids = append(ids, id)
	}
	return h.DefineClass(name, ids...)
}

// LookupClass finds a class handle by name.
func (h *Hierarchy) LookupClass(name string) (ClassID, bool) {
	id, ok := h.classIdx[normalize(name)]
	return id, ok
}

// Class returns the class for a handle.
func (h *Hierarchy) Class(id ClassID) (*Class, bool) {
	c := h.class(id)
	return c, c != nil
}

func (h *Hierarchy) class(id ClassID) *Class {
	if id <= 0 || int(id) > len(h.classes) {
		return nil
	}
	return h.classes[id-1]
}

func (h *Hierarchy) instance(id InstanceID) *Instance {
	if id <= 0 || int(id) > len(h.instances) {
		return nil
	}
	return h.instances[id-1]
}

// MakeInstance appends a new instance to the end of class's instance list.
func (h *Hierarchy) MakeInstance(class ClassID, name string) (InstanceID, error) {
	c := h.class(class)
	if c == nil {
		return NoInstance, invalidClass(class)
	}
	name = normalize(name)
	if name == "" {
		return NoInstance, &Error{Code: ErrCodeInvalidName, Message: "instance name is empty"}
	}
	if _, ok := h.instIdx[name]; ok {
		return NoInstance, &Error{Code: ErrCodeDuplicateInstance, Message: "instance already exists", Name: name}
	}

	id := InstanceID(len(h.instances) + 1)
	h.instances = append(h.instances, &Instance{ID: id, Name: name, Class: class})
	h.instIdx[name] = id

	if c.tail == NoInstance {
		c.head = id
	} else {
		h.instance(c.tail).next = id
	}
	c.tail = id
	c.live++

	h.logger.Debug("instance created", "instance", name, "class", c.Name, "id", id)
	return id, nil
}

// DeleteInstance marks an instance as garbage. The node stays linked until
// Reclaim. Deleting an already deleted instance is a no-op.
func (h *Hierarchy) DeleteInstance(id InstanceID) error {
	inst := h.instance(id)
	if inst == nil {
		return invalidInstance(id)
	}
	if inst.garbage {
		return nil
	}
	inst.garbage = true
	delete(h.instIdx, inst.Name)
	h.class(inst.Class).live--

	h.logger.Debug("instance deleted", "instance", inst.Name, "id", id)
	return nil
}

// Reclaim unlinks every garbage instance from its class list and returns how
// many were unlinked. Unlinked nodes keep their next handle so a cursor
// positioned on one still reaches the rest of the list.
func (h *Hierarchy) Reclaim() int {
	n := 0
	for _, c := range h.classes {
		prev := NoInstance
		for id := c.head; id != NoInstance; {
			inst := h.instance(id)
			next := inst.next
			if !inst.garbage {
				prev = id
				id = next
				continue
			}
			if prev == NoInstance {
				c.head = next
			} else {
				h.instance(prev).next = next
			}
			if c.tail == id {
				c.tail = prev
			}
			inst.unlinked = true
			n++
			id = next
		}
	}
	if n > 0 {
		h.logger.Info("garbage instances reclaimed", "count", n)
	}
	return n
}

// LookupInstance finds a live instance by name.
func (h *Hierarchy) LookupInstance(name string) (InstanceID, bool) {
	id, ok := h.instIdx[normalize(name)]
	return id, ok
}

// Instance returns a copy of the instance for a handle.
func (h *Hierarchy) Instance(id InstanceID) (Instance, bool) {
	inst := h.instance(id)
	if inst == nil {
		return Instance{}, false
	}
	return *inst, true
}

// Instances returns the live instances owned directly by class, in insertion order.
func (h *Hierarchy) Instances(class ClassID) ([]InstanceID, error) {
	c := h.class(class)
	if c == nil {
		return nil, invalidClass(class)
	}
	ids := make([]InstanceID, 0, c.live)
	for id := c.head; id != NoInstance; id = h.instance(id).next {
		if !h.instance(id).garbage {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Subclasses returns the direct subclasses of class in registration order, or
// with transitive set, every descendant depth-first, each exactly once.
func (h *Hierarchy) Subclasses(class ClassID, transitive bool) ([]ClassID, error) {
	c := h.class(class)
	if c == nil {
		return nil, invalidClass(class)
	}
	if !transitive {
		return append([]ClassID(nil), c.subs...), nil
	}

	var out []ClassID
	seen := map[ClassID]bool{class: true}
	var walk func(*Class)
	walk = func(c *Class) {
		for _, s := range c.subs {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
			walk(h.class(s))
		}
	}
	walk(c)
	return out, nil
}

// ClassCount returns the number of defined classes.
func (h *Hierarchy) ClassCount() int {
	return len(h.classes)
}

// LiveInstanceCount returns the number of instances not marked garbage.
func (h *Hierarchy) LiveInstanceCount() int {
	return len(h.instIdx)
}

// Classes returns every class handle in definition order.
func (h *Hierarchy) Classes() []ClassID {
	ids := make([]ClassID, len(h.classes))
	for i := range h.classes {
		ids[i] = ClassID(i + 1)
	}
	return ids
}

// Clear drops every class and instance. Handles and cursors taken before the
// call are invalid afterwards.
func (h *Hierarchy) Clear() {
	classes, instances := len(h.classes), len(h.instances)
	h.classes = nil
	h.instances = nil
	h.classIdx = make(map[string]ClassID)
	h.instIdx = make(map[string]InstanceID)
	h.gen++
	h.logger.Info("hierarchy cleared", "classes", classes, "instances", instances)
}
