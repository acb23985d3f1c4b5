package objsys

// Cursor is resumable iteration state over a class and its subclasses.
// The zero Cursor is exhausted.
type Cursor struct {
	gen   uint64
	class ClassID
	pos   InstanceID
	subs  []ClassID // snapshot taken by Start; never mutated
	next  int       // index into subs of the next class to descend into
	done  bool
}

// Class returns the class the cursor was started on.
func (c Cursor) Class() ClassID {
	return c.class
}

// Done reports whether the cursor is known to be exhausted. A cursor that is
// not Done may still turn out to be exhausted on the next Advance.
func (c Cursor) Done() bool {
	return c.done || c.gen == 0
}

// Remaining returns how many snapshot subclasses the cursor has not entered yet.
func (c Cursor) Remaining() int {
	return len(c.subs) - c.next
}

// Start returns a fresh cursor over class and all its transitive subclasses,
// positioned at the first live instance.
func (h *Hierarchy) Start(class ClassID) (Cursor, error) {
	c := h.class(class)
	if c == nil {
		return Cursor{}, invalidClass(class)
	}
	subs, err := h.Subclasses(class, true)
	if err != nil {
		return Cursor{}, err
	}
	cur := h.settle(Cursor{
		gen:   h.gen,
		class: class,
		pos:   c.head,
		subs:  subs,
	})
	h.logger.Debug("cursor started",
		"class", c.Name,
		"subclasses", len(subs),
		"done", cur.done,
	)
	return cur, nil
}

// StartNamed is Start with the class given by name.
func (h *Hierarchy) StartNamed(name string) (Cursor, error) {
	id, ok := h.LookupClass(name)
	if !ok {
		return Cursor{}, unknownClass(normalize(name))
	}
	return h.Start(id)
}

// Advance yields the next live instance and the cursor for the following
// call. ok is false once the cursor is exhausted.
//
// Garbage is checked at yield time, so an instance deleted after Start but
// before the cursor reaches it is skipped.
func (h *Hierarchy) Advance(c Cursor) (id InstanceID, next Cursor, ok bool) {
	if c.Done() || c.gen != h.gen {
		c.done = true
		return NoInstance, c, false
	}
	c = h.settle(c)
	if c.done {
		return NoInstance, c, false
	}
	id = c.pos
	c.pos = h.instance(id).next
	return id, c, true
}

// settle moves the cursor forward until it rests on a live instance or runs
// out of snapshot classes.
func (h *Hierarchy) settle(c Cursor) Cursor {
	for {
		for c.pos != NoInstance {
			inst := h.instance(c.pos)
			if !inst.garbage {
				return c
			}
			c.pos = inst.next
		}
		if c.next >= len(c.subs) {
			c.done = true
			return c
		}
		c.pos = h.class(c.subs[c.next]).head
		c.next++
	}
}

// Each calls fn for every live instance of class and its subclasses until fn
// returns false.
func (h *Hierarchy) Each(class ClassID, fn func(Instance) bool) error {
	cur, err := h.Start(class)
	if err != nil {
		return err
	}
	for {
		id, next, ok := h.Advance(cur)
		if !ok {
			return nil
		}
		cur = next
		if !fn(*h.instance(id)) {
			return nil
		}
	}
}

// Collect returns the handles Each would visit, in order.
func (h *Hierarchy) Collect(class ClassID) ([]InstanceID, error) {
	var ids []InstanceID
	err := h.Each(class, func(i Instance) bool {
		ids = append(ids, i.ID)
		return true
	})
	return ids, err
}
