package factory

// Context tracks the branches of one assembly session: the tail object of
// every named branch in creation order, and which branch is active. It is
// not safe for concurrent use; each session owns its own.
type Context struct {
	current string
	order   []string
	tails   map[string]any
}

func NewContext() *Context {
	return &Context{tails: make(map[string]any)}
}

func (c *Context) Current() string {
	return c.current
}

func (c *Context) SetCurrent(name string) {
	c.current = name
}

// Tail returns the tail of branch name, or nil.
func (c *Context) Tail(name string) any {
	return c.tails[name]
}

// SetTail records tail for name, keeping the branch's position when it
// already exists.
func (c *Context) SetTail(name string, tail any) {
	if _, ok := c.tails[name]; !ok {
		c.order = append(c.order, name)
	}
	c.tails[name] = tail
}

func (c *Context) Remove(name string) {
	if _, ok := c.tails[name]; !ok {
		return
	}

	delete(c.tails, name)
	for i, branch := range c.order {
		if branch == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Branches lists branch names in creation order.
func (c *Context) Branches() []string {
	return append([]string(nil), c.order...)
}

// Tails lists every branch tail in creation order.
func (c *Context) Tails() []any {
	tails := make([]any, len(c.order))
	for i, name := range c.order {
		tails[i] = c.tails[name]
	}

	return tails
}

func (c *Context) Len() int {
	return len(c.order)
}

// branchOf finds the branch value belongs to: the branch whose tail it is,
// or else the branch carrying its name, for pipes taken from a branch that
// has advanced since.
func (c *Context) branchOf(value any) (string, bool) {
	if value == nil {
		return "", false
	}

	if isComparable(value) {
		for _, name := range c.order {
			tail := c.tails[name]
			if isComparable(tail) && tail == value {
				return name, true
			}
		}
	}

	if named, ok := value.(Named); ok {
		if _, exists := c.tails[named.Name()]; exists {
			return named.Name(), true
		}
	}

	return "", false
}
