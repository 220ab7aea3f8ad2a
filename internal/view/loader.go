package view

import (
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Loader mounts views by name for headless use. Each name is mounted once
// and its controller reused.
type Loader struct {
	engine Engine
	views  cmap.ConcurrentMap[string, *Controller]
}

// NewLoader creates a loader over e.
func NewLoader(e Engine) *Loader {
	return &Loader{engine: e, views: cmap.New[*Controller]()}
}

// Load returns the mounted controller for name, mounting it on first use.
// Concurrent loads of one name mount it once.
func (l *Loader) Load(name string) (*Controller, error) {
	var mountErr error
	c := l.views.Upsert(name, nil, func(exist bool, cur, _ *Controller) *Controller {
		if exist && cur != nil {
			return cur
		}
		c := NewController(l.engine, name)
		if _, err := c.Mount(); err != nil {
			mountErr = err
			return nil
		}
		return c
	})
	if mountErr != nil {
		l.views.RemoveCb(name, func(_ string, v *Controller, exists bool) bool {
			return exists && v == nil
		})
		return nil, mountErr
	}
	return c, nil
}

// Get returns the controller loaded for name, if any.
func (l *Loader) Get(name string) (*Controller, bool) {
	c, ok := l.views.Get(name)
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}

// Controllers returns the loaded controllers sorted by view name.
func (l *Loader) Controllers() []*Controller {
	out := make([]*Controller, 0, l.views.Count())
	for _, c := range l.views.Items() {
		if c != nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Unload unmounts and forgets the view loaded for name.
func (l *Loader) Unload(name string) {
	if c, ok := l.views.Pop(name); ok && c != nil {
		c.Unmount()
	}
}
