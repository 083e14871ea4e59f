// Package env implements the field-value environment (spec C7): a tree of
// overrides keyed by dotted and indexed path segments ("outer.inner.leaf",
// "list[0].field"), so that containers and list elements can be addressed
// uniformly. An override placed on an interior node applies to every leaf
// beneath it.
package env

import (
	"fmt"
	"strconv"
	"strings"
)

// Values is one node of the override tree. The root is returned by New;
// every other node is reached through Child/Index.
type Values struct {
	leaf     string
	isLeaf   bool
	children map[string]*Values
}

// New returns an empty override tree.
func New() *Values {
	return &Values{children: map[string]*Values{}}
}

// Literal wraps a single value as a leaf node, used when code computes a
// value programmatically (e.g. an auto-filled PDU length field) rather
// than receiving it through Set.
func Literal(value string) *Values {
	return &Values{leaf: value, isLeaf: true, children: map[string]*Values{}}
}

// indexKey renders a list index as the synthetic child key used
// internally to address "name[i]" segments.
func indexKey(i int) string { return "#" + strconv.Itoa(i) }

// Segments splits a dotted/indexed path into plain traversal steps,
// turning "list[0].field" into ["list", "#0", "field"].
func Segments(path string) []string {
	var segs []string
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		open := strings.IndexByte(part, '[')
		if open >= 0 && strings.HasSuffix(part, "]") {
			if open > 0 {
				segs = append(segs, part[:open])
			}
			segs = append(segs, "#"+part[open+1:len(part)-1])
			continue
		}
		segs = append(segs, part)
	}
	return segs
}

// Set records an override at the given dotted/indexed path.
func (v *Values) Set(path string, value string) error {
	segs := Segments(path)
	if len(segs) == 0 {
		return fmt.Errorf("env: empty path")
	}
	node := v
	for _, s := range segs[:len(segs)-1] {
		child, ok := node.children[s]
		if !ok {
			child = &Values{children: map[string]*Values{}}
			node.children[s] = child
		}
		node = child
	}
	last := segs[len(segs)-1]
	child, ok := node.children[last]
	if !ok {
		child = &Values{children: map[string]*Values{}}
		node.children[last] = child
	}
	child.leaf = value
	child.isLeaf = true
	return nil
}

// Child descends into a named child. If this node is itself a leaf
// override, the value propagates down: a container-level override is
// equivalent to overriding every leaf beneath it.
func (v *Values) Child(name string) (*Values, bool) {
	if v == nil {
		return nil, false
	}
	if c, ok := v.children[name]; ok {
		return c, true
	}
	if v.isLeaf {
		return &Values{leaf: v.leaf, isLeaf: true, children: map[string]*Values{}}, true
	}
	return nil, false
}

// Index descends into a list element by position.
func (v *Values) Index(i int) (*Values, bool) {
	return v.Child(indexKey(i))
}

// Leaf returns this node's own override value, if it has one.
func (v *Values) Leaf() (string, bool) {
	if v == nil {
		return "", false
	}
	return v.leaf, v.isLeaf
}

// Keys returns the names of direct children that are not list indices.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	var keys []string
	for k := range v.children {
		if !strings.HasPrefix(k, "#") {
			keys = append(keys, k)
		}
	}
	return keys
}

// IndexKeys returns the list indices present as direct children.
func (v *Values) IndexKeys() []int {
	if v == nil {
		return nil
	}
	var idxs []int
	for k := range v.children {
		if strings.HasPrefix(k, "#") {
			if n, err := strconv.Atoi(k[1:]); err == nil {
				idxs = append(idxs, n)
			}
		}
	}
	return idxs
}

// IsEmpty reports whether this node carries no override and no children.
func (v *Values) IsEmpty() bool {
	return v == nil || (!v.isLeaf && len(v.children) == 0)
}
