package store

import (
	"fmt"
	"strconv"
)

// migrations[v] upgrades a version v document to version v+1.
var migrations = map[int]func(*node) (*node, error){
	1: migrate1to2,
}

// schemaVersion detects the layout of root. Documents without a version
// field are v1 when they have top-level "sources" and current otherwise.
func schemaVersion(root *node) (int, error) {
	v, ok := root.vals["version"]
	if !ok {
		if _, ok := root.vals["sources"]; ok {
			return 1, nil
		}
		return CurrentVersion, nil
	}
	if v.kind != kindNumber {
		return 0, fmt.Errorf("$.version: expected number, got %s", v.kind)
	}
	n, err := strconv.Atoi(v.raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("$.version: invalid version %s", v.raw)
	}
	if n > CurrentVersion {
		return 0, fmt.Errorf("$.version: version %d is newer than supported version %d", n, CurrentVersion)
	}
	return n, nil
}

// migrate upgrades root to CurrentVersion. It reports the version the
// document had before migration.
func migrate(root *node) (*node, int, error) {
	if root.kind != kindObject {
		return nil, 0, fmt.Errorf("$: expected object, got %s", root.kind)
	}
	from, err := schemaVersion(root)
	if err != nil {
		return nil, 0, err
	}
	for v := from; v < CurrentVersion; v++ {
		if root, err = migrations[v](root); err != nil {
			return nil, from, err
		}
	}
	return root, from, nil
}

// migrate1to2 turns the flat v1 layout
//
//	{"sources": {NAME: {"srctype": T, "srcargs": [...], "deps": [...]}}}
//
// into one group per source, named after it.
func migrate1to2(root *node) (*node, error) {
	for _, k := range root.keys {
		if k != "sources" && k != "version" {
			return nil, fmt.Errorf("$: unknown key %q", k)
		}
	}
	out := newObject()
	out.set("version", &node{kind: kindNumber, raw: "2"})
	groups := newObject()
	out.set("groups", groups)

	sources := root.vals["sources"]
	if sources == nil {
		return out, nil
	}
	if sources.kind != kindObject {
		return nil, fmt.Errorf("$.sources: expected object, got %s", sources.kind)
	}
	for _, name := range sources.keys {
		src := sources.vals[name]
		if src.kind != kindObject {
			return nil, fmt.Errorf("$.sources.%s: expected object, got %s", name, src.kind)
		}
		newSrc := newObject()
		group := newObject()
		for _, k := range src.keys {
			switch k {
			case "srctype", "srcargs":
				newSrc.set(k, src.vals[k])
			case "deps":
				group.set("deps", src.vals[k])
			default:
				return nil, fmt.Errorf("$.sources.%s: unknown key %q", name, k)
			}
		}
		srcs := newObject()
		srcs.set(name, newSrc)
		group.set("sources", srcs)
		groups.set(name, group)
	}
	return out, nil
}
