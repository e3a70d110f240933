package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// normalize round-trips v through JSON so structs, typed maps and slices all
// become map[string]any, []any and scalar values.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

// flatten writes every scalar leaf of v into leaves keyed by full path.
// Nulls, empty objects and empty arrays produce no leaves.
func flatten(base string, v any, leaves map[string]string) error {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, child := range t {
			if err := validSegment(k); err != nil {
				return fmt.Errorf("%w: key under %q: %v", ErrInvalidPath, base, err)
			}
			if err := flatten(Join(base, k), child, leaves); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, child := range t {
			if err := flatten(Join(base, strconv.Itoa(i)), child, leaves); err != nil {
				return err
			}
		}
		return nil
	default:
		if base == "" {
			return fmt.Errorf("%w: scalar value at root", ErrInvalidPath)
		}
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal leaf %q: %w", base, err)
		}
		leaves[base] = string(data)
		return nil
	}
}

type node struct {
	Path  string `db:"path"`
	Value string `db:"value"`
}

// unflatten rebuilds the subtree rooted at base from its stored leaves.
func unflatten(base string, rows []node) (any, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	root := map[string]any{}
	for _, r := range rows {
		leaf, err := decodeJSON([]byte(r.Value))
		if err != nil {
			return nil, fmt.Errorf("leaf %q: %w", r.Path, err)
		}

		rel := r.Path
		if base != "" {
			if r.Path == base {
				// A scalar stored at base; writes never leave children beside it.
				return leaf, nil
			}
			rel = strings.TrimPrefix(r.Path, base+"/")
		}

		segs := strings.Split(rel, "/")
		cur := root
		for _, seg := range segs[:len(segs)-1] {
			next, ok := cur[seg].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[seg] = next
			}
			cur = next
		}
		cur[segs[len(segs)-1]] = leaf
	}
	return arrayify(root), nil
}

// arrayify turns objects whose keys are exactly 0..n-1 back into arrays.
func arrayify(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		m[k] = arrayify(child)
	}

	idx := make([]int, 0, len(m))
	for k := range m {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || strconv.Itoa(n) != k {
			return m
		}
		idx = append(idx, n)
	}
	sort.Ints(idx)
	for i, n := range idx {
		if i != n {
			return m
		}
	}

	arr := make([]any, len(idx))
	for i := range idx {
		arr[i] = m[strconv.Itoa(i)]
	}
	return arr
}
