package nameformat

// dimensionOrder is the fixed iteration order for the Cartesian product
// over multi-valued inputs.
var dimensionOrder = []string{"artist", "albumartist", "composer", "genre", "work", "virtual"}

// Expand iterates the Cartesian product of the multi-valued fields in
// multi (an empty list is treated as the singleton [""]), binds each
// combination together with the single-valued fields in static, and
// returns the distinct rendered display strings.
func Expand(t Template, multi map[string][]string, static map[string]string) []string {
	lists := make([][]string, len(dimensionOrder))
	for i, dim := range dimensionOrder {
		values := multi[dim]
		if len(values) == 0 {
			values = []string{""}
		}
		lists[i] = values
	}

	seen := map[string]bool{}
	var out []string

	var combo [6]string
	var recurse func(depth int)
	recurse = func(depth int) {
		if depth == len(dimensionOrder) {
			binding := Binding{}
			for k, v := range static {
				binding[k] = v
			}
			for i, dim := range dimensionOrder {
				binding[dim] = combo[i]
			}
			s := t.Eval(binding)
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
			return
		}
		for _, v := range lists[depth] {
			combo[depth] = v
			recurse(depth + 1)
		}
	}
	recurse(0)
	return out
}
