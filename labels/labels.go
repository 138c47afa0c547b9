package labels

// Catalog is the fixed ordered class list of the recognition model. Index
// positions match the model's output vector and must not be reordered.
var Catalog = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J",
	"K", "L", "M", "N", "O", "P", "Q", "R", "S", "T",
	"U", "V", "W", "X", "Y", "Z", "del", "nothing", "space",
}

// Count is the number of output classes.
var Count = len(Catalog)

// Name returns the label for a class index.
func Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(Catalog) {
		return "", false
	}
	return Catalog[idx], true
}

// All returns a copy of the catalog in index order.
func All() []string {
	out := make([]string, len(Catalog))
	copy(out, Catalog)
	return out
}
