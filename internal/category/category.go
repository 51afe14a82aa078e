package category

// Names of the supported product categories.
const (
	Protein      = "Proteína"
	AminoAcids   = "Aminoácidos"
	Vitamins     = "Vitaminas"
	PreWorkout   = "Pre-entreno"
	IntraWorkout = "Intra-entreno"
	Snacks       = "Snacks"
	Wellness     = "Salud y Bienestar"
	Other        = "Otros"
)

var all = []string{
	Protein,
	AminoAcids,
	Vitamins,
	PreWorkout,
	IntraWorkout,
	Snacks,
	Wellness,
	Other,
}

// workout categories complement their neighbours in the training routine
var chain = map[string][]string{
	PreWorkout:   {IntraWorkout, Snacks},
	IntraWorkout: {PreWorkout, Snacks},
	Snacks:       {PreWorkout, IntraWorkout},
}

// Item is the public DTO returned by the category API.
type Item struct {
	Name        string   `json:"name"`
	Complements []string `json:"complements"`
}

// All returns the supported categories in display order.
func All() []string {
	out := make([]string, len(all))
	copy(out, all)
	return out
}

func Valid(name string) bool {
	for _, c := range all {
		if c == name {
			return true
		}
	}
	return false
}

// Complements returns the categories that pair well with name. Wellness
// complements everything and everything complements wellness.
func Complements(name string) []string {
	if !Valid(name) {
		return []string{}
	}
	if name == Wellness {
		out := make([]string, 0, len(all)-1)
		for _, c := range all {
			if c != Wellness {
				out = append(out, c)
			}
		}
		return out
	}
	out := append([]string{}, chain[name]...)
	return append(out, Wellness)
}

// Items lists every category with its complements.
func Items() []Item {
	out := make([]Item, 0, len(all))
	for _, c := range all {
		out = append(out, Item{Name: c, Complements: Complements(c)})
	}
	return out
}
