package categories

// DefaultIcon is the fallback for unknown icon identifiers.
const DefaultIcon = "Circle"

// availableIcons is the closed set of icon identifiers the presentation
// layer knows how to render.
var availableIcons = map[string]bool{
	"Briefcase":     true,
	"TrendingUp":    true,
	"Gift":          true,
	"PlusCircle":    true,
	"Utensils":      true,
	"Car":           true,
	"Home":          true,
	"Gamepad2":      true,
	"HeartPulse":    true,
	"Receipt":       true,
	"Book":          true,
	"Shirt":         true,
	"Plane":         true,
	"PiggyBank":     true,
	"GraduationCap": true,
	"Film":          true,
	"Music":         true,
	"ShoppingCart":  true,
	"PawPrint":      true,
	"Wifi":          true,
	"Phone":         true,
	"Tv":            true,
	"Laptop":        true,
	"Coffee":        true,
	"Beer":          true,
	"Scissors":      true,
	"Dumbbell":      true,
	"Landmark":      true,
	"Circle":        true,
}

// IconOrFallback maps an icon identifier to a known one, substituting
// DefaultIcon for anything outside the enumerated set.
func IconOrFallback(name string) string {
	if availableIcons[name] {
		return name
	}
	return DefaultIcon
}

// KnownIcon reports whether name belongs to the enumerated icon set.
func KnownIcon(name string) bool {
	return availableIcons[name]
}
