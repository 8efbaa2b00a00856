package eva

import (
	"fmt"
	"strings"

	"goeva/domain/core"
)

// Method selects how extreme events are extracted from a time series.
type Method string

const (
	// MethodPOT extracts peaks over a fixed threshold.
	MethodPOT Method = "POT"
	// MethodBM extracts one maximum per calendar-year block.
	MethodBM Method = "BM"
)

// String returns the method tag.
func (m Method) String() string { return string(m) }

// Valid reports whether the method is one of the supported tags.
func (m Method) Valid() bool {
	return m == MethodPOT || m == MethodBM
}

// ParseMethod maps a user-facing method name onto a Method tag.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "POT":
		return MethodPOT, nil
	case "BM":
		return MethodBM, nil
	default:
		return "", core.NewInvalidInputError("method",
			fmt.Sprintf("unrecognized %q, use POT or BM", s))
	}
}

// Family identifies a parametric distribution family for extreme values.
type Family string

const (
	FamilyGPD       Family = "GPD"
	FamilyGEV       Family = "GEV"
	FamilyGumbel    Family = "Gumbel"
	FamilyWeibull   Family = "Weibull"
	FamilyLogNormal Family = "Log-normal"
	FamilyPearson3  Family = "Pearson 3"
)

// familyTraits carries per-family behavior as data instead of scattered
// branching: compatible extraction methods and the parameter layout.
type familyTraits struct {
	methods []Method
	params  []string
}

var familyRegistry = map[Family]familyTraits{
	FamilyGPD:       {methods: []Method{MethodPOT, MethodBM}, params: []string{"shape", "location", "scale"}},
	FamilyGEV:       {methods: []Method{MethodBM}, params: []string{"shape", "location", "scale"}},
	FamilyGumbel:    {methods: []Method{MethodBM}, params: []string{"location", "scale"}},
	FamilyWeibull:   {methods: []Method{MethodBM}, params: []string{"shape", "location", "scale"}},
	FamilyLogNormal: {methods: []Method{MethodBM}, params: []string{"shape", "location", "scale"}},
	FamilyPearson3:  {methods: []Method{MethodBM}, params: []string{"skew", "location", "scale"}},
}

// Families returns the supported families in a stable order.
func Families() []Family {
	return []Family{
		FamilyGPD, FamilyGEV, FamilyGumbel,
		FamilyWeibull, FamilyLogNormal, FamilyPearson3,
	}
}

// String returns the family tag.
func (f Family) String() string { return string(f) }

// Valid reports whether the family is one of the supported tags.
func (f Family) Valid() bool {
	_, ok := familyRegistry[f]
	return ok
}

// SupportsMethod reports whether the family may be fitted to extremes
// extracted with the given method.
func (f Family) SupportsMethod(m Method) bool {
	t, ok := familyRegistry[f]
	if !ok {
		return false
	}
	for _, allowed := range t.methods {
		if allowed == m {
			return true
		}
	}
	return false
}

// ParamNames returns the family's parameter layout, in fit order.
func (f Family) ParamNames() []string {
	t := familyRegistry[f]
	out := make([]string, len(t.params))
	copy(out, t.params)
	return out
}

// NumParams returns the family's parameter count.
func (f Family) NumParams() int {
	return len(familyRegistry[f].params)
}

// ParseFamily maps a user-facing distribution name onto a Family tag.
func ParseFamily(s string) (Family, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	switch key {
	case "gpd", "genpareto", "generalizedpareto":
		return FamilyGPD, nil
	case "gev", "genextreme", "generalizedextremevalue":
		return FamilyGEV, nil
	case "gumbel", "gumbelr":
		return FamilyGumbel, nil
	case "weibull", "weibullmin":
		return FamilyWeibull, nil
	case "lognormal", "lognorm":
		return FamilyLogNormal, nil
	case "pearson3", "pearsoniii", "p3":
		return FamilyPearson3, nil
	default:
		return "", core.NewInvalidInputError("distribution",
			fmt.Sprintf("unrecognized %q", s))
	}
}
