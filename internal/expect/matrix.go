package expect

import "fmt"

// Platform is the operating system axis of the expectation matrix.
type Platform uint8

// Platforms tracked independently, in enumeration order.
const (
	Windows Platform = iota
	Linux
	MacOS
)

// Platforms lists every platform in enumeration order.
var Platforms = [...]Platform{Windows, Linux, MacOS}

func (p Platform) String() string {
	switch p {
	case Windows:
		return "win"
	case Linux:
		return "linux"
	case MacOS:
		return "mac"
	}
	return fmt.Sprintf("Platform(%d)", uint8(p))
}

// ParsePlatform maps a wptreport run_info "os" value to a Platform.
func ParsePlatform(os string) (Platform, error) {
	switch os {
	case "win":
		return Windows, nil
	case "linux":
		return Linux, nil
	case "mac":
		return MacOS, nil
	}
	return 0, fmt.Errorf("unrecognized platform %q", os)
}

// BuildProfile is the build configuration axis of the expectation
// matrix.
type BuildProfile uint8

// Build profiles tracked independently, in enumeration order.
const (
	Debug BuildProfile = iota
	Optimized
)

// BuildProfiles lists every build profile in enumeration order.
var BuildProfiles = [...]BuildProfile{Debug, Optimized}

func (b BuildProfile) String() string {
	switch b {
	case Debug:
		return "debug"
	case Optimized:
		return "opt"
	}
	return fmt.Sprintf("BuildProfile(%d)", uint8(b))
}

// Cell addresses one matrix cell.
type Cell struct {
	Platform Platform
	Profile  BuildProfile
}

// Matrix is a dense, always fully populated table of expectation
// sets indexed by (Platform, BuildProfile). Partial matrices are not
// representable: every constructor fills all cells. Matrix values are
// comparable with ==.
type Matrix[O Outcome[O]] struct {
	cells [len(Platforms)][len(BuildProfiles)]Set[O]
}

// MatrixFromQuery evaluates f for every cell exactly once, in
// platform-major enumeration order.
func MatrixFromQuery[O Outcome[O]](f func(Platform, BuildProfile) Set[O]) Matrix[O] {
	var m Matrix[O]
	for _, p := range Platforms {
		for _, b := range BuildProfiles {
			m.cells[p][b] = f(p, b)
		}
	}
	return m
}

// UniformMatrix broadcasts one expectation to every cell.
func UniformMatrix[O Outcome[O]](s Set[O]) Matrix[O] {
	return MatrixFromQuery(func(Platform, BuildProfile) Set[O] { return s })
}

// DefaultMatrix holds the default (good-outcome) expectation in every
// cell.
func DefaultMatrix[O Outcome[O]]() Matrix[O] {
	return UniformMatrix(DefaultSet[O]())
}

// Get returns the expectation at the given cell.
func (m Matrix[O]) Get(p Platform, b BuildProfile) Set[O] {
	return m.cells[p][b]
}

// WithCell returns a copy of m with one cell replaced.
func (m Matrix[O]) WithCell(p Platform, b BuildProfile, s Set[O]) Matrix[O] {
	m.cells[p][b] = s
	return m
}

// Each visits every cell in platform-major enumeration order.
func (m Matrix[O]) Each(f func(Platform, BuildProfile, Set[O])) {
	for _, p := range Platforms {
		for _, b := range BuildProfiles {
			f(p, b, m.cells[p][b])
		}
	}
}

// Map returns a copy of m with f applied to every cell.
func (m Matrix[O]) Map(f func(Set[O]) Set[O]) Matrix[O] {
	return MatrixFromQuery(func(p Platform, b BuildProfile) Set[O] {
		return f(m.cells[p][b])
	})
}
