package expect

// ByProfile is one level of a normalized expectation value: either a
// single expectation uniform across build profiles, or a full
// per-profile breakdown. Exactly one representation is populated.
type ByProfile[O Outcome[O]] struct {
	uniform    *Set[O]
	perProfile map[BuildProfile]Set[O]
}

// UniformByProfile builds the profile-collapsed representation.
func UniformByProfile[O Outcome[O]](s Set[O]) ByProfile[O] {
	return ByProfile[O]{uniform: &s}
}

// PerProfile builds the expanded per-profile representation. The map
// must hold a value for every build profile.
func PerProfile[O Outcome[O]](m map[BuildProfile]Set[O]) ByProfile[O] {
	return ByProfile[O]{perProfile: m}
}

// Uniform returns the collapsed value when this level is uniform.
func (b ByProfile[O]) Uniform() (Set[O], bool) {
	if b.uniform == nil {
		return Set[O]{}, false
	}
	return *b.uniform, true
}

// Profiles returns the per-profile breakdown when this level is
// expanded.
func (b ByProfile[O]) Profiles() (map[BuildProfile]Set[O], bool) {
	if b.perProfile == nil {
		return nil, false
	}
	return b.perProfile, true
}

// get resolves the expectation for one build profile regardless of
// representation.
func (b ByProfile[O]) get(profile BuildProfile) Set[O] {
	if b.uniform != nil {
		return *b.uniform
	}
	return b.perProfile[profile]
}

// Normalized is the lossless, size-minimized encoding of a Matrix. It
// collapses backwards along the branching factors, platform first:
// either one ByProfile shared by every platform, or a per-platform
// breakdown. Nesting is exactly two levels, never deeper.
type Normalized[O Outcome[O]] struct {
	uniform     *ByProfile[O]
	perPlatform map[Platform]ByProfile[O]
}

// NormalizedUniform builds the platform-collapsed representation.
func NormalizedUniform[O Outcome[O]](b ByProfile[O]) Normalized[O] {
	return Normalized[O]{uniform: &b}
}

// NormalizedPerPlatform builds the expanded per-platform
// representation. The map must hold a value for every platform.
func NormalizedPerPlatform[O Outcome[O]](m map[Platform]ByProfile[O]) Normalized[O] {
	return Normalized[O]{perPlatform: m}
}

// DefaultNormalized is the most compact encoding of the all-default
// matrix.
func DefaultNormalized[O Outcome[O]]() Normalized[O] {
	return NormalizedUniform(UniformByProfile(DefaultSet[O]()))
}

// Uniform returns the platform-collapsed value when all platforms
// share one (possibly profile-expanded) value.
func (n Normalized[O]) Uniform() (ByProfile[O], bool) {
	if n.uniform == nil {
		return ByProfile[O]{}, false
	}
	return *n.uniform, true
}

// Platforms returns the per-platform breakdown when platforms
// disagree.
func (n Normalized[O]) Platforms() (map[Platform]ByProfile[O], bool) {
	if n.perPlatform == nil {
		return nil, false
	}
	return n.perPlatform, true
}

// Collapse encodes a matrix in its most compact structurally
// equivalent form. The rule is checked in order: a single value
// shared by every cell collapses fully; platforms that agree on their
// per-profile values collapse at the platform level; otherwise each
// platform keeps either a uniform value or its full profile
// breakdown. Comparisons are exact bit equality, and no information
// is discarded: Expand inverts Collapse for every matrix.
func Collapse[O Outcome[O]](m Matrix[O]) Normalized[O] {
	rowOf := func(p Platform) [len(BuildProfiles)]Set[O] {
		var row [len(BuildProfiles)]Set[O]
		for _, b := range BuildProfiles {
			row[b] = m.Get(p, b)
		}
		return row
	}
	collapseRow := func(row [len(BuildProfiles)]Set[O]) ByProfile[O] {
		uniform := true
		for _, b := range BuildProfiles[1:] {
			if row[b] != row[0] {
				uniform = false
				break
			}
		}
		if uniform {
			return UniformByProfile(row[0])
		}
		byProfile := make(map[BuildProfile]Set[O], len(BuildProfiles))
		for _, b := range BuildProfiles {
			byProfile[b] = row[b]
		}
		return PerProfile(byProfile)
	}

	firstRow := rowOf(Platforms[0])
	rowsAgree := true
	for _, p := range Platforms[1:] {
		if rowOf(p) != firstRow {
			rowsAgree = false
			break
		}
	}
	if rowsAgree {
		return NormalizedUniform(collapseRow(firstRow))
	}

	byPlatform := make(map[Platform]ByProfile[O], len(Platforms))
	for _, p := range Platforms {
		byPlatform[p] = collapseRow(rowOf(p))
	}
	return NormalizedPerPlatform(byPlatform)
}

// Expand reconstructs the dense matrix this value encodes. It is the
// total inverse of Collapse.
func (n Normalized[O]) Expand() Matrix[O] {
	return MatrixFromQuery(func(p Platform, b BuildProfile) Set[O] {
		if n.uniform != nil {
			return n.uniform.get(b)
		}
		return n.perPlatform[p].get(b)
	})
}

// Get resolves the expectation for one cell regardless of
// representation.
func (n Normalized[O]) Get(p Platform, b BuildProfile) Set[O] {
	if n.uniform != nil {
		return n.uniform.get(b)
	}
	return n.perPlatform[p].get(b)
}

// Equal reports whether two normalized values encode the same matrix.
// Expansion is the equality oracle: structurally different encodings
// of the same matrix never occur for Collapse output, but Equal does
// not rely on that.
func (n Normalized[O]) Equal(other Normalized[O]) bool {
	return n.Expand() == other.Expand()
}
