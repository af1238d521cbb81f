package expect

import "testing"

func TestMatrixFromQuery_VisitsEveryCellOnce(t *testing.T) {
	seen := map[Cell]int{}
	MatrixFromQuery(func(p Platform, b BuildProfile) Set[TestOutcome] {
		seen[Cell{p, b}]++
		return DefaultSet[TestOutcome]()
	})
	if len(seen) != len(Platforms)*len(BuildProfiles) {
		t.Fatalf("visited %d distinct cells, want %d",
			len(seen), len(Platforms)*len(BuildProfiles))
	}
	for cell, n := range seen {
		if n != 1 {
			t.Errorf("cell %v visited %d times, want exactly once", cell, n)
		}
	}
}

func TestUniformMatrix_Broadcasts(t *testing.T) {
	s := Permanent(TestError)
	m := UniformMatrix(s)
	m.Each(func(p Platform, b BuildProfile, got Set[TestOutcome]) {
		if got != s {
			t.Errorf("cell (%v, %v) = %v, want %v", p, b, got, s)
		}
	})
}

// sampleMatrices covers every collapse shape: fully uniform, uniform
// per platform with profiles disagreeing, platforms disagreeing with
// uniform rows, and fully expanded.
func sampleMatrices() map[string]Matrix[SubtestOutcome] {
	pass := Permanent(SubtestPass)
	fail := Permanent(SubtestFail)
	timeout := Permanent(SubtestTimeout)
	flaky := pass.Add(SubtestFail)

	return map[string]Matrix[SubtestOutcome]{
		"uniform": UniformMatrix(fail),
		"profiles disagree, platforms agree": MatrixFromQuery(
			func(p Platform, b BuildProfile) Set[SubtestOutcome] {
				if b == Debug {
					return timeout
				}
				return pass
			}),
		"platforms disagree, rows uniform": MatrixFromQuery(
			func(p Platform, b BuildProfile) Set[SubtestOutcome] {
				if p == Windows {
					return fail
				}
				return pass
			}),
		"fully expanded": MatrixFromQuery(
			func(p Platform, b BuildProfile) Set[SubtestOutcome] {
				switch {
				case p == Linux && b == Debug:
					return flaky
				case p == MacOS:
					return timeout
				default:
					return pass
				}
			}),
	}
}

// Round-trip: Expand is the total inverse of Collapse.
func TestCollapseExpand_RoundTrip(t *testing.T) {
	for name, m := range sampleMatrices() {
		t.Run(name, func(t *testing.T) {
			if got := Collapse(m).Expand(); got != m {
				t.Errorf("expand(collapse(m)) != m\ngot:  %+v\nwant: %+v", got, m)
			}
		})
	}
}

// Exhaustive round-trip over every permanent-set matrix reachable
// from two outcomes, plus intermittent cells. 2^6 shapes per pair is
// cheap and catches tier mix-ups the samples might miss.
func TestCollapseExpand_RoundTripExhaustivePairs(t *testing.T) {
	pass := Permanent(SubtestPass)
	flaky := pass.Add(SubtestNotRun)
	for mask := 0; mask < 1<<6; mask++ {
		i := 0
		m := MatrixFromQuery(func(p Platform, b BuildProfile) Set[SubtestOutcome] {
			cell := pass
			if mask&(1<<i) != 0 {
				cell = flaky
			}
			i++
			return cell
		})
		if got := Collapse(m).Expand(); got != m {
			t.Fatalf("mask %#b: expand(collapse(m)) != m", mask)
		}
	}
}

func TestCollapse_UniformIsFullyCollapsed(t *testing.T) {
	n := Collapse(UniformMatrix(Permanent(SubtestFail)))
	bp, ok := n.Uniform()
	if !ok {
		t.Fatal("uniform matrix did not collapse at the platform level")
	}
	s, ok := bp.Uniform()
	if !ok {
		t.Fatal("uniform matrix did not collapse at the profile level")
	}
	if s != Permanent(SubtestFail) {
		t.Errorf("collapsed value = %v, want FAIL", s)
	}
}

func TestCollapse_PlatformKeyedWithoutProfileNesting(t *testing.T) {
	m := MatrixFromQuery(func(p Platform, b BuildProfile) Set[SubtestOutcome] {
		if p == Windows {
			return Permanent(SubtestFail)
		}
		return Permanent(SubtestPass)
	})
	n := Collapse(m)
	byPlatform, ok := n.Platforms()
	if !ok {
		t.Fatal("cross-platform-differing matrix collapsed at the platform level")
	}
	for p, bp := range byPlatform {
		if _, ok := bp.Uniform(); !ok {
			t.Errorf("platform %v kept profile nesting despite a uniform row", p)
		}
	}
}

func TestCollapse_ProfilesDisagreePlatformsAgree(t *testing.T) {
	m := MatrixFromQuery(func(p Platform, b BuildProfile) Set[SubtestOutcome] {
		if b == Debug {
			return Permanent(SubtestTimeout)
		}
		return Permanent(SubtestPass)
	})
	bp, ok := Collapse(m).Uniform()
	if !ok {
		t.Fatal("platform-agreeing matrix did not collapse at the platform level")
	}
	profiles, ok := bp.Profiles()
	if !ok {
		t.Fatal("profile-disagreeing row collapsed to a single value")
	}
	if profiles[Debug] != Permanent(SubtestTimeout) || profiles[Optimized] != Permanent(SubtestPass) {
		t.Errorf("profile breakdown = %v, want debug TIMEOUT / opt PASS", profiles)
	}
}

func TestNormalizedEqual_ComparesExpansions(t *testing.T) {
	uniform := NormalizedUniform(UniformByProfile(Permanent(SubtestPass)))
	sprawling := NormalizedPerPlatform(map[Platform]ByProfile[SubtestOutcome]{
		Windows: UniformByProfile(Permanent(SubtestPass)),
		Linux:   UniformByProfile(Permanent(SubtestPass)),
		MacOS: PerProfile(map[BuildProfile]Set[SubtestOutcome]{
			Debug:     Permanent(SubtestPass),
			Optimized: Permanent(SubtestPass),
		}),
	})
	if !uniform.Equal(sprawling) {
		t.Error("structurally different encodings of the same matrix compare unequal")
	}
	if uniform.Equal(NormalizedUniform(UniformByProfile(Permanent(SubtestFail)))) {
		t.Error("distinct matrices compare equal")
	}
}

func TestDefaultNormalized(t *testing.T) {
	if got := DefaultNormalized[TestOutcome]().Expand(); got != DefaultMatrix[TestOutcome]() {
		t.Error("DefaultNormalized does not expand to the all-default matrix")
	}
}
