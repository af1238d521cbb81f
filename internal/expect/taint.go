package expect

// TaintTimeoutSuspicion entangles the TIMEOUT and NOTRUN subtest
// outcomes: if a set contains at least one of the two, both are
// unioned in, so the result always contains either none or both.
//
// The two outcomes are observationally entangled: a run that exceeds
// the deadline records a subtest as TIMEOUT or NOTRUN depending on
// how many iterations executed first. Treating them as inseparable
// reaches convergence quickly for tests whose large subtest matrices
// are deterministic when executed but consistently overrun the
// runner's window. Idempotent: re-applying is a no-op.
func TaintTimeoutSuspicion(s Set[SubtestOutcome]) Set[SubtestOutcome] {
	if s.IsDisjoint(SubtestTimeout, SubtestNotRun) {
		return s
	}
	return s.Add(SubtestTimeout).Add(SubtestNotRun)
}
