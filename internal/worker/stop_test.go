package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStopMatcher_NoStopsPassesThrough(t *testing.T) {
	s := newStopMatcher(nil)
	emit, hit := s.push("abc")
	assert.Equal(t, []string{"abc"}, emit)
	assert.False(t, hit)
	assert.Empty(t, s.flush())
}

func TestStopMatcher_AcrossFragments(t *testing.T) {
	s := newStopMatcher([]string{"END"})
	emit, hit := s.push("abc")
	assert.Equal(t, []string{"abc"}, emit)
	assert.False(t, hit)

	emit, hit = s.push("E")
	assert.Empty(t, emit)
	assert.False(t, hit)
	emit, hit = s.push("N")
	assert.Empty(t, emit)
	assert.False(t, hit)

	emit, hit = s.push("Dxyz")
	assert.Empty(t, emit)
	assert.True(t, hit)
}

func TestStopMatcher_ReleasesFalseStart(t *testing.T) {
	s := newStopMatcher([]string{"END"})
	_, _ = s.push("E")
	emit, hit := s.push("x")
	assert.Equal(t, []string{"E", "x"}, emit)
	assert.False(t, hit)
}

func TestStopMatcher_MidFragmentKeepsPrefix(t *testing.T) {
	s := newStopMatcher([]string{"END"})
	emit, hit := s.push("foo END bar")
	assert.Equal(t, []string{"foo "}, emit)
	assert.True(t, hit)
}

func TestStopMatcher_EarliestMatchWins(t *testing.T) {
	s := newStopMatcher([]string{"b", "a"})
	emit, hit := s.push("xab")
	assert.Equal(t, []string{"x"}, emit)
	assert.True(t, hit)
}

func TestStopMatcher_FlushReturnsHeldBack(t *testing.T) {
	s := newStopMatcher([]string{"END"})
	_, _ = s.push("EN")
	assert.Equal(t, []string{"EN"}, s.flush())
	assert.Empty(t, s.flush())
}

func TestStopMatcher_RepeatedPartialReleasesOlderFragments(t *testing.T) {
	s := newStopMatcher([]string{"ab"})
	var got [][]string
	for range 4 {
		emit, hit := s.push("a")
		assert.False(t, hit)
		got = append(got, emit)
	}
	assert.Equal(t, [][]string{nil, {"a"}, {"a"}, {"a"}}, got)
	assert.Equal(t, []string{"a"}, s.flush())
}

func TestStopMatcher_MatchKeepsWholeFragmentsBeforeIt(t *testing.T) {
	s := newStopMatcher([]string{"STOP"})
	_, _ = s.push("xS")
	emit, hit := s.push("T")
	assert.Empty(t, emit)
	assert.False(t, hit)
	emit, hit = s.push("OP!")
	assert.Equal(t, []string{"x"}, emit)
	assert.True(t, hit)
}

func TestStopMatcher_ReleasesFragmentsBeforeLongPartial(t *testing.T) {
	s := newStopMatcher([]string{"abc"})
	_, _ = s.push("a")
	_, _ = s.push("b")
	emit, hit := s.push("a")
	// "aba": only the trailing "a" can still start "abc"
	assert.Equal(t, []string{"a", "b"}, emit)
	assert.False(t, hit)
}
