package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionAllowedPairs(t *testing.T) {
	allowed := []struct {
		from Status
		to   Status
	}{
		{StatusTrial, StatusAtivo},
		{StatusTrial, StatusRemovido},
		{StatusAtivo, StatusInadimplente},
		{StatusAtivo, StatusRemovido},
		{StatusInadimplente, StatusAtivo},
		{StatusInadimplente, StatusRemovido},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}
}

func TestCanTransitionRejectsEverythingElse(t *testing.T) {
	all := []Status{StatusTrial, StatusAtivo, StatusInadimplente, StatusRemovido}
	allowed := map[[2]Status]bool{
		{StatusTrial, StatusAtivo}:           true,
		{StatusTrial, StatusRemovido}:        true,
		{StatusAtivo, StatusInadimplente}:    true,
		{StatusAtivo, StatusRemovido}:        true,
		{StatusInadimplente, StatusAtivo}:    true,
		{StatusInadimplente, StatusRemovido}: true,
	}

	for _, from := range all {
		for _, to := range all {
			if allowed[[2]Status{from, to}] {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}
}

func TestCanTransitionRejectsSelfTransitions(t *testing.T) {
	for _, s := range []Status{StatusTrial, StatusAtivo, StatusInadimplente, StatusRemovido} {
		assert.False(t, CanTransition(s, s))
	}
}

func TestCanTransitionRemovidoIsTerminal(t *testing.T) {
	for _, to := range []Status{StatusTrial, StatusAtivo, StatusInadimplente} {
		assert.False(t, CanTransition(StatusRemovido, to))
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(Status("suspended"), StatusAtivo))
	assert.False(t, CanTransition(StatusAtivo, Status("suspended")))
	assert.False(t, CanTransition(Status(""), Status("")))
}
