package mmodel

import "testing"

func TestIsValidJobTransition_StartingToComplete(t *testing.T) {
	if !IsValidJobTransition(StateStarting, StateComplete) {
		t.Fatal("expected starting -> complete to be a legal transition")
	}
}

func TestIsValidJobTransition_RejectsUnknownTransition(t *testing.T) {
	if IsValidJobTransition(StateNotStarted, StateComplete) {
		t.Fatal("expected not-started -> complete to be rejected")
	}
}

func TestIsDuplicateJobCallback_SameTerminalStateIsDuplicate(t *testing.T) {
	if !IsDuplicateJobCallback(StateComplete, StateComplete) {
		t.Fatal("expected a repeated complete callback to be a duplicate")
	}
}

func TestIsDuplicateJobCallback_NonTerminalIsNeverDuplicate(t *testing.T) {
	if IsDuplicateJobCallback(StateInProgress, StateInProgress) {
		t.Fatal("non-terminal states are never duplicates even when equal")
	}
}

func TestIsDuplicateJobCallback_DifferentTerminalStatesAreNotDuplicates(t *testing.T) {
	if IsDuplicateJobCallback(StateFailed, StateComplete) {
		t.Fatal("a different terminal state is a conflicting report, not a duplicate")
	}
}
