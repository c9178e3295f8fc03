package bulk

import (
	"errors"
	"testing"
)

func TestAggregate_PartialFailure(t *testing.T) {
	items := []Item[string]{
		NewOK("a", "va"),
		NewOK("b", "vb"),
		NewError[string]("c", errors.New("entity not found")),
	}

	s := Aggregate(items)

	if s.Success {
		t.Error("Success should be false with a failed item")
	}
	if s.TotalProcessed != 3 || s.TotalSuccess != 2 || s.TotalFailed != 1 {
		t.Errorf("totals = %d/%d/%d, want 3/2/1", s.TotalProcessed, s.TotalSuccess, s.TotalFailed)
	}
	if len(s.Succeeded) != 2 || s.Succeeded[0] != "va" || s.Succeeded[1] != "vb" {
		t.Errorf("Succeeded = %v", s.Succeeded)
	}
	if len(s.Failed) != 1 || s.Failed[0].ID != "c" || s.Failed[0].Error != "entity not found" {
		t.Errorf("Failed = %v", s.Failed)
	}
}

func TestAggregate_AllSucceed(t *testing.T) {
	s := Aggregate([]Item[int]{NewOK("a", 1), NewOK("b", 2)})

	if !s.Success {
		t.Error("Success should be true when nothing failed")
	}
	if s.TotalFailed != 0 || len(s.Failed) != 0 {
		t.Errorf("Failed = %v", s.Failed)
	}
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate[string](nil)

	if !s.Success {
		t.Error("empty batch should aggregate as success")
	}
	if s.TotalProcessed != 0 || s.TotalSuccess != 0 || s.TotalFailed != 0 {
		t.Errorf("totals = %d/%d/%d, want zeros", s.TotalProcessed, s.TotalSuccess, s.TotalFailed)
	}
	if s.Succeeded == nil || s.Failed == nil {
		t.Error("Succeeded and Failed should be non-nil empty slices")
	}
}

func TestAggregate_ErrorWithoutMessage(t *testing.T) {
	s := Aggregate([]Item[string]{{id: "x", status: StatusError}})

	if s.Failed[0].Error != "unknown error" {
		t.Errorf("Error = %q, want fallback message", s.Failed[0].Error)
	}
}
