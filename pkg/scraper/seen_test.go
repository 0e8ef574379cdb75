package scraper

import (
	"fmt"
	"testing"
)

func TestSeenSetAtMostOnce(t *testing.T) {
	s := NewSeenSet(0)

	if s.Seen("m1") {
		t.Error("Fresh set must not report ids as seen")
	}
	s.Add("m1")
	if !s.Seen("m1") {
		t.Error("Added id must be reported as seen")
	}

	// Re-adding must not duplicate.
	s.Add("m1")
	if s.Len() != 1 {
		t.Errorf("Expected 1 id after duplicate add, got %d", s.Len())
	}
}

func TestSeenSetPrunesToNewestHalf(t *testing.T) {
	s := NewSeenSet(10)

	for i := 0; i < 11; i++ {
		s.Add(fmt.Sprintf("id-%d", i))
	}

	if s.Len() != 5 {
		t.Fatalf("Expected prune to 5 ids, got %d", s.Len())
	}
	// Oldest gone, newest kept.
	if s.Seen("id-0") {
		t.Error("Oldest id should have been pruned")
	}
	if !s.Seen("id-10") {
		t.Error("Newest id must survive pruning")
	}
	if s.Newest() != "id-10" {
		t.Errorf("Expected newest id-10, got %s", s.Newest())
	}
}

func TestSeenSetDefaultBounds(t *testing.T) {
	s := NewSeenSet(0)

	for i := 0; i < defaultSeenCap+1; i++ {
		s.Add(fmt.Sprintf("id-%d", i))
	}
	if s.Len() != defaultSeenPrune {
		t.Errorf("Expected default prune to %d, got %d", defaultSeenPrune, s.Len())
	}
}
