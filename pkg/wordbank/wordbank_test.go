package wordbank

import (
	"fmt"
	"sync"
	"testing"
)

func TestWordBank(t *testing.T) {
	wb := New("Abc", "xy")

	if !wb.Contains("abc") {
		t.Error("expected abc to be present")
	}
	if !wb.Contains("XY") {
		t.Error("lookups should be case-insensitive")
	}
	if wb.Add("ABC") {
		t.Error("Add() of an existing word should return false")
	}
	if !wb.Add("new") {
		t.Error("Add() of a new word should return true")
	}
	if wb.Len() != 3 {
		t.Errorf("Len() = %d, want 3", wb.Len())
	}
}

func TestWordBankConcurrentAdd(t *testing.T) {
	wb := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if wb.Add(fmt.Sprintf("w%d", j)) {
					mu.Lock()
					added++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if added != 100 {
		t.Errorf("expected exactly 100 successful adds, got %d", added)
	}
	if wb.Len() != 100 {
		t.Errorf("Len() = %d, want 100", wb.Len())
	}
}
