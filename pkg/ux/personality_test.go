// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"testing"
)

// =============================================================================
// SetPersonalityLevel / GetPersonality Tests
// =============================================================================

func TestSetPersonalityLevel_AndGet(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonalityLevel(orig.Level)

	for _, level := range []PersonalityLevel{
		PersonalityFull, PersonalityStandard, PersonalityMinimal, PersonalityMachine,
	} {
		SetPersonalityLevel(level)
		if got := GetPersonality().Level; got != level {
			t.Errorf("expected level %v, got %v", level, got)
		}
	}
}

// =============================================================================
// ParsePersonalityLevel Tests
// =============================================================================

func TestParsePersonalityLevel_Full(t *testing.T) {
	inputs := []string{"full", "Full", "FULL", "f"}
	for _, input := range inputs {
		result := ParsePersonalityLevel(input)
		if result != PersonalityFull {
			t.Errorf("ParsePersonalityLevel(%q) = %v, want PersonalityFull", input, result)
		}
	}
}

func TestParsePersonalityLevel_Standard(t *testing.T) {
	inputs := []string{"standard", "Standard", "std", "s"}
	for _, input := range inputs {
		result := ParsePersonalityLevel(input)
		if result != PersonalityStandard {
			t.Errorf("ParsePersonalityLevel(%q) = %v, want PersonalityStandard", input, result)
		}
	}
}

func TestParsePersonalityLevel_Minimal(t *testing.T) {
	inputs := []string{"minimal", "MINIMAL", "min", "m"}
	for _, input := range inputs {
		result := ParsePersonalityLevel(input)
		if result != PersonalityMinimal {
			t.Errorf("ParsePersonalityLevel(%q) = %v, want PersonalityMinimal", input, result)
		}
	}
}

func TestParsePersonalityLevel_Machine(t *testing.T) {
	inputs := []string{"machine", "Machine", "quiet", "q"}
	for _, input := range inputs {
		result := ParsePersonalityLevel(input)
		if result != PersonalityMachine {
			t.Errorf("ParsePersonalityLevel(%q) = %v, want PersonalityMachine", input, result)
		}
	}
}

func TestParsePersonalityLevel_Default(t *testing.T) {
	// Unknown inputs should default to standard
	inputs := []string{"unknown", "", "xyz", "12345"}
	for _, input := range inputs {
		result := ParsePersonalityLevel(input)
		if result != PersonalityStandard {
			t.Errorf("ParsePersonalityLevel(%q) = %v, want PersonalityStandard (default)", input, result)
		}
	}
}

// =============================================================================
// InitPersonality Tests
// =============================================================================

func TestInitPersonality_WithEnvVar(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonalityLevel(orig.Level)
	defer os.Unsetenv("WAKE_PERSONALITY")

	os.Setenv("WAKE_PERSONALITY", "minimal")
	InitPersonality()

	if GetPersonality().Level != PersonalityMinimal {
		t.Errorf("expected PersonalityMinimal from env, got %v", GetPersonality().Level)
	}
}

func TestInitPersonality_WithEnvVar_Machine(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonalityLevel(orig.Level)
	defer os.Unsetenv("WAKE_PERSONALITY")

	os.Setenv("WAKE_PERSONALITY", "machine")
	InitPersonality()

	if GetPersonality().Level != PersonalityMachine {
		t.Errorf("expected PersonalityMachine from env, got %v", GetPersonality().Level)
	}
}

func TestInitPersonality_NoEnvVar(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonalityLevel(orig.Level)

	os.Unsetenv("WAKE_PERSONALITY")

	// In tests, stderr is typically not a terminal so we'll get machine mode
	InitPersonality()

	level := GetPersonality().Level
	if level != PersonalityFull && level != PersonalityMachine {
		t.Errorf("expected PersonalityFull or PersonalityMachine, got %v", level)
	}
}

// =============================================================================
// ShouldShowColors Tests
// =============================================================================

func TestShouldShowColors_MachineMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonalityLevel(orig.Level)

	SetPersonalityLevel(PersonalityMachine)

	if ShouldShowColors() != false {
		t.Error("expected ShouldShowColors to be false in machine mode")
	}
}

func TestShouldShowColors_FullMode(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonalityLevel(orig.Level)

	SetPersonalityLevel(PersonalityFull)

	if ShouldShowColors() != true {
		t.Error("expected ShouldShowColors to be true in full mode")
	}
}

// =============================================================================
// PersonalityLevel Constants Tests
// =============================================================================

func TestPersonalityLevel_Values(t *testing.T) {
	if PersonalityFull != "full" {
		t.Errorf("expected PersonalityFull = 'full', got %q", PersonalityFull)
	}
	if PersonalityStandard != "standard" {
		t.Errorf("expected PersonalityStandard = 'standard', got %q", PersonalityStandard)
	}
	if PersonalityMinimal != "minimal" {
		t.Errorf("expected PersonalityMinimal = 'minimal', got %q", PersonalityMinimal)
	}
	if PersonalityMachine != "machine" {
		t.Errorf("expected PersonalityMachine = 'machine', got %q", PersonalityMachine)
	}
}

// =============================================================================
// Concurrency Safety Tests
// =============================================================================

func TestPersonality_ConcurrentAccess(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonalityLevel(orig.Level)

	levels := []PersonalityLevel{
		PersonalityFull, PersonalityStandard, PersonalityMinimal, PersonalityMachine,
	}
	done := make(chan bool, 10)

	for i := 0; i < 5; i++ {
		go func(level PersonalityLevel) {
			SetPersonalityLevel(level)
			done <- true
		}(levels[i%4])
	}

	for i := 0; i < 5; i++ {
		go func() {
			_ = GetPersonality()
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
