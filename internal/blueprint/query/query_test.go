package query

import (
	"testing"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

func TestParseTable(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		skills blueprint.SkillLevels
	}{
		{in: "tritanium mining array 5/3/1", name: "tritanium mining array", skills: blueprint.SkillLevels{Basic: 5, Advanced: 3, Expert: 1}},
		{in: "Rifter", name: "rifter"},
		{in: "  RIFTER  ", name: "rifter"},
		{in: "rifter 5", name: "rifter 5"},
		{in: "rifter 2 5/4/3", name: "rifter 2", skills: blueprint.SkillLevels{Basic: 5, Advanced: 4, Expert: 3}},
		{in: "rifter 5/4", name: "rifter", skills: blueprint.SkillLevels{Basic: 5, Advanced: 4}},
		{in: "rifter - 4", name: "rifter", skills: blueprint.SkillLevels{Basic: 4}},
		{in: "rifter-3/3/3", name: "rifter", skills: blueprint.SkillLevels{Basic: 3, Advanced: 3, Expert: 3}},
		{in: "mk2 hobgoblin 1/1", name: "mk2 hobgoblin", skills: blueprint.SkillLevels{Basic: 1, Advanced: 1}},
		{in: "mk 3 hobgoblin", name: "mk 3 hobgoblin"},
		{in: "rifter 9/7/6", name: "rifter", skills: blueprint.SkillLevels{Basic: 5, Advanced: 5, Expert: 5}},
		{in: "rifter 5/4/3/2", name: "rifter", skills: blueprint.SkillLevels{Basic: 5, Advanced: 4, Expert: 3}},
		{in: "rifter   the  frigate", name: "rifter the frigate"},
	}
	for _, tc := range tests {
		q, ok := Parse(tc.in)
		if !ok {
			t.Fatalf("Parse(%q) found no name", tc.in)
		}
		if q.Name != tc.name {
			t.Fatalf("Parse(%q).Name=%q want=%q", tc.in, q.Name, tc.name)
		}
		if q.Skills != tc.skills {
			t.Fatalf("Parse(%q).Skills=%+v want=%+v", tc.in, q.Skills, tc.skills)
		}
	}
}

func TestParseNoName(t *testing.T) {
	for _, in := range []string{"", "   ", "12345", "5/4/3", "!!!", "a"} {
		if q, ok := Parse(in); ok {
			t.Fatalf("Parse(%q) = %+v, want no match", in, q)
		}
	}
}

func TestParseDefaultsSkillsToZero(t *testing.T) {
	q, ok := Parse("hobgoblin ii")
	if !ok {
		t.Fatal("expected a match")
	}
	if q.Skills != (blueprint.SkillLevels{}) {
		t.Fatalf("expected zero skills, got %+v", q.Skills)
	}
}
