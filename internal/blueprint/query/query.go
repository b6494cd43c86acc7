// Package query extracts a blueprint name and manufacturing skill levels from
// free-text chat input such as "hobgoblin ii 5/4/3".
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rsned/blueprint-cost-server/pkg/blueprint"
)

var (
	// Optional "mk<digit>" tier marker, then letters and spaces ending in a letter.
	namePattern = regexp.MustCompile(`(?:mk\s?\d)?[a-z ]+[a-z]`)
	// Rank qualifier directly after the name, e.g. "afterburner 2".
	rankPattern = regexp.MustCompile(`^ ([0-9]+)`)
	// Skill suffix separated by whitespace or a dash, e.g. " 5/4/3" or " - 5".
	skillPattern = regexp.MustCompile(`^(?:\s+|\s*-\s*)(\d+(?:/\d+)*)`)
)

// Query is the parsed form of a lookup request.
type Query struct {
	Name   string                `json:"name"`
	Skills blueprint.SkillLevels `json:"skills"`
}

// Parse extracts the first name phrase and its optional skill suffix from
// text. It reports false when the text holds no name phrase.
func Parse(text string) (Query, bool) {
	text = strings.ToLower(text)

	loc := namePattern.FindStringIndex(text)
	if loc == nil {
		return Query{}, false
	}
	name := text[loc[0]:loc[1]]
	rest := text[loc[1]:]

	// A trailing integer belongs to the name unless a "/" follows it, in
	// which case it starts the skill suffix.
	if m := rankPattern.FindStringSubmatch(rest); m != nil {
		after := rest[len(m[0]):]
		if !strings.HasPrefix(after, "/") {
			name += " " + m[1]
			rest = after
		}
	}

	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return Query{}, false
	}

	q := Query{Name: name}
	if m := skillPattern.FindStringSubmatch(rest); m != nil {
		q.Skills = parseSkills(m[1])
	}
	return q, true
}

// parseSkills reads up to three slash-separated levels. Missing or
// unparseable levels are 0 and all levels are clamped to the trainable range.
func parseSkills(s string) blueprint.SkillLevels {
	var levels [3]int
	for i, part := range strings.Split(s, "/") {
		if i >= len(levels) {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		levels[i] = n
	}
	return blueprint.SkillLevels{
		Basic:    levels[0],
		Advanced: levels[1],
		Expert:   levels[2],
	}.Clamp()
}
