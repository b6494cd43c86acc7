package engine

import "github.com/rsned/blueprint-cost-server/pkg/blueprint"

const (
	baseMaterialMod   = 1.5
	basicMatPerLvl    = 0.06
	advancedMatPerLvl = 0.04
	expertMatPerLvl   = 0.01
)

// timeModPerLvl is the production time reduction at levels 1..5.
var timeModPerLvl = [blueprint.MaxSkillLevel]float64{0, 0.05, 0.10, 0.15, 0.20}

// SkillModifier converts skill levels into material and time multipliers.
// Levels outside [0, 5] are clamped.
func SkillModifier(levels blueprint.SkillLevels) blueprint.Modifiers {
	l := levels.Clamp()

	// Explicit float64 conversions keep each product rounded on its own so
	// results do not depend on FMA availability.
	material := baseMaterialMod
	material -= float64(float64(l.Basic) * basicMatPerLvl)
	material -= float64(float64(l.Advanced) * advancedMatPerLvl)
	material -= float64(float64(l.Expert) * expertMatPerLvl)

	return blueprint.Modifiers{
		Material: material,
		Time:     1 - timeReduction(l.Basic) - timeReduction(l.Advanced) - timeReduction(l.Expert),
	}
}

func timeReduction(level int) float64 {
	if level <= 0 {
		return 0
	}
	return timeModPerLvl[level-1]
}
