package blueprint

import (
	"strings"
	"unicode"
)

// ResourceGroup is an ordered set of resource keys rendered as one section.
type ResourceGroup struct {
	Title string
	Keys  []string
}

// MineralKeys are the refined ore resource keys.
var MineralKeys = []string{
	"tritanium",
	"pyerite",
	"mexallon",
	"isogen",
	"nocxium",
	"zydrine",
	"megacyte",
	"morphite",
}

// PlanetaryKeys are the planetary resource keys.
var PlanetaryKeys = []string{
	"lusteringAlloy",
	"sheenCompound",
	"gleamingAlloy",
	"condensedAlloy",
	"preciousAlloy",
	"motleyCompound",
	"fiberComposite",
	"lucentCompound",
	"opulentCompound",
	"glossyCompound",
	"crystalCompound",
	"darkCompound",
	"baseMetals",
	"heavyMetals",
	"reactiveMetals",
	"nobleMetals",
	"toxicMetals",
	"reactiveGas",
	"nobleGas",
	"industrialFibers",
	"supertensilePlastics",
	"polyaramids",
	"coolant",
	"condensates",
	"constructionBlocks",
	"nanites",
	"silicateGlass",
	"smartfabUnits",
}

// SalvageKeys are the salvaged component keys.
var SalvageKeys = []string{
	"charredMicroCircuit",
	"friedInterfaceCircuit",
	"trippedPowerCircuit",
	"smashedTriggerUnit",
	"damagedCloseinWeaponSystem",
	"scorchedTelemetryProcessor",
	"contaminatedLorentzFluid",
	"conductivePolymer",
	"contaminatedNaniteCompound",
	"defectiveCurrentPump",
}

// ResourceGroups returns the resource sections in render order.
func ResourceGroups() []ResourceGroup {
	return []ResourceGroup{
		{Title: "Minerals", Keys: MineralKeys},
		{Title: "Planetary Resources", Keys: PlanetaryKeys},
		{Title: "Salvage", Keys: SalvageKeys},
	}
}

// AllResourceKeys returns every known resource key in render order.
func AllResourceKeys() []string {
	keys := make([]string, 0, len(MineralKeys)+len(PlanetaryKeys)+len(SalvageKeys))
	keys = append(keys, MineralKeys...)
	keys = append(keys, PlanetaryKeys...)
	keys = append(keys, SalvageKeys...)
	return keys
}

// IsResourceKey reports whether key is a known resource key.
func IsResourceKey(key string) bool {
	for _, k := range AllResourceKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// DisplayName converts a camelCase resource key into its market display name,
// e.g. "lusteringAlloy" becomes "Lustering Alloy".
func DisplayName(key string) string {
	var b strings.Builder
	startWord := true
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
			startWord = true
		}
		if startWord {
			b.WriteRune(unicode.ToUpper(r))
			startWord = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NameKey folds an item name for lookups: lowercase letters and digits only,
// so "Damaged Close-in Weapon System" and "damagedCloseinWeaponSystem" agree.
func NameKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
