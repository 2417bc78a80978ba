package model

import "strings"

// equipmentPrices lists CS2 shop prices keyed by normalized item name.
var equipmentPrices = map[string]int{
	// pistols
	"glock":        200,
	"glock18":      200,
	"usps":         200,
	"usp":          200,
	"hkp2000":      200,
	"p2000":        200,
	"p250":         300,
	"elite":        300,
	"dualberettas": 300,
	"fiveseven":    500,
	"tec9":         500,
	"cz75a":        500,
	"cz75auto":     500,
	"deagle":       700,
	"deserteagle":  700,
	"revolver":     600,
	"r8revolver":   600,

	// smgs
	"mac10":   1050,
	"mp9":     1250,
	"mp7":     1500,
	"mp5sd":   1500,
	"ump45":   1200,
	"p90":     2350,
	"bizon":   1400,
	"ppbizon": 1400,

	// heavy
	"nova":     1050,
	"xm1014":   2000,
	"sawedoff": 1100,
	"mag7":     1300,
	"m249":     5200,
	"negev":    1700,

	// rifles
	"galilar": 1800,
	"galil":   1800,
	"famas":   2050,
	"ak47":    2700,
	"m4a4":    3100,
	"m4a1":    3100,
	"m4a1s":   2900,
	"sg553":   3000,
	"sg556":   3000,
	"aug":     3300,
	"ssg08":   1700,
	"awp":     4750,
	"g3sg1":   5000,
	"scar20":  5000,

	// gear
	"kevlar":       650,
	"kevlarvest":   650,
	"vest":         650,
	"assaultsuit":  1000,
	"vesthelm":     1000,
	"kevlarhelmet": 1000,
	"defusekit":    400,
	"defuser":      400,
	"taser":        200,
	"zeus":         200,
	"zeusx27":      200,

	// grenades
	"flashbang":         200,
	"hegrenade":         300,
	"smokegrenade":      300,
	"molotov":           400,
	"incgrenade":        500,
	"incendiarygrenade": 500,
	"decoy":             50,
	"decoygrenade":      50,
}

// NormalizeItem lowercases an item name and strips the "weapon_"/"item_"
// prefixes and any separators, so "weapon_ak47", "AK-47" and "ak47" agree,
// as do "Kevlar + Helmet" and "kevlarhelmet".
func NormalizeItem(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "weapon_")
	s = strings.TrimPrefix(s, "item_")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.', '+':
			return -1
		}
		return r
	}, s)
}

// EquipmentValue returns the shop price of an item, 0 for unknown names.
func EquipmentValue(name string) int {
	return equipmentPrices[NormalizeItem(name)]
}

// IsUtilityDamage reports whether damage dealt with weapon counts as utility
// damage (HE grenades and fire).
func IsUtilityDamage(weapon string) bool {
	switch NormalizeItem(weapon) {
	case "hegrenade", "molotov", "incgrenade", "incendiarygrenade", "inferno", "incendiary":
		return true
	}
	return false
}

// IsFlashbang reports whether the item is a flashbang.
func IsFlashbang(item string) bool {
	return NormalizeItem(item) == "flashbang"
}
