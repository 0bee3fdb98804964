package demonlistdomain

// SeedLevel is one entry of the starter list.
type SeedLevel struct {
	Name            string
	Creator         string
	DifficultyScore float64
}

// DefaultPlayers is the roster a fresh list starts with.
var DefaultPlayers = []string{"judah", "whitman", "jack"}

// DefaultLevels is the starter list, hardest first.
var DefaultLevels = []SeedLevel{
	{"Tartarus", "Riot", 25.56},
	{"Acheron", "Ryamu", 24.89},
	{"Silent clubstep", "Sailent", 23.45},
	{"Zodiac", "Xaro", 22.10},
	{"Sakupen Circles", "Diamond", 21.78},
	{"Slaughterhouse", "Icedcave", 21.23},
	{"Abyss of Darkness", "Exen", 20.67},
	{"Tidal Wave", "OniLink", 20.12},
	{"Limbo", "Mindcap", 19.58},
	{"Avernus", "Xanii", 19.05},
	{"Kocmoc", "Ggb0y", 18.54},
	{"Firework", "Trick", 18.04},
	{"Nullscapes", "Hydrogen", 17.56},
	{"Aerial Gleam", "Luqualizer", 17.09},
	{"Kyouki", "Maceira", 16.64},
	{"Yatagarasu", "TrusTa", 16.20},
	{"Bloodbath", "Riot", 15.78},
	{"Arcturus", "Maxfs919", 15.37},
	{"Cataclysm", "Ggb0y", 14.98},
	{"Sonic Wave", "Cyclic", 14.60},
	{"Phobos", "KrmaL", 14.24},
	{"Allegiance", "Pennutoh", 13.89},
	{"Crimson Planet", "Darwin", 13.56},
	{"Black Blizzard", "Viprin", 13.24},
	{"Congregation", "Presta", 12.93},
}
