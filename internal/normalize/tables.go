package normalize

// DefaultHyphenations maps space separated compounds to their canonical
// hyphenated spelling. Unspaced variants ("hiphop") are matched too.
//
//nolint:gochecknoglobals // Static lookup table
var DefaultHyphenations = map[string]string{
	"hip hop":           "hip-hop",
	"lo fi":             "lo-fi",
	"post rock":         "post-rock",
	"post punk":         "post-punk",
	"post metal":        "post-metal",
	"trip hop":          "trip-hop",
	"nu metal":          "nu-metal",
	"j pop":             "j-pop",
	"k pop":             "k-pop",
	"singer songwriter": "singer-songwriter",
	"avant garde":       "avant-garde",
	"synth pop":         "synth-pop",
}

// DefaultMisspellings fixes single tokens.
//
//nolint:gochecknoglobals // Static lookup table
var DefaultMisspellings = map[string]string{
	"progresive":   "progressive",
	"progessive":   "progressive",
	"psychadelic":  "psychedelic",
	"psychedellic": "psychedelic",
	"electonic":    "electronic",
	"eletronic":    "electronic",
	"alterantive":  "alternative",
	"instrumentel": "instrumental",
	"experimantal": "experimental",
	"ambiant":      "ambient",
}

// DefaultAliases maps a whole canonical tag onto another.
//
//nolint:gochecknoglobals // Static lookup table
var DefaultAliases = map[string]string{
	"dnb":         "drum and bass",
	"d&b":         "drum and bass",
	"drum n bass": "drum and bass",
	"drum & bass": "drum and bass",
	"rnb":         "r&b",
	"r and b":     "r&b",
	"idm":         "intelligent dance music",
	"edm":         "electronic dance music",
}

// DefaultDecompositions splits compound tags into atomic tags.
// Fusion genres such as "jazz-funk" stay atomic.
//
//nolint:gochecknoglobals // Static lookup table
var DefaultDecompositions = map[string][]string{
	"rock and pop":         {"rock", "pop"},
	"experimental-ambient": {"experimental", "ambient"},
	"electronic-dance":     {"electronic", "dance"},
	"folk-country":         {"folk", "country"},
	"metal & hardcore":     {"metal", "hardcore"},
	"soul & funk":          {"soul", "funk"},
}
