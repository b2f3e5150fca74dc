package parser

// The tables in this file are the reviewable configuration for descriptor
// parsing: which programs exist, how raw name variants canonicalize, and
// which week spans named session forms imply. They are data, not code, so
// season-to-season changes stay auditable.

// ProgramOrder fixes the display order of every known program.
var ProgramOrder = []string{
	// Early childhood
	"Infants", "Toddler", "PK2", "PK3", "PK4",
	// Variety
	"Tsofim", "Tsofim Children's Trust",
	"Yeladim", "Yeladim Children's Trust",
	"Chaverim", "Chaverim Children's Trust",
	"Giborim", "Giborim Children's Trust",
	"Madli-Teen", "Madli-Teen Children's Trust",
	"Koach Yeladim", "Koach Chaverim",
	"Koach Giborim", "Koach Madli-Teen",
	"Teen Travel", "Teen Travel: Epic Trip to Orlando",
	// Sports
	"Basketball", "Flag Football", "Soccer",
	"Sports Academy 1", "Sports Academy 2",
	"Tennis Academy", "Tennis Academy - Half Day",
	"Swim Academy", "Tiny Tumblers Gymnastics",
	"Recreational Gymnastics", "Competitive Gymnastics Team",
	"Volleyball", "MMA Camp",
	// Performing arts
	"Teeny Tiny Tnuah", "Tiny Tnuah 1", "Tiny Tnuah 2",
	"Tnuah 1", "Tnuah 2", "Extreme Tnuah",
	"Art Exploration", "Music Camp", "Theater Camp",
	// Teens
	"Madatzim 9th Grade", "Madatzim 10th Grade",
	// Special needs
	"OMETZ",
}

// CategoryOrder fixes the display order of reporting categories.
var CategoryOrder = []string{
	"ECA Camps",
	"Variety Camps",
	"Sports Camps",
	"Performing Arts Camps",
	"Teens Camps",
	"Special Needs Camps",
	"Other",
}

// CategoryPrograms maps each category to its member programs. A program
// belongs to exactly one category.
var CategoryPrograms = map[string][]string{
	"ECA Camps": {"Infants", "Toddler", "PK2", "PK3", "PK4"},
	"Variety Camps": {
		"Tsofim", "Tsofim Children's Trust",
		"Yeladim", "Yeladim Children's Trust",
		"Chaverim", "Chaverim Children's Trust",
		"Giborim", "Giborim Children's Trust",
		"Madli-Teen", "Madli-Teen Children's Trust",
		"Koach Yeladim", "Koach Chaverim",
		"Koach Giborim", "Koach Madli-Teen",
		"Teen Travel", "Teen Travel: Epic Trip to Orlando",
	},
	"Sports Camps": {
		"Basketball", "Flag Football", "Soccer",
		"Sports Academy 1", "Sports Academy 2",
		"Tennis Academy", "Tennis Academy - Half Day",
		"Swim Academy", "Tiny Tumblers Gymnastics",
		"Recreational Gymnastics", "Competitive Gymnastics Team",
		"Volleyball", "MMA Camp",
	},
	"Performing Arts Camps": {
		"Teeny Tiny Tnuah", "Tiny Tnuah 1", "Tiny Tnuah 2",
		"Tnuah 1", "Tnuah 2", "Extreme Tnuah",
		"Art Exploration", "Music Camp", "Theater Camp",
	},
	"Teens Camps":        {"Madatzim 9th Grade", "Madatzim 10th Grade"},
	"Special Needs Camps": {"OMETZ"},
}

// NameAliases canonicalizes raw program-name variants coming off the wire.
// Apostrophe spellings and trust-prefixed forms all collapse into one
// bucket per logical program.
var NameAliases = map[string]string{
	"Teeny Tiny Tnuah":  "Teeny Tiny Tnuah",
	"Teeny Tiny T'nuah": "Teeny Tiny Tnuah",
	"Tiny Tnuah 1":      "Tiny Tnuah 1",
	"Tiny T'nuah 1":     "Tiny Tnuah 1",
	"Tiny Tnuah 2":      "Tiny Tnuah 2",
	"Tiny T'nuah 2":     "Tiny Tnuah 2",
	"Tnuah 1":           "Tnuah 1",
	"T'nuah 1":          "Tnuah 1",
	"Tnuah 2":           "Tnuah 2",
	"T'nuah 2":          "Tnuah 2",
	"Extreme Tnuah":     "Extreme Tnuah",
	"Extreme T'nuah":    "Extreme Tnuah",
	"Ometz":             "OMETZ",
	"OMETZ":             "OMETZ",

	"Children's Trust: Tsofim":     "Tsofim Children's Trust",
	"Children's Trust: Yeladim":    "Yeladim Children's Trust",
	"Children's Trust: Chaverim":   "Chaverim Children's Trust",
	"Children's Trust: Giborim":    "Giborim Children's Trust",
	"Children's Trust: Madli-Teen": "Madli-Teen Children's Trust",

	// Trust cohorts funded through the Koach grant enroll under a
	// "(Koach)" suffix but report with the plain trust cohort.
	"Children's Trust: Yeladim (Koach)":    "Yeladim Children's Trust",
	"Children's Trust: Chaverim (Koach)":   "Chaverim Children's Trust",
	"Children's Trust: Giborim (Koach)":    "Giborim Children's Trust",
	"Children's Trust: Madli-Teen (Koach)": "Madli-Teen Children's Trust",

	// Standalone Koach sessions stay their own programs. Madliteen is the
	// upstream spelling.
	"Koach Madliteen": "Koach Madli-Teen",
}

// DefaultGoals carries the season FTE goal per program.
var DefaultGoals = map[string]float64{
	"Infants":                           6,
	"Toddler":                           12,
	"PK2":                               26,
	"PK3":                               36,
	"PK4":                               40,
	"Tsofim":                            20,
	"Tsofim Children's Trust":           8,
	"Yeladim":                           28,
	"Yeladim Children's Trust":          29,
	"Chaverim":                          24,
	"Chaverim Children's Trust":         55,
	"Giborim":                           10,
	"Giborim Children's Trust":          45,
	"Madli-Teen":                        10,
	"Madli-Teen Children's Trust":       28,
	"Koach Yeladim":                     0,
	"Koach Chaverim":                    0,
	"Koach Giborim":                     0,
	"Koach Madli-Teen":                  0,
	"Teen Travel":                       15,
	"Teen Travel: Epic Trip to Orlando": 15,
	"Basketball":                        20,
	"Flag Football":                     12,
	"Soccer":                            30,
	"Sports Academy 1":                  15,
	"Sports Academy 2":                  15,
	"Tennis Academy":                    10,
	"Tennis Academy - Half Day":         10,
	"Swim Academy":                      12,
	"Tiny Tumblers Gymnastics":          15,
	"Recreational Gymnastics":           30,
	"Competitive Gymnastics Team":       10,
	"Volleyball":                        10,
	"MMA Camp":                          30,
	"Teeny Tiny Tnuah":                  10,
	"Tiny Tnuah 1":                      15,
	"Tiny Tnuah 2":                      15,
	"Tnuah 1":                           12,
	"Tnuah 2":                           12,
	"Extreme Tnuah":                     10,
	"Art Exploration":                   30,
	"Music Camp":                        10,
	"Theater Camp":                      20,
	"Madatzim 9th Grade":                10,
	"Madatzim 10th Grade":               10,
	"OMETZ":                             0,
}

// ExcludedFromGoalTotal lists programs left out of the season goal sum.
var ExcludedFromGoalTotal = map[string]struct{}{
	"MMA Camp": {},
	"Infants":  {},
	"Toddler":  {},
	"PK2":      {},
	"PK3":      {},
	"PK4":      {},
}

// DefaultWeeksOffered is the number of weeks each program runs, used for
// FTE math. Programs not listed default to nine.
var DefaultWeeksOffered = map[string]int{
	"Infants": 9, "Toddler": 9, "PK2": 9, "PK3": 9, "PK4": 9,
	"Tsofim": 9, "Tsofim Children's Trust": 8,
	"Yeladim": 9, "Yeladim Children's Trust": 8,
	"Chaverim": 9, "Chaverim Children's Trust": 8,
	"Giborim": 9, "Giborim Children's Trust": 8,
	"Madli-Teen": 9, "Madli-Teen Children's Trust": 8,
	"Koach Yeladim": 4, "Koach Chaverim": 8,
	"Koach Giborim": 4, "Koach Madli-Teen": 6,
	"Teen Travel": 7, "Teen Travel: Epic Trip to Orlando": 1,
	"Basketball": 9, "Flag Football": 9, "Soccer": 9,
	"Sports Academy 1": 8, "Sports Academy 2": 8,
	"Tennis Academy": 9, "Tennis Academy - Half Day": 9,
	"Swim Academy": 8, "Tiny Tumblers Gymnastics": 9,
	"Recreational Gymnastics": 9, "Competitive Gymnastics Team": 9,
	"Volleyball": 9, "MMA Camp": 9,
	"Teeny Tiny Tnuah": 4, "Tiny Tnuah 1": 8, "Tiny Tnuah 2": 8,
	"Tnuah 1": 8, "Tnuah 2": 8, "Extreme Tnuah": 8,
	"Art Exploration": 8, "Music Camp": 1, "Theater Camp": 8,
	"Madatzim 9th Grade": 9, "Madatzim 10th Grade": 9,
	"OMETZ": 9,
}

// FullSessionWeeks maps programs sold as a named "Full Session" span to
// the literal weeks that span covers.
var FullSessionWeeks = map[string][]int{
	"Teeny Tiny Tnuah": {1, 2, 3, 4},
}

// TrustDefaultWeeks is the implied span for trust/cohort descriptors that
// carry no week token at all.
var TrustDefaultWeeks = []int{1, 2, 3, 4, 5, 6, 7, 8}

// DefaultGlobalSettings seeds the season-wide key/value settings on an
// empty database. total_goal is the season camper-week target.
var DefaultGlobalSettings = map[string]string{
	"total_goal":   "750",
	"revenue_goal": "0",
}

// SplitKeywords are the lowercase prefixes that may legitimately start a
// new descriptor after a comma or "and". Splitting only happens ahead of
// one of these, so commas inside program names survive intact.
var SplitKeywords = []string{
	"week", "eca", "tiny", "teeny", "theater", "children", "koach",
	"m &", "madatzim", "lit",
}

// CategoryFor returns the category a program belongs to, or "Other".
func CategoryFor(program string) string {
	for _, cat := range CategoryOrder {
		for _, p := range CategoryPrograms[cat] {
			if p == program {
				return cat
			}
		}
	}
	return "Other"
}
