package submission

// gradeScale maps inclusive lower percentage bounds to letter grades,
// highest first. Anything below 60 is an F.
var gradeScale = []struct {
	min    float64
	letter string
}{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{60, "D"},
}

// LetterGrade maps a percentage to its letter grade.
func LetterGrade(percentage float64) string {
	for _, g := range gradeScale {
		if percentage >= g.min {
			return g.letter
		}
	}
	return "F"
}

// Percentage derives the grade percentage from awarded points and the
// assignment total.
func Percentage(points, totalPoints int) float64 {
	if totalPoints <= 0 {
		return 0
	}
	return float64(points) / float64(totalPoints) * 100
}
