package player

// levelThresholds[i] is the minimum total score for level i+1.
var levelThresholds = []int{0, 100, 250, 500, 1000, 2000, 5000}

// LevelForScore maps a total score onto the level ladder.
func LevelForScore(totalScore int) int {
	level := 1
	for i, min := range levelThresholds {
		if totalScore >= min {
			level = i + 1
		}
	}
	return level
}
