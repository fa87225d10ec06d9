package config

import "fmt"

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// ParseDifficulty converts a flag value to a preset. Empty means normal.
func ParseDifficulty(s string) (DifficultyPreset, error) {
	switch DifficultyPreset(s) {
	case "", DifficultyNormal:
		return DifficultyNormal, nil
	case DifficultyEasy, DifficultyHard:
		return DifficultyPreset(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, normal or hard)", s)
}

// ApplyDifficultyPreset adjusts the countdown and movement speed of a level.
// Normal leaves the level untouched.
func ApplyDifficultyPreset(level *LevelConfig, preset DifficultyPreset) {
	switch preset {
	case DifficultyEasy:
		level.StartingTime += level.StartingTime / 2
		level.Speed *= 1.2
	case DifficultyHard:
		level.StartingTime = max(1, level.StartingTime*7/10)
		level.CaptureTolerance = max(1, level.CaptureTolerance*2/3)
	}
}
