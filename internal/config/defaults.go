package config

import (
	_ "embed"
)

//go:embed defaults/platformer.yaml
var defaultYAML []byte

// DefaultConfig returns the built-in configuration.
// It mirrors defaults/platformer.yaml and is used when that fails to parse.
func DefaultConfig() Config {
	return Config{
		Level: DefaultLevel(),
		Input: InputConfig{
			FPS:            60,
			ReleaseAfterMs: 500,
		},
		Sync: SyncConfig{
			Topic:        "score:platformer",
			AckTimeoutMs: 5000,
		},
		Server: ServerConfig{
			HTTPAddr:       ":4000",
			DBPath:         "~/.platformer/platformer.db",
			IdleTimeoutMin: 30,
			MemberBuffer:   64,
			WriteTimeoutMs: 10000,
		},
	}
}

// DefaultLevel returns the standard ten-item level.
func DefaultLevel() LevelConfig {
	return LevelConfig{
		WorldWidth:       600,
		WorldHeight:      400,
		StartX:           50,
		StartY:           300,
		Speed:            0.25,
		CaptureTolerance: 35,
		ScorePerItem:     100,
		TargetItems:      10,
		StartingTime:     10,
		ItemPositions: []ItemPosition{
			{X: 500, Y: 300},
			{X: 150, Y: 300},
			{X: 340, Y: 300},
			{X: 60, Y: 300},
			{X: 450, Y: 300},
			{X: 250, Y: 300},
			{X: 560, Y: 300},
			{X: 100, Y: 300},
			{X: 400, Y: 300},
			{X: 200, Y: 300},
		},
	}
}
