// Package config provides YAML-based configuration for the platformer:
// level tuning, input handling, score sync and server settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the full configuration document.
type Config struct {
	Level  LevelConfig  `yaml:"level"`
	Input  InputConfig  `yaml:"input"`
	Sync   SyncConfig   `yaml:"sync"`
	Server ServerConfig `yaml:"server"`
}

// LevelConfig defines one level of the minigame.
// Distances are world units; the renderer scales them to the terminal.
type LevelConfig struct {
	WorldWidth       float64        `yaml:"world_width"`
	WorldHeight      float64        `yaml:"world_height"`
	StartX           float64        `yaml:"start_x"`
	StartY           float64        `yaml:"start_y"`
	Speed            float64        `yaml:"speed"`             // World units per millisecond
	CaptureTolerance int            `yaml:"capture_tolerance"` // Width of the capture band left of an item
	ScorePerItem     int            `yaml:"score_per_item"`
	TargetItems      int            `yaml:"target_items"`
	StartingTime     int            `yaml:"starting_time"` // Seconds on the countdown
	ItemPositions    []ItemPosition `yaml:"item_positions"`
}

// ItemPosition is one scripted spawn point of the collectible item.
type ItemPosition struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// InputConfig controls the local frame loop and key handling.
type InputConfig struct {
	FPS            int `yaml:"fps"`
	ReleaseAfterMs int `yaml:"release_after_ms"` // Key-up emulation window for terminals
}

// ReleaseAfter returns the key release window as a duration.
func (c InputConfig) ReleaseAfter() time.Duration {
	return time.Duration(c.ReleaseAfterMs) * time.Millisecond
}

// SyncConfig controls the score sync client.
type SyncConfig struct {
	ServerURL    string `yaml:"server_url"` // Empty disables syncing
	Topic        string `yaml:"topic"`
	Token        string `yaml:"token"`
	AckTimeoutMs int    `yaml:"ack_timeout_ms"`
}

// AckTimeout returns how long a push waits for its acknowledgement.
func (c SyncConfig) AckTimeout() time.Duration {
	return time.Duration(c.AckTimeoutMs) * time.Millisecond
}

// Enabled reports whether a server is configured.
func (c SyncConfig) Enabled() bool {
	return c.ServerURL != ""
}

// ServerConfig controls the score broadcast server.
type ServerConfig struct {
	HTTPAddr       string `yaml:"http_addr"`
	SSHAddr        string `yaml:"ssh_addr"` // Empty disables SSH play
	HostKeyPath    string `yaml:"host_key_path"`
	DBPath         string `yaml:"db_path"`
	IdleTimeoutMin int    `yaml:"idle_timeout_min"`
	MemberBuffer   int    `yaml:"member_buffer"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
}

// IdleTimeout returns the SSH idle timeout.
func (c ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMin) * time.Minute
}

// WriteTimeout returns the per-frame socket write deadline.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	var errs []error

	l := c.Level
	if l.WorldWidth <= 0 || l.WorldHeight <= 0 {
		errs = append(errs, errors.New("level: world dimensions must be positive"))
	}
	if l.Speed <= 0 {
		errs = append(errs, errors.New("level: speed must be positive"))
	}
	if l.CaptureTolerance < 0 {
		errs = append(errs, errors.New("level: capture_tolerance must not be negative"))
	}
	if l.ScorePerItem <= 0 {
		errs = append(errs, errors.New("level: score_per_item must be positive"))
	}
	if l.TargetItems <= 0 {
		errs = append(errs, errors.New("level: target_items must be positive"))
	}
	if l.StartingTime <= 0 {
		errs = append(errs, errors.New("level: starting_time must be positive"))
	}
	if len(l.ItemPositions) < l.TargetItems {
		errs = append(errs, fmt.Errorf("level: %d item_positions cannot reach target_items %d",
			len(l.ItemPositions), l.TargetItems))
	}
	for i, p := range l.ItemPositions {
		if float64(p.X) < 0 || float64(p.X) > l.WorldWidth {
			errs = append(errs, fmt.Errorf("level: item_positions[%d].x=%d outside world", i, p.X))
		}
	}

	if c.Input.FPS <= 0 {
		errs = append(errs, errors.New("input: fps must be positive"))
	}
	if c.Sync.AckTimeoutMs <= 0 {
		errs = append(errs, errors.New("sync: ack_timeout_ms must be positive"))
	}
	if c.Sync.Topic != "" && !strings.HasPrefix(c.Sync.Topic, "score:") {
		errs = append(errs, fmt.Errorf("sync: topic %q must look like score:<game>", c.Sync.Topic))
	}

	return errors.Join(errs...)
}
