package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config for roomwatch. Flags win over the
// file; the file wins over built-in defaults.
type fileConfig struct {
	ServerURL  string `yaml:"server_url"`
	RoomID     string `yaml:"room_id"`
	PlayerName string `yaml:"player_name"`
	Role       string `yaml:"role"`
	Variant    string `yaml:"variant"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	if path == "" {
		return &fileConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// apply fills any flag left at its zero/default value from the file.
func (c *fileConfig) apply(serverURL, roomID, playerName, role, variant *string) {
	if c.ServerURL != "" && *serverURL == "http://localhost:8000" {
		*serverURL = c.ServerURL
	}
	if c.RoomID != "" && *roomID == "" {
		*roomID = c.RoomID
	}
	if c.PlayerName != "" && *playerName == "" {
		*playerName = c.PlayerName
	}
	if c.Role != "" && *role == "player" {
		*role = c.Role
	}
	if c.Variant != "" && *variant == "place_bet" {
		*variant = c.Variant
	}
}
