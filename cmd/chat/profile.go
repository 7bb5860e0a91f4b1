package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	modePostgres = "postgres"
	modeMemory   = "memory"
)

// Profile is the per-user client configuration in ~/.talentchat/config.toml.
// Service settings still come from the environment.
type Profile struct {
	User  ProfileUser  `toml:"user"`
	Store ProfileStore `toml:"store"`
	App   ProfileApp   `toml:"app"`
}

type ProfileUser struct {
	Identity string `toml:"identity"`
}

type ProfileStore struct {
	Mode string `toml:"mode"`
	DSN  string `toml:"dsn"`
}

type ProfileApp struct {
	BaseURL string `toml:"base_url"`
}

func profileDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".talentchat")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	return dir, nil
}

func profilePath() (string, error) {
	dir, err := profileDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadProfile returns a zero Profile when the file does not exist yet.
func loadProfile() (*Profile, error) {
	path, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Profile{}, nil
		}
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	return &p, nil
}

func saveProfile(p *Profile) error {
	path, err := profilePath()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}

// setProfileValue sets a field by its dotted name, e.g. "user.identity".
func setProfileValue(p *Profile, key, value string) error {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("key must use dot notation: section.field (e.g. user.identity)")
	}
	section, field := parts[0], parts[1]

	switch section {
	case "user":
		switch field {
		case "identity":
			p.User.Identity = value
		default:
			return fmt.Errorf("unknown field %q in section [user]", field)
		}
	case "store":
		switch field {
		case "mode":
			if value != modePostgres && value != modeMemory {
				return fmt.Errorf("store.mode must be %q or %q", modePostgres, modeMemory)
			}
			p.Store.Mode = value
		case "dsn":
			p.Store.DSN = value
		default:
			return fmt.Errorf("unknown field %q in section [store]", field)
		}
	case "app":
		switch field {
		case "base_url":
			p.App.BaseURL = value
		default:
			return fmt.Errorf("unknown field %q in section [app]", field)
		}
	default:
		return fmt.Errorf("unknown config section %q (valid: user, store, app)", section)
	}
	return nil
}
