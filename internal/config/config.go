/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type EditorConfig struct {
	SpellCheck         bool `yaml:"spell_check"`
	LiveSpellCheck     bool `yaml:"live_spell_check"`
	RehighlightDelayMs int  `yaml:"rehighlight_delay_ms"`
	SpellCheckDelayMs  int  `yaml:"spell_check_delay_ms"`
	FontPointSizeDelta int  `yaml:"font_point_size_delta"`
}

type SpellingConfig struct {
	Dictionary string `yaml:"dictionary"` // word list path; empty uses the built-in list
	FuzzyDepth int    `yaml:"fuzzy_depth"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int               `yaml:"config_version"`
	Editor        EditorConfig      `yaml:"editor"`
	Spelling      SpellingConfig    `yaml:"spelling"`
	Languages     map[string]string `yaml:"languages,omitempty"` // language name -> font file
	Logging       LoggingConfig     `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			SpellCheck:         true,
			LiveSpellCheck:     true,
			RehighlightDelayMs: 100,
			SpellCheckDelayMs:  500,
		},
		Spelling: SpellingConfig{FuzzyDepth: 2},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvSpellCheck       = "GSW_SPELL_CHECK"
	EnvLiveSpellCheck   = "GSW_LIVE_SPELL_CHECK"
	EnvRehighlightDelay = "GSW_REHIGHLIGHT_DELAY_MS"
	EnvDictionary       = "GSW_DICTIONARY"
	EnvLogLevel         = "GSW_LOG_LEVEL"
	EnvLogFormat        = "GSW_LOG_FORMAT"
	EnvLogSource        = "GSW_LOG_SOURCE"
	EnvLogFile          = "GSW_LOG_FILE"
	// EnvConfigPath points Load/Save at an explicit file instead of the per-user location.
	EnvConfigPath = "GSW_CONFIG"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoScreenWriter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoScreenWriter")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "goscreenwriter")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is reported as an error alongside the defaults-plus-env config.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			parseErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, parseErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Editor.SpellCheck = src.Editor.SpellCheck
	dst.Editor.LiveSpellCheck = src.Editor.LiveSpellCheck
	if src.Editor.RehighlightDelayMs > 0 {
		dst.Editor.RehighlightDelayMs = src.Editor.RehighlightDelayMs
	}
	if src.Editor.SpellCheckDelayMs > 0 {
		dst.Editor.SpellCheckDelayMs = src.Editor.SpellCheckDelayMs
	}
	dst.Editor.FontPointSizeDelta = src.Editor.FontPointSizeDelta
	if strings.TrimSpace(src.Spelling.Dictionary) != "" {
		dst.Spelling.Dictionary = strings.TrimSpace(src.Spelling.Dictionary)
	}
	if src.Spelling.FuzzyDepth > 0 {
		dst.Spelling.FuzzyDepth = src.Spelling.FuzzyDepth
	}
	if len(src.Languages) > 0 {
		dst.Languages = make(map[string]string, len(src.Languages))
		for k, v := range src.Languages {
			dst.Languages[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvSpellCheck)); v != "" {
		cfg.Editor.SpellCheck = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLiveSpellCheck)); v != "" {
		cfg.Editor.LiveSpellCheck = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvRehighlightDelay)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.RehighlightDelayMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDictionary)); v != "" {
		cfg.Spelling.Dictionary = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "editor.spell_check":
		env = EnvSpellCheck
	case "editor.live_spell_check":
		env = EnvLiveSpellCheck
	case "editor.rehighlight_delay_ms":
		env = EnvRehighlightDelay
	case "spelling.dictionary":
		env = EnvDictionary
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// RehighlightDelay returns the rehighlight coalescing window, falling back to the default.
func (e EditorConfig) RehighlightDelay() time.Duration {
	if e.RehighlightDelayMs <= 0 {
		return time.Duration(Defaults().Editor.RehighlightDelayMs) * time.Millisecond
	}
	return time.Duration(e.RehighlightDelayMs) * time.Millisecond
}

// SpellCheckDelay returns the debounce applied before a scheduled spell check is dispatched.
func (e EditorConfig) SpellCheckDelay() time.Duration {
	if e.SpellCheckDelayMs <= 0 {
		return time.Duration(Defaults().Editor.SpellCheckDelayMs) * time.Millisecond
	}
	return time.Duration(e.SpellCheckDelayMs) * time.Millisecond
}
