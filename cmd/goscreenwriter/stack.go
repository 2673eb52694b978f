/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"

	"goscreenwriter/internal/binder"
	"goscreenwriter/internal/config"
	"goscreenwriter/internal/format"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/spell"
	"goscreenwriter/internal/stylepack"
	"goscreenwriter/internal/translit"
)

// newRules returns the default format rules adjusted by the editor config.
func newRules(cfg config.AppConfig) *format.Rules {
	r := format.NewRules()
	if d := cfg.Editor.FontPointSizeDelta; d != 0 {
		r.SetFontPointSizeDelta(d)
	}
	return r
}

// projectRules layers the project's format file over newRules.
func projectRules(cfg config.AppConfig, root string) (*format.Rules, error) {
	r := newRules(cfg)
	if _, err := stylepack.LoadProjectFormat(root, r); err != nil {
		return nil, err
	}
	return r, nil
}

// newEngine returns a transliteration engine with the configured language fonts loaded.
func newEngine(cfg config.AppConfig) (*translit.Engine, error) {
	e := translit.NewEngine()
	for name, path := range cfg.Languages {
		lang, err := translit.ParseLanguage(name)
		if err != nil {
			return nil, fmt.Errorf("languages: %w", err)
		}
		family, err := e.LoadFontFile(lang, path)
		if err != nil {
			return nil, fmt.Errorf("languages: %s: %w", name, err)
		}
		applog.WithComponent("cli").Debug("font loaded", "language", lang.String(), "family", family)
	}
	return e, nil
}

// newSpellService starts a spell-check worker for the configured dictionary.
// ws may be nil.
func newSpellService(cfg config.AppConfig, ws spell.WordStore) (*spell.Service, error) {
	var checker *spell.DictionaryChecker
	if path := cfg.Spelling.Dictionary; path != "" {
		c, err := spell.LoadDictionary(path, cfg.Spelling.FuzzyDepth)
		if err != nil {
			return nil, err
		}
		checker = c
	} else {
		checker = spell.NewDictionaryChecker(cfg.Spelling.FuzzyDepth)
	}
	var opts []spell.Option
	if ws != nil {
		opts = append(opts, spell.WithWordStore(ws))
	}
	return spell.NewService(checker, opts...), nil
}

// binderConfig maps the editor section onto binder settings.
func binderConfig(cfg config.AppConfig) binder.Config {
	return binder.Config{
		SpellCheck:       cfg.Editor.SpellCheck,
		LiveSpellCheck:   cfg.Editor.LiveSpellCheck,
		RehighlightDelay: cfg.Editor.RehighlightDelay(),
		SpellCheckDelay:  cfg.Editor.SpellCheckDelay(),
	}
}
