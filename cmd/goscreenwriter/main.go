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
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"goscreenwriter/internal/config"
	"goscreenwriter/internal/crash"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/version"
)

var CLI struct {
	Version VersionCmd  `cmd:"" help:"Print version information"`
	Init    InitCmd     `cmd:"" help:"Create a new screenplay project"`
	Import  ImportCmd   `cmd:"" help:"Import a plain-text screenplay into a project"`
	Check   CheckCmd    `cmd:"" help:"Spell-check every paragraph of a project"`
	Segment SegmentCmd  `cmd:"" help:"Split text into script runs and show their fonts"`
	Open    OpenCmd     `cmd:"" help:"Load a project through the editor binder and print a summary"`
	Export  ExportCmd   `cmd:"" help:"Write the screenplay as a laid out plain-text draft"`
	Clip    ClipGroup   `cmd:"" help:"Copy and paste typed paragraphs between scenes"`
	Styles  StylesGroup `cmd:"" help:"Format pack operations"`
}

// env is shared by every command.
type env struct {
	cfg config.AppConfig
	// ph is filled in by commands that open a project so a panic can autosave it.
	ph *storage.ProjectHandle
}

// adopt makes h the project the crash handler autosaves.
func (e *env) adopt(h *storage.ProjectHandle) { *e.ph = *h }

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("Go Screenwriter %s\n", version.String())
	return nil
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}

	e := &env{cfg: cfg, ph: &storage.ProjectHandle{}}
	defer crash.Recover(e.ph)

	ctx := kong.Parse(&CLI,
		kong.Name("goscreenwriter"),
		kong.Description("Go Screenwriter - screenplay editing core"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Bind(e),
	)
	l.Debug("start", slog.String("command", ctx.Command()))
	if err := ctx.Run(); err != nil {
		l.Error("command failed", slog.String("command", ctx.Command()), slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
