/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"goscreenwriter/internal/domain"
)

func TestManifestConformsToSchema(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, sampleScreenplay())
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	data, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(manifestSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("manifest does not conform to schema")
	}
}

func TestEmptyScreenplayConformsToSchema(t *testing.T) {
	ph, err := InitProject(t.TempDir(), &domain.Screenplay{Title: "Empty"})
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	data, _ := os.ReadFile(ph.ManifestPath)
	if err := ValidateManifest(data); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateManifestErrors(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"missing title": `{"scenes": []}`,
		"bad type":      `{"title": "t", "scenes": [{"id": "a", "paragraphs": [{"type": "panel", "text": ""}]}]}`,
		"empty id":      `{"title": "t", "scenes": [{"id": "", "paragraphs": []}]}`,
	}
	for name, doc := range cases {
		if err := ValidateManifest([]byte(doc)); !errors.Is(err, ErrInvalidManifest) {
			t.Errorf("%s: expected ErrInvalidManifest, got %v", name, err)
		}
	}
}
