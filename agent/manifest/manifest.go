// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

// Package manifest writes the client capacity manifest, the file through
// which the training clients learn which sub-model width they have been
// assigned for the upcoming rounds. The manifest is rendered from a template,
// either the built-in one or a custom file.
package manifest

import (
	"os"
	"path"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
)

// DefaultTemplate renders the manifest as a small YAML document, one entry per
// client index.
const DefaultTemplate = `# Client capacity manifest, generated by the flhet agent. Do not edit.
# Generated at {{ now | date "2006-01-02T15:04:05Z07:00" }}
split_mode: {{ .SplitMode }}
model_mode: {{ .ModelMode }}
num_users: {{ len .Rates }}
clients:
{{- range $i, $rate := .Rates }}
  - index: {{ $i }}
    rate: {{ printf "%g" $rate }}
{{- end }}
`

// Content is the data rendered into the manifest template.
type Content struct {
	SplitMode string
	ModelMode string
	Rates     []float64
}

// Updater is the main type for writing the capacity manifest file using a
// template.
type Updater struct {
	// Loaded template to use for writing the manifest file.
	template *template.Template

	// Path to the manifest file to write.
	ManifestFilePath string
}

// LoadTemplate loads a custom manifest template from file. Sprig functions are
// available in the template.
func (updater *Updater) LoadTemplate(templateFilePath string) error {
	tmpl := template.New(path.Base(templateFilePath))
	tmpl = tmpl.Funcs(sprig.TxtFuncMap())
	tmpl, err := tmpl.ParseFiles(templateFilePath)
	if err != nil {
		return errors.Wrap(err, "Error while loading the manifest template from file")
	}

	updater.template = tmpl

	return nil
}

// LoadDefaultTemplate loads the built-in manifest template.
func (updater *Updater) LoadDefaultTemplate() error {
	tmpl := template.New("manifest")
	tmpl = tmpl.Funcs(sprig.TxtFuncMap())
	tmpl, err := tmpl.Parse(DefaultTemplate)
	if err != nil {
		return errors.Wrap(err, "Error while parsing the built-in manifest template")
	}

	updater.template = tmpl

	return nil
}

// UpdateManifest rewrites the manifest file with the given content.
func (updater *Updater) UpdateManifest(content Content) error {
	if updater.template == nil {
		return errors.New("No manifest template loaded")
	}

	f, err := os.Create(updater.ManifestFilePath)
	if err != nil {
		return errors.Wrap(err, "Error while opening the manifest file for writing")
	}
	defer f.Close()

	err = updater.template.Execute(f, content)
	if err != nil {
		return errors.Wrap(err, "Error while applying the manifest template to the data")
	}

	return nil
}
