package twconfig

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/yacobolo/twconfig/internal/tree"
)

// JSONOutput represents the structured JSON export schema
type JSONOutput struct {
	Version      string          `json:"version"`
	Timestamp    string          `json:"timestamp"`
	Summary      JSONSummary     `json:"summary"`
	ConfigPaths  []string        `json:"config_paths"`
	ContentGlobs []string        `json:"content_globs"`
	CSS          []string        `json:"css"`
	Modules      []JSONModule    `json:"modules"`
	Files        []JSONFile      `json:"files"`
	Diagnostics  []Diagnostic    `json:"diagnostics"`
	Config       json.RawMessage `json:"config"`
}

// JSONSummary contains high-level counts
type JSONSummary struct {
	ConfigFiles  int `json:"config_files"`
	ContentGlobs int `json:"content_globs"`
	Modules      int `json:"modules"`
	FilesWritten int `json:"files_written"`
	Errors       int `json:"errors"`
	Warnings     int `json:"warnings"`
}

// JSONModule represents one exposed module
type JSONModule struct {
	Module   string   `json:"module"`
	Filename string   `json:"filename"`
	Kind     string   `json:"kind"`
	Exports  []string `json:"exports,omitempty"`
}

// JSONFile represents one generated file
type JSONFile struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
}

// WriteJSON writes the build result as JSON
func WriteJSON(w io.Writer, result *Result) error {
	output, err := buildJSONOutput(result)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildJSONOutput converts Result to JSONOutput
func buildJSONOutput(result *Result) (JSONOutput, error) {
	// The tree codec keeps key order, which encoding/json would not.
	config, err := tree.Encode(tree.StripFuncs(result.Resolved))
	if err != nil {
		return JSONOutput{}, fmt.Errorf("encode config: %w", err)
	}

	var errors, warnings int
	for _, d := range result.Diagnostics {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}

	modules := []JSONModule{}
	if result.Graph != nil {
		for _, m := range result.Graph.Modules {
			name := result.Graph.Alias
			if m.Subpath != "" {
				name += "/" + m.Subpath
			}
			modules = append(modules, JSONModule{Module: name, Filename: m.Filename, Kind: m.Kind.String(), Exports: m.Exports})
		}
	}

	files := make([]JSONFile, len(result.Files))
	written := 0
	for i, f := range result.Files {
		files[i] = JSONFile{Path: relTo(result.RootDir, f.Path), Changed: f.Changed}
		if f.Changed {
			written++
		}
	}

	diags := result.Diagnostics
	if diags == nil {
		diags = []Diagnostic{}
	}

	return JSONOutput{
		Version:   "1.0",
		Timestamp: time.Now().Format(time.RFC3339),
		Summary: JSONSummary{
			ConfigFiles:  len(result.ConfigPaths),
			ContentGlobs: len(result.ContentGlobs),
			Modules:      len(modules),
			FilesWritten: written,
			Errors:       errors,
			Warnings:     warnings,
		},
		ConfigPaths:  nonNil(result.ConfigPaths),
		ContentGlobs: nonNil(result.ContentGlobs),
		CSS:          nonNil(result.CSS),
		Modules:      modules,
		Files:        files,
		Diagnostics:  diags,
		Config:       json.RawMessage(config),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
