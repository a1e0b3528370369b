// Package projectfile reads and writes the YAML files that carry a whole
// project (modules plus every estimation record), PERT task lists and
// COCOMO II inputs.
// JSON is valid YAML, so both formats are accepted on input.
package projectfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/delphi/schema"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the project file format written by Encode.
const CurrentVersion = 1

// ErrEmptyFile is returned when a file holds no YAML document.
var ErrEmptyFile = errors.New("file is empty")

type moduleEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type estimationEntry struct {
	Estimator string    `yaml:"estimator"`
	Round1    []float64 `yaml:"round1,flow,omitempty"`
	Round2    []float64 `yaml:"round2,flow,omitempty"`
	Round3    []float64 `yaml:"round3,flow,omitempty"`
}

// projectFile is the on-disk layout of a project snapshot.
type projectFile struct {
	Version     int               `yaml:"version"`
	Project     string            `yaml:"project"`
	Modules     []moduleEntry     `yaml:"modules"`
	Estimations []estimationEntry `yaml:"estimations,omitempty"`
}

type pertFile struct {
	Tasks []schema.PERTTask `yaml:"tasks"`
}

// Encode writes snap as a YAML project file.
// Rounds that were not submitted are left out.
func Encode(w io.Writer, snap schema.ProjectSnapshot) error {
	pf := projectFile{
		Version: CurrentVersion,
		Project: snap.Project,
		Modules: make([]moduleEntry, len(snap.Modules)),
	}
	for i, m := range snap.Modules {
		pf.Modules[i] = moduleEntry(m)
	}
	for _, rec := range snap.Estimations {
		pf.Estimations = append(pf.Estimations, estimationEntry{
			Estimator: rec.EstimatorName,
			Round1:    rec.Round1.Values(),
			Round2:    rec.Round2.Values(),
			Round3:    rec.Round3.Values(),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(pf); err != nil {
		return fmt.Errorf("projectfile: encode: %w", err)
	}
	return enc.Close()
}

// Decode reads a project file. Unknown keys are rejected so typos in
// hand-written files do not silently drop data.
func Decode(r io.Reader) (schema.ProjectSnapshot, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return schema.ProjectSnapshot{}, fmt.Errorf("projectfile: read: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return schema.ProjectSnapshot{}, fmt.Errorf("projectfile: %w", ErrEmptyFile)
	}

	var pf projectFile
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return schema.ProjectSnapshot{}, fmt.Errorf("projectfile: decode: %w", err)
	}
	// A missing version means a file written by hand
	if pf.Version != 0 && pf.Version != CurrentVersion {
		return schema.ProjectSnapshot{}, fmt.Errorf("projectfile: unsupported version %d", pf.Version)
	}

	snap := schema.ProjectSnapshot{
		Project: strings.TrimSpace(pf.Project),
		Modules: make([]schema.Module, len(pf.Modules)),
	}
	for i, m := range pf.Modules {
		snap.Modules[i] = schema.Module(m)
	}
	for _, e := range pf.Estimations {
		snap.Estimations = append(snap.Estimations, schema.EstimationRecord{
			EstimatorName: e.Estimator,
			Round1:        schema.Submitted(e.Round1),
			Round2:        schema.Submitted(e.Round2),
			Round3:        schema.Submitted(e.Round3),
		})
	}
	return snap, nil
}

// LoadProject reads a project file from path.
func LoadProject(path string) (schema.ProjectSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.ProjectSnapshot{}, fmt.Errorf("projectfile: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	snap, err := Decode(f)
	if err != nil {
		return schema.ProjectSnapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// SaveProject writes snap to path, replacing any existing file.
func SaveProject(path string, snap schema.ProjectSnapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("projectfile: write %s: %w", path, err)
	}
	return nil
}

// ParsePERTTasks decodes a task list of the form:
//
//	tasks:
//	  - name: Backend
//	    subtasks:
//	      - {name: API, optimistic: 2, most_likely: 4, pessimistic: 6}
func ParsePERTTasks(data []byte) ([]schema.PERTTask, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("projectfile: %w", ErrEmptyFile)
	}
	var pf pertFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("projectfile: decode tasks: %w", err)
	}
	return pf.Tasks, nil
}

// LoadPERTTasks reads a PERT task list from path.
func LoadPERTTasks(path string) ([]schema.PERTTask, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("projectfile: read %s: %w", path, err)
	}
	tasks, err := ParsePERTTasks(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

// ParseCocomo2Input decodes a COCOMO II input of the form:
//
//	functions:
//	  ei: [[1, 0, 0], [0, 2, 0]]
//	  ilf: [[0, 0, 1]]
//	characteristics: [3, 3, 4]
//	scale_factors: {prec: n, flex: h}
//	effort_multipliers: {pers: h}
//	composition: {reuse_percent: 20, simple_screens: 2, modules: 1}
func ParseCocomo2Input(data []byte) (schema.Cocomo2Input, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return schema.Cocomo2Input{}, fmt.Errorf("projectfile: %w", ErrEmptyFile)
	}
	var in schema.Cocomo2Input
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return schema.Cocomo2Input{}, fmt.Errorf("projectfile: decode COCOMO II input: %w", err)
	}
	return in, nil
}

// LoadCocomo2Input reads a COCOMO II input from path.
func LoadCocomo2Input(path string) (schema.Cocomo2Input, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return schema.Cocomo2Input{}, fmt.Errorf("projectfile: read %s: %w", path, err)
	}
	in, err := ParseCocomo2Input(content)
	if err != nil {
		return schema.Cocomo2Input{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}
