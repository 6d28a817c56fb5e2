package classify

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var embeddedDefaults embed.FS

// DefaultRuleSet returns the embedded rule set.
func DefaultRuleSet() (*RuleSet, error) {
	data, err := embeddedDefaults.ReadFile("defaults/rules.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded rules: %w", err)
	}
	return LoadRuleSetFromBytes(data)
}

type departmentFile struct {
	Departments []string `yaml:"departments"`
}

// DefaultDepartments returns the embedded department vocabulary.
func DefaultDepartments() ([]string, error) {
	data, err := embeddedDefaults.ReadFile("defaults/departments.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded departments: %w", err)
	}
	return parseDepartments(data)
}

// LoadDepartments loads a department vocabulary from a YAML file.
func LoadDepartments(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading departments file: %w", err)
	}
	return parseDepartments(data)
}

func parseDepartments(data []byte) ([]string, error) {
	var f departmentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing departments YAML: %w", err)
	}
	return f.Departments, nil
}

// Load builds a classifier from optional rule and department files, falling
// back to the embedded defaults for whichever path is empty.
func Load(rulesPath, departmentsPath string) (*Classifier, error) {
	var (
		rules *RuleSet
		err   error
	)
	if rulesPath != "" {
		rules, err = LoadRuleSet(rulesPath)
	} else {
		rules, err = DefaultRuleSet()
	}
	if err != nil {
		return nil, err
	}

	var departments []string
	if departmentsPath != "" {
		departments, err = LoadDepartments(departmentsPath)
	} else {
		departments, err = DefaultDepartments()
	}
	if err != nil {
		return nil, err
	}

	return New(rules, departments), nil
}
