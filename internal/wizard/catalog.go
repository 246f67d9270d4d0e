package wizard

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog holds the option lists the intake form offers.
type Catalog struct {
	Professions []string `yaml:"professions" json:"professions"`
	Purposes    []string `yaml:"purposes" json:"purposes"`
	Tenures     []int    `yaml:"tenures" json:"tenures"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		Professions: []string{
			"Software Engineer",
			"Doctor",
			"Teacher",
			"Accountant",
			"Entrepreneur",
			"Government Employee",
			"Lawyer",
			"Other",
		},
		Purposes: []string{
			"Home Purchase",
			"Car Purchase",
			"Education",
			"Business",
			"Medical Expenses",
			"Debt Consolidation",
			"Personal Use",
		},
		Tenures: []int{12, 24, 36, 48, 60, 72, 84, 96, 108, 120},
	}
}

// LoadCatalog reads a YAML catalog. Lists missing from the file keep their defaults.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (Catalog, error) {
	var in Catalog
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	out := DefaultCatalog()
	if len(in.Professions) > 0 {
		out.Professions = in.Professions
	}
	if len(in.Purposes) > 0 {
		out.Purposes = in.Purposes
	}
	if len(in.Tenures) > 0 {
		out.Tenures = in.Tenures
	}
	if err := out.validate(); err != nil {
		return Catalog{}, err
	}
	return out, nil
}

func (c Catalog) validate() error {
	for _, p := range c.Professions {
		if strings.TrimSpace(p) == "" {
			return errors.New("catalog: blank profession")
		}
	}
	for _, p := range c.Purposes {
		if strings.TrimSpace(p) == "" {
			return errors.New("catalog: blank purpose")
		}
	}
	for _, t := range c.Tenures {
		if t <= 0 {
			return fmt.Errorf("catalog: tenure %d must be positive", t)
		}
	}
	return nil
}

func (c Catalog) HasProfession(v string) bool {
	return containsString(c.Professions, v)
}

func (c Catalog) HasPurpose(v string) bool {
	return containsString(c.Purposes, v)
}

// HasTenure accepts the tenure as typed into the form, e.g. "36".
func (c Catalog) HasTenure(v string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	for _, t := range c.Tenures {
		if t == n {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
