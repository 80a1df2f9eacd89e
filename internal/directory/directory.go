// Package directory resolves institutional profile data (name, registration, unit)
// for an email address. It backs registration and first federated login.
package directory

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Entry struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Registration string `yaml:"registration"`
	Position     string `yaml:"position"`
	Unit         string `yaml:"unit"`
}

type Directory interface {
	Lookup(ctx context.Context, email string) (*Entry, bool)
}

// Empty never finds anyone.
type Empty struct{}

func (Empty) Lookup(context.Context, string) (*Entry, bool) { return nil, false }

// Static is an in-memory directory keyed by lower-cased email.
type Static struct {
	entries map[string]Entry
}

func NewStatic(entries []Entry) *Static {
	s := &Static{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Email))
		if key == "" {
			continue
		}
		e.Email = key
		s.entries[key] = e
	}
	return s
}

func (s *Static) Lookup(_ context.Context, email string) (*Entry, bool) {
	e, ok := s.entries[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, false
	}
	return &e, true
}

func (s *Static) Len() int { return len(s.entries) }

type file struct {
	Staff []Entry `yaml:"staff"`
}

// Parse reads a YAML document of the form:
//
//	staff:
//	  - email: joao.silva@pc.sc.gov.br
//	    name: João da Silva
//	    registration: "123456-7"
//	    position: Agente de Polícia
//	    unit: DIC Florianópolis
func Parse(data []byte) (*Static, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse staff directory: %w", err)
	}
	return NewStatic(f.Staff), nil
}

// Load returns Empty when path is blank.
func Load(path string) (Directory, error) {
	if path == "" {
		return Empty{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read staff directory: %w", err)
	}
	return Parse(data)
}
