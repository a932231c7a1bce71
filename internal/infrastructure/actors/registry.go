// Package actors resolves request identities. The registry is loaded once at
// startup from a YAML file; without one, a built-in development roster is
// used.
package actors

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/docflowhq/docflow/internal/core/domain"
)

type registryFile struct {
	Actors []actorEntry `yaml:"actors"`
}

type actorEntry struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
}

type Registry struct {
	actors map[string]domain.Actor
}

// Load reads the actor roster from path. An empty path yields the built-in
// development roster.
func Load(path string) (*Registry, error) {
	if path == "" {
		return defaultRegistry(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actors file: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse actors file: %w", err)
	}
	return build(file.Actors)
}

func build(entries []actorEntry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("actors file lists no actors")
	}
	actors := make(map[string]domain.Actor, len(entries))
	for i, entry := range entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("actor %d: missing id", i)
		}
		if _, ok := actors[entry.ID]; ok {
			return nil, fmt.Errorf("actor %q: duplicate id", entry.ID)
		}
		role := domain.Role(entry.Role)
		switch role {
		case domain.RoleStudent, domain.RoleAdmin:
			if entry.Department != "" {
				return nil, fmt.Errorf("actor %q: role %s must not set department", entry.ID, role)
			}
		case domain.RoleDepartment:
			if entry.Department == "" {
				return nil, fmt.Errorf("actor %q: department reviewer needs a department", entry.ID)
			}
		default:
			return nil, fmt.Errorf("actor %q: unknown role %q", entry.ID, entry.Role)
		}
		actors[entry.ID] = domain.Actor{
			ID:         entry.ID,
			Name:       entry.Name,
			Role:       role,
			Department: entry.Department,
		}
	}
	return &Registry{actors: actors}, nil
}

// Resolve maps an actor id from a request to its registered identity.
func (r *Registry) Resolve(id string) (domain.Actor, error) {
	actor, ok := r.actors[id]
	if !ok {
		return domain.Actor{}, domain.WrapError(domain.ErrUnauthorized, "resolve actor",
			fmt.Errorf("unknown actor id %q", id))
	}
	return actor, nil
}

func defaultRegistry() *Registry {
	reg, err := build([]actorEntry{
		{ID: "stu-100", Name: "Avery Cole", Role: "student"},
		{ID: "stu-101", Name: "Jordan Reyes", Role: "student"},
		{ID: "dept-admissions", Name: "Admissions Desk", Role: "department", Department: "admissions"},
		{ID: "dept-scholarship", Name: "Scholarship Office", Role: "department", Department: "scholarship"},
		{ID: "dept-internship", Name: "Internship Office", Role: "department", Department: "internship"},
		{ID: "admin-1", Name: "Registrar", Role: "admin"},
	})
	if err != nil {
		panic(fmt.Sprintf("built-in actor roster invalid: %v", err))
	}
	return reg
}
