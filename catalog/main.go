package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Persona is one simulated prospect. The pain points stay hidden from the
// trainee; the dialogue engine feeds them to the model as part of the
// role-play instruction. Unknown JSON fields are ignored.
type Persona struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Company    string `json:"company"`
	Industry   string `json:"industry"`
	PainPoints string `json:"pain_points"`
}

// Label is the selector caption shown to the trainee. It doubles as the
// persona's identity in form submissions (name and role make it unique).
func (p Persona) Label() string {
	return fmt.Sprintf("%s — %s (%s) — %s", p.Company, p.Name, p.Role, p.Industry)
}

// Load reads the prospect definitions once at startup. The caller treats any
// error as fatal; a missing or malformed catalog is not recoverable.
func Load(path string) ([]Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}

	var personas []Persona
	if err := json.Unmarshal(raw, &personas); err != nil {
		return nil, fmt.Errorf("parse persona catalog %s: %w", path, err)
	}
	if len(personas) == 0 {
		return nil, fmt.Errorf("persona catalog %s is empty", path)
	}

	return personas, nil
}

// FindByLabel resolves a selector value back to its persona.
func FindByLabel(personas []Persona, label string) *Persona {
	for i := range personas {
		if personas[i].Label() == label {
			return &personas[i]
		}
	}
	return nil
}
