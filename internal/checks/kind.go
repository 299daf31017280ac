package checks

import (
	"fmt"
	"strings"
)

// Kind identifies one member of the closed set of checks.
type Kind int

const (
	DefaultWorkflowPermissions Kind = iota + 1
	RepositorySecrets
)

type kindInfo struct {
	name        string
	title       string
	description string
}

// kindTable is ordered; Kinds returns kinds in this order.
var kindTable = []struct {
	kind Kind
	info kindInfo
}{
	{DefaultWorkflowPermissions, kindInfo{
		name:        "default_workflow_permissions",
		title:       "Default workflow permissions",
		description: "Compares the default GITHUB_TOKEN permission and the \"allow GitHub Actions to create and approve pull requests\" setting with the desired state. With --fix, writes the desired state.",
	}},
	{RepositorySecrets, kindInfo{
		name:        "repository_secrets",
		title:       "Repository secrets",
		description: "Lists repository-level Actions secret names (never values). Names matching --repository-secrets-warn-secret-names are reported as warnings, all others as info.",
	}},
}

// Kinds returns every known kind in table order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindTable))
	for _, e := range kindTable {
		out = append(out, e.kind)
	}
	return out
}

func (k Kind) info() (kindInfo, bool) {
	for _, e := range kindTable {
		if e.kind == k {
			return e.info, true
		}
	}
	return kindInfo{}, false
}

func (k Kind) String() string {
	if i, ok := k.info(); ok {
		return i.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Title() string {
	i, _ := k.info()
	return i.title
}

func (k Kind) Description() string {
	i, _ := k.info()
	return i.description
}

// Check returns the implementation for k, or nil for an unknown kind.
func (k Kind) Check() Check {
	switch k {
	case DefaultWorkflowPermissions:
		return defaultWorkflowPermissions{}
	case RepositorySecrets:
		return repositorySecrets{}
	default:
		return nil
	}
}

// ParseKind maps a configured name to its kind. Matching ignores case and
// accepts '-' in place of '_'.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, e := range kindTable {
		if e.info.name == normalized {
			return e.kind, nil
		}
	}
	return 0, fmt.Errorf("check not found: %s", name)
}

// Resolve maps configured names to kinds, keeping their order. An empty list
// selects every kind.
func Resolve(names []string) ([]Kind, error) {
	if len(names) == 0 {
		return Kinds(), nil
	}
	out := make([]Kind, 0, len(names))
	seen := make(map[Kind]bool, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			return nil, fmt.Errorf("check listed more than once: %s", k)
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// Build returns the implementations for kinds, in order.
func Build(kinds []Kind) ([]Check, error) {
	out := make([]Check, 0, len(kinds))
	for _, k := range kinds {
		c := k.Check()
		if c == nil {
			return nil, fmt.Errorf("no implementation for %s", k)
		}
		out = append(out, c)
	}
	return out, nil
}

// Names returns the configured names of kinds.
func Names(kinds []Kind) []string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, k.String())
	}
	return out
}
