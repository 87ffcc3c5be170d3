package labels

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/statuses.yaml
var catalogFS embed.FS

// Catalog maps normalized backend status tokens to display labels. The
// backend vocabulary is known to drift between deployments (legacy and
// current labels coexist), so unknown tokens fall back to a title-cased
// rendering instead of failing.
type Catalog struct {
	labels map[string]string
}

// NewCatalog loads the embedded defaults, then applies overrides from
// overridesPath when it is non-empty.
func NewCatalog(overridesPath string) (*Catalog, error) {
	c := &Catalog{labels: make(map[string]string)}

	data, err := catalogFS.ReadFile("catalog/statuses.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded status labels: %w", err)
	}
	if err := c.merge(data); err != nil {
		return nil, fmt.Errorf("parse embedded status labels: %w", err)
	}

	if overridesPath != "" {
		data, err := os.ReadFile(overridesPath)
		if err != nil {
			return nil, fmt.Errorf("read label overrides %s: %w", overridesPath, err)
		}
		if err := c.merge(data); err != nil {
			return nil, fmt.Errorf("parse label overrides %s: %w", overridesPath, err)
		}
	}

	return c, nil
}

func (c *Catalog) merge(data []byte) error {
	var parsed map[string]string
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return err
	}
	for token, label := range parsed {
		c.labels[Normalize(token)] = label
	}
	return nil
}

// Normalize lowercases a raw status token for comparison. All status
// comparisons in the codebase go through this.
func Normalize(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// Label returns the display label for a raw status token. Unknown tokens are
// title-cased on underscores ("waiting_confirmation" -> "Waiting
// Confirmation"); an empty token renders as "-".
func (c *Catalog) Label(status string) string {
	normalized := Normalize(status)
	if normalized == "" {
		return "-"
	}
	if label, ok := c.labels[normalized]; ok {
		return label
	}
	return TitleCase(normalized)
}

// TitleCase renders an unknown status token for display.
func TitleCase(token string) string {
	words := strings.Split(token, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
