package resume

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/spigell/talentpool/internal/textnorm"
	"gopkg.in/yaml.v3"
)

//go:embed technologies.yaml
var technologiesYAML []byte

// Catalog canonicalizes technology names. It is immutable once loaded.
type Catalog struct {
	aliases  map[string]string
	patterns []techPattern
}

type techPattern struct {
	re    *regexp.Regexp
	label string
}

type catalogFile struct {
	Aliases  map[string]string `yaml:"aliases"`
	Patterns []struct {
		Keyword string `yaml:"keyword"`
		Label   string `yaml:"label"`
	} `yaml:"patterns"`
}

// LoadCatalog parses a YAML catalog with an alias table and keyword patterns.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse technology catalog: %w", err)
	}

	c := &Catalog{
		aliases:  make(map[string]string, len(file.Aliases)),
		patterns: make([]techPattern, 0, len(file.Patterns)),
	}
	for alias, label := range file.Aliases {
		c.aliases[strings.ToLower(strings.TrimSpace(alias))] = label
	}
	for _, p := range file.Patterns {
		keyword := strings.TrimSpace(p.Keyword)
		if keyword == "" || p.Label == "" {
			return nil, fmt.Errorf("technology pattern %q: keyword and label are required", p.Keyword)
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("technology pattern %q: %w", keyword, err)
		}
		c.patterns = append(c.patterns, techPattern{re: re, label: p.Label})
	}

	return c, nil
}

var builtinCatalog = sync.OnceValue(func() *Catalog {
	c, err := LoadCatalog(technologiesYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() *Catalog {
	return builtinCatalog()
}

// techSymbols keeps C, C++ and C# apart once punctuation is folded away.
var techSymbols = strings.NewReplacer("+", " plus ", "#", " sharp ")

func techKey(s string) string {
	return textnorm.Fold(techSymbols.Replace(s))
}

// Canonicalize maps every item to its display label and drops duplicates,
// keeping the first occurrence.
func (c *Catalog) Canonicalize(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		clean := strings.TrimSpace(strings.Trim(strings.TrimSpace(item), "-•"))
		if clean == "" {
			continue
		}

		label := c.lookup(clean)
		key := techKey(label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}

	return out
}

func (c *Catalog) lookup(item string) string {
	if label, ok := c.aliases[strings.ToLower(item)]; ok {
		return label
	}
	if label, ok := c.aliases[textnorm.Fold(item)]; ok {
		return label
	}
	return item
}

// Scan appends every catalog label whose keyword occurs in text and that is
// not already present in found.
func (c *Catalog) Scan(text string, found []string) []string {
	folded := textnorm.Fold(text)
	seen := make(map[string]struct{}, len(found))
	for _, item := range found {
		seen[techKey(item)] = struct{}{}
	}

	for _, p := range c.patterns {
		key := techKey(p.label)
		if _, ok := seen[key]; ok {
			continue
		}
		if p.re.MatchString(folded) {
			found = append(found, p.label)
			seen[key] = struct{}{}
		}
	}
	return found
}

// Technologies combines the technologies section with a scan of the whole text.
func (c *Catalog) Technologies(lines []string, text string) []string {
	listed := c.Canonicalize(technologiesSection.collect(lines))
	return c.Canonicalize(c.Scan(text, listed))
}
