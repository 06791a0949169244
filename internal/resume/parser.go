// Package resume turns the text of a LinkedIn style résumé export into a
// candidate profile using layout heuristics only.
package resume

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/textnorm"
)

// TextSource yields the raw text of a document.
type TextSource interface {
	Text(ctx context.Context, path string) (string, error)
}

// PDFText reads PDF files page by page.
type PDFText struct{}

func (PDFText) Text(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("reading page %d of %s: %w", i, path, err)
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// Parser extracts profiles with the heuristics in this package.
type Parser struct {
	source  TextSource
	catalog *Catalog
}

// NewParser builds a parser. Nil arguments select the PDF reader and the built-in catalog.
func NewParser(source TextSource, catalog *Catalog) *Parser {
	if source == nil {
		source = PDFText{}
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Parser{source: source, catalog: catalog}
}

// ParseFile reads one résumé. roleTitles, when given, restricts experience
// time to positions whose title matches one of them.
func (p *Parser) ParseFile(ctx context.Context, path string, roleTitles []string) (profile.CandidateProfile, error) {
	text, err := p.source.Text(ctx, path)
	if err != nil {
		return profile.CandidateProfile{}, err
	}
	return p.ParseText(text, roleTitles), nil
}

// ParseText runs the heuristics over already extracted text.
func (p *Parser) ParseText(text string, roleTitles []string) profile.CandidateProfile {
	text = textnorm.FixMojibake(text)
	lines := textnorm.CleanLines(text)

	name, nameIdx := findName(lines)
	from := 0
	if nameIdx >= 0 {
		from = nameIdx + 1
	}
	location := findLocation(lines, from)
	summaryLine := headline(lines, nameIdx, headlineStop(lines, nameIdx, location))

	blocks := ExperienceBlocks(lines)
	var company, title string
	if len(blocks) > 0 {
		company, title = blocks[0].Company, blocks[0].Title
	}
	if title == "" {
		title = summaryLine
	}

	experience := TotalYears(blocks)
	if len(roleTitles) > 0 {
		experience = RoleYears(blocks, roleTitles)
	}

	// Items are re-split on commas because they are stored comma joined.
	skills := profile.SplitList(profile.JoinList(skillsSection.collect(lines)))
	certifications := profile.SplitList(profile.JoinList(certificationsSection.collect(lines)))

	return profile.CandidateProfile{
		Name:               name,
		CurrentTitle:       title,
		CurrentCompany:     company,
		Location:           location,
		LinkedInURL:        findLinkedInURL(text),
		Summary:            summary(lines),
		Skills:             filterSkills(skills, name, location),
		Technologies:       p.catalog.Technologies(lines, text),
		Languages:          languagesSection.collect(lines),
		Certifications:     filterCertifications(certifications, name, summaryLine, location),
		Seniority:          profile.SeniorityFromYears(experience),
		ExperienceYears:    experience,
		AverageTenureYears: AverageTenureYears(blocks),
	}
}

// HeuristicExtractor serves imports without an inference service. It never
// produces a fit score.
type HeuristicExtractor struct {
	Parser *Parser
}

func (h HeuristicExtractor) parser() *Parser {
	if h.Parser == nil {
		return NewParser(nil, nil)
	}
	return h.Parser
}

func (h HeuristicExtractor) Extract(ctx context.Context, path string, job *ai.Job) (*profile.Extraction, error) {
	var roles []string
	if job != nil {
		roles = job.RoleTitles
	}

	parsed, err := h.parser().ParseFile(ctx, path, roles)
	if err != nil {
		return nil, err
	}
	return &profile.Extraction{Profile: parsed}, nil
}

func (h HeuristicExtractor) ExtractBatch(ctx context.Context, paths []string, job *ai.Job) ([]profile.Extraction, error) {
	out := make([]profile.Extraction, 0, len(paths))
	for _, path := range paths {
		e, err := h.Extract(ctx, path, job)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}
