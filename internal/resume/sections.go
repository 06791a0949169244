package resume

import "strings"

// sectionTitles is the bilingual heading vocabulary. Any of these lines ends
// the section that is currently being read.
var sectionTitles = newTitleSet(
	"contact", "contato",
	"top skills", "principais competências",
	"technologies", "tecnologias",
	"languages", "idiomas",
	"certifications", "certificações", "certificacoes",
	"summary", "resumo",
	"experience", "experiência",
	"education", "formação acadêmica", "formacao academica",
)

type titleSet map[string]struct{}

func newTitleSet(titles ...string) titleSet {
	set := make(titleSet, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return set
}

func (s titleSet) has(line string) bool {
	_, ok := s[strings.ToLower(line)]
	return ok
}

// without returns the vocabulary minus the given titles.
func (s titleSet) without(other titleSet) titleSet {
	out := make(titleSet, len(s))
	for t := range s {
		if _, skip := other[t]; !skip {
			out[t] = struct{}{}
		}
	}
	return out
}

func isSectionTitle(line string) bool {
	return sectionTitles.has(line)
}

// section describes where a marker-delimited field lives and how much of it to read.
type section struct {
	starts titleSet
	stops  titleSet
	// window bounds the prefix of lines searched for a start marker.
	window int
	// limit caps the number of kept items.
	limit int
	keep  func(string) bool
}

func newSection(window, limit int, keep func(string) bool, starts ...string) section {
	set := newTitleSet(starts...)
	return section{
		starts: set,
		stops:  sectionTitles.without(set),
		window: window,
		limit:  limit,
		keep:   keep,
	}
}

var (
	skillsSection         = newSection(80, 20, nil, "top skills", "principais competências")
	languagesSection      = newSection(120, 10, keepLanguage, "languages", "idiomas")
	summarySection        = newSection(120, 12, nil, "summary", "resumo")
	certificationsSection = newSection(140, 15, keepCertification, "certifications", "certificações", "certificacoes")
	technologiesSection   = newSection(120, 30, nil, "technologies", "tecnologias")

	experienceStarts = newTitleSet("experience", "experiência")
	educationStarts  = newTitleSet("education", "formação acadêmica", "formacao academica")
)

// keepLanguage keeps only entries carrying a proficiency level, e.g. "English (Full Professional)".
func keepLanguage(line string) bool {
	return strings.Contains(line, "(") && strings.Contains(line, ")")
}

// start returns the index of the first line after the section marker, or -1.
func (s section) start(lines []string) int {
	for i, line := range head(lines, s.window) {
		if s.starts.has(line) {
			return i + 1
		}
	}
	return -1
}

// collect reads the section body. A missing marker yields no items.
func (s section) collect(lines []string) []string {
	from := s.start(lines)
	if from < 0 {
		return nil
	}

	var items []string
	for _, line := range lines[from:] {
		if s.stops.has(line) {
			break
		}
		if line != "" && (s.keep == nil || s.keep(line)) {
			items = append(items, line)
		}
		if len(items) >= s.limit {
			break
		}
	}
	return items
}

func head(lines []string, n int) []string {
	if n < len(lines) {
		return lines[:n]
	}
	return lines
}
