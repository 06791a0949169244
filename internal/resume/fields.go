package resume

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/textnorm"
)

const (
	nameWindow        = 60
	nameCutoffWindow  = 80
	locationNearLines = 10
	locationWindow    = 120
	headlineSpan      = 6
	maxItemLength     = 80
	nameScoreEnough   = 4
)

var (
	timeUnitRe    = regexp.MustCompile(`\b(year|years|month|months|ano|anos|m[eê]s|meses)\b`)
	countryRe     = regexp.MustCompile(`\b(brazil|brasil)\b`)
	locationRe    = regexp.MustCompile(`\b(Brasil|Brazil)\b`)
	hasLetterRe   = regexp.MustCompile(`[A-Za-zÀ-ÿ]`)
	linkedInURLRe = regexp.MustCompile(`(?i)(https?://)?(www\.)?linkedin\.com/in/[^\s)]+`)

	summaryMarkers = newTitleSet("summary", "resumo")

	roleKeywords = []string{
		"engineer", "developer", "architect", "analyst", "manager", "consultant", "lead", "specialist",
		"engenheiro", "desenvolvedor", "arquiteto", "analista", "gerente", "consultor", "lider", "líder", "especialista",
	}
)

func isNameCandidate(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case isSectionTitle(line):
		return false
	case strings.Contains(lower, "linkedin.com"), strings.Contains(lower, "http"):
		return false
	case strings.Contains(lower, "linkedin") && strings.Contains(lower, "("):
		return false
	}

	if n := utf8.RuneCountInString(line); n < 3 || n > 60 {
		return false
	}
	if isAllUpper(line) || strings.ContainsFunc(line, unicode.IsDigit) || strings.Contains(line, "@") {
		return false
	}
	if timeUnitRe.MatchString(lower) || countryRe.MatchString(lower) {
		return false
	}
	return hasLetterRe.MatchString(line)
}

// isAllUpper mirrors a shouting heading: at least one cased letter and no lowercase ones.
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func looksLikeName(line string) bool {
	parts := strings.Fields(line)
	if len(parts) < 2 || len(parts) > 5 {
		return false
	}
	for _, part := range parts {
		first, _ := utf8.DecodeRuneInString(part)
		if !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}

func hasRoleHint(line string) bool {
	if strings.Contains(line, "|") {
		return true
	}
	lower := strings.ToLower(line)
	for _, keyword := range roleKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// findName picks the most name-like line near the top of the résumé and
// returns it with its index, or ("", -1) when nothing qualifies.
func findName(lines []string) (string, int) {
	searchRange := head(lines, nameWindow)
	for i, line := range head(lines, nameCutoffWindow) {
		if summaryMarkers.has(line) {
			searchRange = lines[:i]
			break
		}
	}

	bestScore, bestIdx := -1, -1
	for i, line := range searchRange {
		if isSectionTitle(line) || strings.HasPrefix(strings.ToLower(line), "page ") {
			continue
		}
		if !isNameCandidate(line) {
			continue
		}

		score := 0
		if looksLikeName(line) {
			score += 2
		}
		if i+1 < len(searchRange) && hasRoleHint(searchRange[i+1]) {
			score += 2
		}

		if score > bestScore {
			bestScore, bestIdx = score, i
		}
		if score >= nameScoreEnough {
			return line, i
		}
	}

	if bestIdx >= 0 {
		return searchRange[bestIdx], bestIdx
	}

	for i, line := range head(lines, nameWindow) {
		if isNameCandidate(line) {
			return line, i
		}
	}
	return "", -1
}

// findLocation looks right after the name first, then across the top of the résumé.
func findLocation(lines []string, from int) string {
	end := min(from+locationNearLines, len(lines))
	for i := max(from, 0); i < end; i++ {
		if locationRe.MatchString(lines[i]) {
			return lines[i]
		}
	}
	for _, line := range head(lines, locationWindow) {
		if locationRe.MatchString(line) {
			return line
		}
	}
	return ""
}

func headline(lines []string, nameIdx, stopIdx int) string {
	if nameIdx < 0 || nameIdx+1 >= stopIdx {
		return ""
	}

	var parts []string
	for _, line := range lines[nameIdx+1 : min(stopIdx, len(lines))] {
		if isSectionTitle(line) {
			break
		}
		parts = append(parts, line)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// headlineStop ends the headline at the location line, or a few lines after the name.
func headlineStop(lines []string, nameIdx int, location string) int {
	if location != "" {
		for i, line := range lines {
			if line == location {
				return i
			}
		}
	}
	return min(nameIdx+headlineSpan, len(lines))
}

func keepCertification(line string) bool {
	return utf8.RuneCountInString(line) <= maxItemLength &&
		!strings.Contains(line, "|") &&
		!locationRe.MatchString(line) &&
		!strings.Contains(strings.ToLower(line), "linkedin")
}

func summary(lines []string) string {
	return strings.TrimSpace(strings.Join(summarySection.collect(lines), " "))
}

// filterSkills drops items that echo the candidate's own name or location,
// contain separators or are too long to be a skill.
func filterSkills(items []string, name, location string) []string {
	nameKey := textnorm.Fold(name)
	locationKey := textnorm.Fold(location)

	var kept []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := textnorm.Fold(item)
		if nameKey != "" && strings.Contains(key, nameKey) {
			continue
		}
		if locationKey != "" && strings.Contains(key, locationKey) {
			continue
		}
		if strings.Contains(item, "|") || utf8.RuneCountInString(item) > maxItemLength {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// filterCertifications runs once name, headline and location are known.
func filterCertifications(items []string, name, headline, location string) []string {
	echoes := make([]string, 0, 3)
	for _, v := range []string{name, headline, location} {
		if key := textnorm.Fold(v); key != "" {
			echoes = append(echoes, key)
		}
	}

	var kept []string
	for _, item := range items {
		key := textnorm.Fold(item)
		if key == "" {
			continue
		}
		echoed := false
		for _, echo := range echoes {
			if strings.Contains(key, echo) {
				echoed = true
				break
			}
		}
		if !echoed {
			kept = append(kept, strings.TrimSpace(item))
		}
	}
	return kept
}

func findLinkedInURL(text string) string {
	return profile.NormalizeLinkedInURL(linkedInURLRe.FindString(text))
}
