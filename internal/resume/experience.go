package resume

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/talentpool/internal/profile"
	"github.com/spigell/talentpool/internal/textnorm"
)

const blockWindow = 4

var (
	yearsRe       = regexp.MustCompile(`(\d+)\s*(year|years|ano|anos)`)
	monthsRe      = regexp.MustCompile(`(\d+)\s*(month|months|mes|meses)`)
	parentheticRe = regexp.MustCompile(`\(([^)]+)\)`)
)

// ParseDuration converts "3 years 6 months", "2 anos" or "1 ano 1 mês" into
// months. ok is false when neither unit is present.
func ParseDuration(text string) (months int, ok bool) {
	lower := textnorm.Fold(text)
	y := yearsRe.FindStringSubmatch(lower)
	m := monthsRe.FindStringSubmatch(lower)
	if y == nil && m == nil {
		return 0, false
	}

	if y != nil {
		n, _ := strconv.Atoi(y[1])
		months += n * 12
	}
	if m != nil {
		n, _ := strconv.Atoi(m[1])
		months += n
	}
	return months, true
}

// isCompanyLine reports whether line heads a company group: the line after it
// is a bare duration such as "5 years 2 months" with no dates or parentheses.
func isCompanyLine(next string) bool {
	if next == "" || strings.ContainsAny(next, "()-") {
		return false
	}
	_, ok := ParseDuration(next)
	return ok
}

// ExperienceBlocks reads the experience section into positions, most recent first.
func ExperienceBlocks(lines []string) []profile.ExperienceBlock {
	from := -1
	for i, line := range lines {
		if experienceStarts.has(line) {
			from = i + 1
			break
		}
	}
	if from < 0 {
		return nil
	}

	to := len(lines)
	for i := from; i < len(lines); i++ {
		if educationStarts.has(lines[i]) {
			to = i
			break
		}
	}

	section := lines[from:to]
	var (
		blocks  []profile.ExperienceBlock
		window  []string
		company string
	)

	for i, line := range section {
		if line != "" {
			window = append(window, line)
			if len(window) > blockWindow {
				window = window[len(window)-blockWindow:]
			}
		}

		next := ""
		if i+1 < len(section) {
			next = section[i+1]
		}
		if isCompanyLine(next) {
			company = line
			continue
		}

		match := parentheticRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		months, ok := ParseDuration(match[1])
		if !ok || len(window) < 2 {
			continue
		}

		block := profile.ExperienceBlock{
			Company:  company,
			Title:    window[len(window)-2],
			Location: next,
			Months:   months,
		}
		if block.Company == "" && len(window) >= 3 {
			block.Company = window[len(window)-3]
		}
		blocks = append(blocks, block)
	}

	return blocks
}

func positiveMonths(blocks []profile.ExperienceBlock) []int {
	var out []int
	for _, b := range blocks {
		if b.Months > 0 {
			out = append(out, b.Months)
		}
	}
	return out
}

// TotalYears sums positive durations. Nil when no block has one.
func TotalYears(blocks []profile.ExperienceBlock) *float64 {
	months := positiveMonths(blocks)
	if len(months) == 0 {
		return nil
	}
	total := 0
	for _, m := range months {
		total += m
	}
	return profile.Years(float64(total) / 12)
}

// AverageTenureYears averages positive durations. Nil when no block has one.
func AverageTenureYears(blocks []profile.ExperienceBlock) *float64 {
	months := positiveMonths(blocks)
	if len(months) == 0 {
		return nil
	}
	total := 0
	for _, m := range months {
		total += m
	}
	return profile.Years(float64(total) / float64(len(months)) / 12)
}

// RoleYears sums the blocks whose title contains one of roles, compared folded.
// Nil when no role is given or nothing matches.
func RoleYears(blocks []profile.ExperienceBlock, roles []string) *float64 {
	var keys []string
	for _, role := range roles {
		if key := textnorm.Fold(role); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	total := 0
	for _, b := range blocks {
		title := textnorm.Fold(b.Title)
		if title == "" {
			continue
		}
		for _, key := range keys {
			if strings.Contains(title, key) {
				total += b.Months
				break
			}
		}
	}
	if total <= 0 {
		return nil
	}
	return profile.Years(float64(total) / 12)
}
