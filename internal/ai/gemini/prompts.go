package gemini

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/profile"
)

var (
	//go:embed prompt_ranking.md
	rankingTemplate string
	//go:embed prompt_extract.md
	extractTemplate string
	//go:embed prompt_adherence.md
	adherenceTemplate string
	//go:embed prompt_rules.md
	profileRules string
	//go:embed prompt_profile_object.md
	profileFields string
)

const scoreFields = `  "adherence": 0,
  "technical_justification": "string"`

func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template)) + "\n"
}

// responseFormat renders the expected JSON shape, wrapped in an array for batches.
func responseFormat(fields string, batch bool) string {
	fields = strings.TrimRight(fields, "\n")
	if !batch {
		return "{\n" + fields + "\n}"
	}

	lines := strings.Split(fields, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return "[\n  {\n" + strings.Join(lines, "\n") + "\n  }\n]"
}

func arrayRule(item string, batch bool) string {
	if !batch {
		return ""
	}
	return fmt.Sprintf("- Retorne um ARRAY de objetos, um para cada %s enviado, na mesma ordem.\n", item)
}

func roleTitles(job ai.Job) string {
	if len(job.RoleTitles) == 0 {
		return "N/A"
	}
	return strings.Join(job.RoleTitles, ", ")
}

func weightsJSON(job ai.Job) string {
	weights := job.Weights
	if len(weights) == 0 {
		weights = ai.DefaultWeights()
	}
	data, err := json.Marshal(weights)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func pdfSubject(batch bool) string {
	if batch {
		return "os PDFs dos candidatos (vários arquivos)"
	}
	return "o PDF do candidato"
}

// extractionPrompt asks for a profile, with a fit score when a job is given.
func extractionPrompt(job *ai.Job, batch bool) string {
	if job == nil {
		return render(extractTemplate, map[string]string{
			"SUBJECT":    pdfSubject(batch),
			"RULES":      strings.TrimSpace(profileRules),
			"SHAPE_RULE": arrayRule("PDF", batch),
			"FORMAT":     responseFormat(strings.TrimRight(profileFields, "\n"), batch),
		})
	}

	return render(rankingTemplate, map[string]string{
		"SUBJECT":         pdfSubject(batch),
		"JOB_DESCRIPTION": strings.TrimSpace(job.Description),
		"ROLE_TITLES":     roleTitles(*job),
		"WEIGHTS":         weightsJSON(*job),
		"RULES":           strings.TrimSpace(profileRules),
		"SHAPE_RULE":      arrayRule("PDF", batch),
		"FORMAT":          responseFormat(strings.TrimRight(profileFields, "\n")+",\n"+scoreFields, batch),
	})
}

// adherencePrompt scores stored profiles without reading any document.
func adherencePrompt(candidates []profile.CandidateProfile, job ai.Job, batch bool) string {
	subject, label := "o perfil do candidato abaixo", "PERFIL DO CANDIDATO"
	if batch {
		subject, label = "os perfis dos candidatos abaixo", "PERFIS DOS CANDIDATOS"
	}

	var b strings.Builder
	for i, c := range candidates {
		if batch {
			fmt.Fprintf(&b, "\n--- CANDIDATO %d ---\n", i+1)
		}
		b.WriteString(candidateText(c))
	}

	return render(adherenceTemplate, map[string]string{
		"SUBJECT":          subject,
		"JOB_DESCRIPTION":  strings.TrimSpace(job.Description),
		"ROLE_TITLES":      roleTitles(job),
		"WEIGHTS":          weightsJSON(job),
		"CANDIDATES_LABEL": label,
		"CANDIDATES":       strings.TrimSpace(b.String()),
		"SHAPE_RULE":       arrayRule("candidato", batch),
		"FORMAT":           responseFormat(scoreFields, batch),
	})
}

func formatYears(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f anos", *v)
}

func candidateText(c profile.CandidateProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nome: %s\n", c.Name)
	fmt.Fprintf(&b, "Cargo atual: %s\n", c.CurrentTitle)
	fmt.Fprintf(&b, "Empresa atual: %s\n", c.CurrentCompany)
	fmt.Fprintf(&b, "Localização: %s\n", c.Location)
	fmt.Fprintf(&b, "Skills: %s\n", profile.JoinList(c.Skills))
	fmt.Fprintf(&b, "Tecnologias: %s\n", profile.JoinList(c.Technologies))
	fmt.Fprintf(&b, "Idiomas: %s\n", profile.JoinList(c.Languages))
	fmt.Fprintf(&b, "Certificações: %s\n", profile.JoinList(c.Certifications))
	fmt.Fprintf(&b, "Senioridade: %s\n", c.Seniority)
	fmt.Fprintf(&b, "Tempo de experiência: %s\n", formatYears(c.ExperienceYears))
	fmt.Fprintf(&b, "Média de permanência: %s\n", formatYears(c.AverageTenureYears))
	fmt.Fprintf(&b, "Resumo: %s\n", c.Summary)
	return b.String()
}
