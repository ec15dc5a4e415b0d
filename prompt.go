package codereview

import (
	"fmt"
	"strings"
)

// PromptFormatter renders an analysis request as LLM prompt text.
type PromptFormatter interface {
	// System returns the reviewer instructions.
	System() string
	// Format returns the user prompt for req.
	Format(req AnalysisRequest) string
}

// DefaultFormatter implements PromptFormatter with the standard review prompt.
type DefaultFormatter struct{}

// System returns the reviewer instructions, including the JSON shape the
// model must produce.
func (f *DefaultFormatter) System() string {
	var sb strings.Builder
	sb.WriteString("You are an expert code reviewer and senior software engineer.\n")
	sb.WriteString("Analyze the provided code for bugs, security vulnerabilities, performance issues, and best practices.\n\n")
	sb.WriteString("You MUST output your response in valid JSON format exactly matching this structure:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"issues\": [\n")
	sb.WriteString("    {\n")
	fmt.Fprintf(&sb, "      \"issue_type\": %s,\n", quoteAlternatives(RawIssueTypes))
	fmt.Fprintf(&sb, "      \"severity\": %s,\n", quoteAlternatives(RawSeverities))
	sb.WriteString("      \"title\": \"Short title of the issue\",\n")
	sb.WriteString("      \"description\": \"Detailed explanation\",\n")
	sb.WriteString("      \"line_number\": <integer or null>,\n")
	sb.WriteString("      \"suggestion\": \"How to fix it\"\n")
	sb.WriteString("    }\n")
	sb.WriteString("  ],\n")
	sb.WriteString("  \"optimized_code\": \"<The FULL fixed code. Do not truncate.>\",\n")
	sb.WriteString("  \"summary\": \"A brief 2-sentence summary of the code quality.\",\n")
	sb.WriteString("  \"issues_count\": <integer>\n")
	sb.WriteString("}\n\n")
	sb.WriteString("Line numbers are 1-based and refer to the submitted code.\n")
	sb.WriteString("Do not include any markdown formatting (like ```json). Return ONLY the raw JSON string.\n")
	return sb.String()
}

// Format returns the user prompt for req.
func (f *DefaultFormatter) Format(req AnalysisRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Language: %s\n", req.Language)
	if req.FileName != "" {
		fmt.Fprintf(&sb, "File: %s\n", req.FileName)
	}
	sb.WriteString("\nCode:\n")
	sb.WriteString(req.Code)
	return sb.String()
}

func quoteAlternatives(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, " | ")
}

// StripCodeFence removes a surrounding markdown code fence, which models
// sometimes add despite being told not to.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
