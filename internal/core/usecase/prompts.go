package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/compliance-navigator/internal/core/analysis"
	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

const newConversationMarker = "This is the start of a new conversation."

const intentSystemPrompt = "Extract intent: DISCOVERY, COMPLIANCE, TIMELINE, PLATFORM, DOCUMENT_ANALYSIS, or GENERAL. Return only the intent type."

const (
	documentAnalysisSystemPrompt = "You are an expert MSME compliance advisor. Analyze document extraction results and provide specific, actionable compliance guidance for Indian businesses."
	fssaiSystemPrompt            = "You are an expert in Indian food business compliance, specifically FSSAI regulations. Provide accurate, actionable guidance."
	discoverySystemPrompt        = "You are an MSME business discovery advisor for India. Help first-time founders choose a business that fits their budget, location and skills."
	complianceSystemPrompt       = "You are an MSME compliance expert for India. List the registrations and licenses a business needs, in the order they should be obtained."
	timelineSystemPrompt         = "You are an MSME setup planner for India. Give realistic processing times for registrations and licenses and a step-by-step plan."
	platformSystemPrompt         = "You are an expert on onboarding Indian small businesses to online platforms such as Swiggy, Zomato, Amazon and Flipkart."
)

func hasConversation(summary string) bool {
	summary = strings.TrimSpace(summary)
	return summary != "" && summary != newConversationMarker
}

func complianceScoreOf(docs *domain.DocumentContext) int {
	if docs == nil || docs.CombinedAnalysis == nil {
		return 0
	}
	return docs.CombinedAnalysis.ComplianceScore
}

func buildIntentPrompt(rc domain.RoutingContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message: %q.", rc.Message)
	if rc.Documents != nil {
		fmt.Fprintf(&b, "\nDocument Analysis: User uploaded %d documents with %d%% compliance score.",
			rc.Documents.UploadedFiles, complianceScoreOf(rc.Documents))
	}
	if hasConversation(rc.ConversationSummary) {
		b.WriteString("\nConversation Context: " + rc.ConversationSummary)
	}
	b.WriteString("\nIntent:")
	if declared := strings.TrimSpace(rc.DeclaredIntent); declared != "" {
		fmt.Fprintf(&b, " User's declared intent: %s.", declared)
	}
	b.WriteString(" Intent:")
	return b.String()
}

func languageSystemPrompt(lang, name string) string {
	if lang == "" || lang == "en" {
		return "You are an MSME business compliance expert for India. Provide detailed, accurate information about licenses, registrations, and business setup procedures."
	}
	return fmt.Sprintf("You are an MSME business compliance expert for India. Respond in %s with detailed, accurate information about licenses, registrations, and business setup procedures. Translate all content while keeping technical terms like GST, FSSAI, PAN, MSME with explanations in %s.", name, name)
}

func languageUserPrompt(message, lang, name string) string {
	prompt := fmt.Sprintf("User message in %s: %q", name, message)
	if lang == "" || lang == "en" {
		return prompt + "\n\nProvide comprehensive information about Indian MSME compliance, licenses, and business setup."
	}
	return prompt + fmt.Sprintf(`

IMPORTANT TRANSLATION REQUIREMENTS:
1. Respond ENTIRELY in %s
2. Translate ALL content including business terms, explanations, and guidance
3. Keep only these technical terms in English with %s explanation: GST, FSSAI, PAN, MSME, IEC
4. Provide comprehensive, detailed information about Indian business compliance
5. Use simple, clear language that business owners can understand
6. Include specific document requirements, timelines, and procedures`, name, name)
}

// prettyJSON renders v the way it is embedded in prompts. Marshal failures
// fall back to an empty object.
func prettyJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func profileOrEmpty(profile *domain.BusinessProfile) domain.BusinessProfile {
	if profile == nil {
		return domain.BusinessProfile{}
	}
	return *profile
}

func statusBadge(confidence int) string {
	switch {
	case confidence >= analysis.CompleteBand:
		return "Complete ✅"
	case confidence >= analysis.PartialBand:
		return "Partial ⚠️"
	default:
		return "Incomplete ❌"
	}
}

func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, "\n- ")
}

func buildDocumentAnalysisPrompt(message string, docs *domain.DocumentContext) string {
	combined := domain.CombinedAnalysis{}
	if docs.CombinedAnalysis != nil {
		combined = *docs.CombinedAnalysis
	}
	fields := combined.ExtractedFields
	if fields == nil {
		fields = domain.FieldMap{}
	}

	details := make([]string, 0, len(docs.FileResults))
	for i, file := range docs.FileResults {
		name := file.FileName
		if name == "" {
			name = string(file.DocumentType)
		}
		docType := string(file.DocumentType)
		if docType == "" {
			docType = "Unknown"
		}
		details = append(details, fmt.Sprintf("%d. %s\n   - Type: %s\n   - Status: %s\n   - Confidence: %d%%",
			i+1, name, docType, statusBadge(file.Confidence), file.Confidence))
	}

	return fmt.Sprintf(`Analyze the following document processing results and provide MSME compliance guidance:

📊 DOCUMENT SUMMARY:
- Total uploaded: %d documents
- Successfully processed: %d documents
- Overall compliance score: %d%%

📋 EXTRACTED INFORMATION:
%s

⚠️ IDENTIFIED ISSUES:
%s

💡 RECOMMENDATIONS:
%s

🗂️ DOCUMENT DETAILS:
%s

User Question: %q

Please provide:
1. Validation of the extracted information
2. Compliance status assessment for MSME registration
3. What documents are missing or need improvement
4. Specific next steps
5. Any regulatory concerns or opportunities

Be specific about MSME compliance requirements and actionable next steps.`,
		docs.UploadedFiles,
		docs.SuccessfulExtractions,
		combined.ComplianceScore,
		prettyJSON(fields),
		bulletList(combined.AllIssues, "No major issues detected"),
		bulletList(combined.AllRecommendations, "Standard compliance procedures apply"),
		strings.Join(details, "\n"),
		message,
	)
}

func buildFSSAIPrompt(message string, profile domain.BusinessProfile) string {
	return fmt.Sprintf(`Provide detailed information about FSSAI (Food Safety and Standards Authority of India) license requirements.

Business Context: %s

User Question: %q

Please provide:
1. Types of FSSAI licenses (Basic, State, Central)
2. Required documents for each type
3. Application process and timelines
4. Fees and costs
5. Specific requirements based on business type
6. Digital application process

Be comprehensive and include practical guidance for Indian food businesses.`, prettyJSON(profile), message)
}

// BuildDocumentChatPrompt folds a batch into the message forwarded to the
// router when files arrive together with a chat question.
func BuildDocumentChatPrompt(message string, results []domain.FileResult, combined domain.CombinedAnalysis) string {
	var b strings.Builder
	if strings.TrimSpace(message) == "" {
		message = "Please analyze my uploaded documents for MSME compliance."
	}
	b.WriteString(message)
	b.WriteString("\n\n=== DOCUMENT ANALYSIS RESULTS ===\n")
	fmt.Fprintf(&b, "\nOVERALL SUMMARY:\n- Total Documents: %d\n- Complete Documents: %d\n- Incomplete Documents: %d\n- Average Compliance Score: %d%%\n",
		combined.TotalDocuments, combined.CompleteDocuments, combined.IncompleteDocuments, combined.ComplianceScore)

	b.WriteString("\nDOCUMENT DETAILS:\n")
	index := 0
	for _, res := range results {
		if !res.Success || res.DocumentAnalysis == nil {
			continue
		}
		index++
		a := res.DocumentAnalysis
		fmt.Fprintf(&b, "\n%d. %s\n   Type: %s\n   Confidence: %d%%\n   Status: %s",
			index, res.FileName, a.DocumentType, a.Confidence, statusBadge(a.Confidence))
		if len(a.ExtractedFields) > 0 {
			b.WriteString("\n   Extracted Data: " + prettyJSON(a.ExtractedFields))
		}
		if len(a.Issues) > 0 {
			b.WriteString("\n   Issues: " + strings.Join(a.Issues, ", "))
		}
		b.WriteString("\n")
	}

	if len(combined.ExtractedFields) > 0 {
		fmt.Fprintf(&b, "\nKEY EXTRACTED INFORMATION:\n%s\n", prettyJSON(combined.ExtractedFields))
	}
	if len(combined.AllIssues) > 0 {
		b.WriteString("\nIDENTIFIED ISSUES:\n")
		for _, issue := range combined.AllIssues {
			b.WriteString("- " + issue + "\n")
		}
	}

	b.WriteString(`
Based on this analysis, please provide:
1. A summary of what documents were uploaded and their compliance status
2. What information was successfully extracted and verified
3. Any missing or incomplete information
4. Specific recommendations for MSME compliance
5. Next steps the user should take
6. Any additional documents that might be needed

Please be specific and actionable in your response, focusing on MSME compliance requirements.`)
	return b.String()
}
