package assistant

import (
	"fmt"
	"strings"

	"github.com/khanalasmit/rag-study-assistant/internal/rag"
)

// FormatContext renders retrieved chunks into the context block shared
// by all prompts. Each source carries an explicit page marker so the
// model can cite pages and fabricated citations are detectable.
func FormatContext(results rag.RetrievalContext) string {
	parts := make([]string, 0, len(results))
	for i, sc := range results {
		pageInfo := ""
		pageLabel := "PAGE UNKNOWN"
		if sc.Chunk.Page > 0 {
			pageInfo = fmt.Sprintf(" (Page %d)", sc.Chunk.Page)
			pageLabel = fmt.Sprintf("PAGE %d", sc.Chunk.Page)
		}
		parts = append(parts, fmt.Sprintf("[Source %d: %s%s]\n[%s]\n%s", i+1, sc.Chunk.DocID, pageInfo, pageLabel, sc.Chunk.Text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// AssembleQAPrompt builds the question-answering prompt. The model is
// instructed to answer only from the context and cite page numbers.
func AssembleQAPrompt(results rag.RetrievalContext, question string) string {
	var b strings.Builder

	b.WriteString("You are an AI Study Assistant designed to help students understand their study materials.\n")
	b.WriteString("Your role is to provide clear, accurate, and helpful explanations based ONLY on the provided context.\n\n")
	b.WriteString("CRITICAL INSTRUCTIONS FOR PREVENTING HALLUCINATIONS:\n")
	b.WriteString("1. Answer ONLY based on the provided context from the student's uploaded materials.\n")
	b.WriteString("2. ALWAYS cite the page number(s) when stating facts (e.g., \"According to page 33...\" or \"[Page 35]\").\n")
	b.WriteString("3. If the answer is not in the context, clearly say \"I couldn't find information about this in your study materials.\"\n")
	b.WriteString("4. NEVER make up information or add details not present in the provided context.\n")
	b.WriteString("5. If you're unsure about something, explicitly state your uncertainty.\n")
	b.WriteString("6. When referencing multiple sources, cite each page number separately.\n")
	b.WriteString("7. Structure your answers with headings and bullet points when helpful.\n\n")
	b.WriteString("CITATION FORMAT:\n")
	b.WriteString("- For single facts: \"According to page X, [fact]...\"\n")
	b.WriteString("- For multiple pages: \"Based on pages X and Y...\"\n")
	b.WriteString("- At the end: \"References: Pages X, Y, Z\"\n\n")
	b.WriteString("Context from your study materials (each source includes page numbers):\n")
	b.WriteString(FormatContext(results))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nPlease provide a clear and helpful answer only based on the study materials above.")

	return b.String()
}

// AssembleQuizPrompt builds the quiz generation prompt. The response
// contract is a bare JSON array so ParseQuizResponse can decode it.
func AssembleQuizPrompt(results rag.RetrievalContext, topic string, numQuestions int, questionType string) string {
	var b strings.Builder

	b.WriteString("You are an AI Study Assistant that generates practice questions from study materials.\n")
	fmt.Fprintf(&b, "Generate %d questions based on the provided context.\n\n", numQuestions)
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Create questions that test understanding, not just memorization.\n")
	b.WriteString("2. Include a mix of difficulty levels (easy, medium, hard).\n")
	b.WriteString("3. For MCQ questions, provide 4 options with only one correct answer.\n")
	b.WriteString("4. For short answer questions, provide a model answer.\n")
	b.WriteString("5. Base ALL questions strictly on the provided context.\n\n")
	b.WriteString("Context from study materials:\n")
	b.WriteString(FormatContext(results))
	fmt.Fprintf(&b, "\n\nGenerate %d %s questions about: %s\n\n", numQuestions, questionType, topic)
	b.WriteString("Format your response as a JSON array with this structure:\n")
	b.WriteString("[\n")
	b.WriteString("    {\n")
	b.WriteString("        \"question\": \"Question text\",\n")
	b.WriteString("        \"type\": \"mcq\" or \"short_answer\",\n")
	b.WriteString("        \"difficulty\": \"easy\", \"medium\", or \"hard\",\n")
	b.WriteString("        \"options\": [\"A\", \"B\", \"C\", \"D\"] (for MCQ only),\n")
	b.WriteString("        \"correct_answer\": \"Correct answer or option letter\",\n")
	b.WriteString("        \"explanation\": \"Brief explanation of why this is correct\"\n")
	b.WriteString("    }\n")
	b.WriteString("]\n\n")
	b.WriteString("Return ONLY the JSON array, no additional text.")

	return b.String()
}

// AssembleSummaryPrompt builds the topic summarization prompt.
func AssembleSummaryPrompt(results rag.RetrievalContext, focusArea string) string {
	var b strings.Builder

	b.WriteString("You are an AI Study Assistant that helps students by summarizing study materials.\n")
	b.WriteString("Create clear, concise summaries that capture the key points.\n\n")
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Focus on main concepts, definitions, and important facts.\n")
	b.WriteString("2. Organize information logically with clear structure.\n")
	b.WriteString("3. Highlight key terms and their definitions.\n")
	b.WriteString("4. Reference page numbers for major concepts (e.g., \"Primary Keys (page 33)\").\n")
	b.WriteString("5. Only include information from the provided context.\n\n")
	b.WriteString("Context to summarize (with page numbers):\n")
	b.WriteString(FormatContext(results))
	b.WriteString("\n\nPlease provide a comprehensive summary of the above content.\n")
	b.WriteString("Focus on: ")
	b.WriteString(focusArea)
	b.WriteString("\n\nStructure your summary with:\n")
	b.WriteString("1. Key Concepts\n2. Important Definitions\n3. Main Points\n4. Key Takeaways")

	return b.String()
}

// AssembleExplainPrompt builds the concept explanation prompt.
func AssembleExplainPrompt(results rag.RetrievalContext, concept string) string {
	var b strings.Builder

	b.WriteString("You are an AI Study Assistant helping students understand complex concepts.\n")
	b.WriteString("Explain concepts in simple terms using analogies and examples.\n\n")
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Break down complex topics into simpler parts.\n")
	b.WriteString("2. Use analogies and real-world examples ONLY from the provided context.\n")
	b.WriteString("3. Define technical terms clearly.\n")
	b.WriteString("4. Base explanations STRICTLY on the provided study materials.\n")
	b.WriteString("5. ALWAYS cite page numbers when referencing information.\n\n")
	b.WriteString("Context from study materials (with page numbers):\n")
	b.WriteString(FormatContext(results))
	b.WriteString("\n\nPlease explain this concept in detail: ")
	b.WriteString(concept)
	b.WriteString("\n\nProvide:\n")
	b.WriteString("1. A simple definition\n")
	b.WriteString("2. A detailed explanation\n")
	b.WriteString("3. An analogy or example\n")
	b.WriteString("4. How it relates to other concepts (if applicable)")

	return b.String()
}
