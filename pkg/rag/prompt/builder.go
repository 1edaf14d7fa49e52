package prompt

import (
	"fmt"
	"strings"

	"legal-rag-be/internal/entity"
	"legal-rag-be/pkg/llm"
)

const SystemPrompt = `You are a knowledgeable legal assistant specializing in Bangladesh law.
Your role is to help users understand legal judgments and answer questions about cases, statutes and legal procedure.

Guidelines:
- Answer ONLY from the provided legal document context
- If the context does not contain relevant information, say so clearly
- Cite case names, sections or legal provisions when applicable
- Reference source documents using the format [Source X: filename:chunk_number]
- Keep context from previous messages in the conversation
- Prefer accuracy over giving an answer`

// NoContextNotice opens every prompt that has no grounding context.
const NoContextNotice = "No relevant context found in the indexed legal documents."

// GroundedBuilder assembles the final user turn from retrieved passages.
type GroundedBuilder struct {
	question string
	results  []entity.RetrievalResult
}

func NewGroundedBuilder(question string, results []entity.RetrievalResult) *GroundedBuilder {
	return &GroundedBuilder{
		question: question,
		results:  results,
	}
}

// Build renders the context blocks followed by the question. Block i is
// labelled "[Source i: <citation key>]" so the model cites the same ids the
// caller returns.
func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	if len(b.results) == 0 {
		b.writeNoContext(&prompt)
	} else {
		b.writeContext(&prompt)
	}
	b.writeQuestion(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeContext(prompt *strings.Builder) {
	prompt.WriteString("Context from legal documents:\n\n")
	for i, r := range b.results {
		fmt.Fprintf(prompt, "[Source %d: %s]\n", i+1, r.Chunk.Location())
		if r.Chunk.Metadata.CaseName != "" {
			fmt.Fprintf(prompt, "Case: %s\n", r.Chunk.Metadata.CaseName)
		}
		prompt.WriteString(strings.TrimSpace(r.Chunk.Text))
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Answer using only the context above and cite the sources you rely on.\n\n")
}

func (b *GroundedBuilder) writeNoContext(prompt *strings.Builder) {
	prompt.WriteString(NoContextNotice)
	prompt.WriteString("\nTell the user that no relevant context was found for this question. Do not invent sources or citations.\n\n")
}

func (b *GroundedBuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("Question: ")
	prompt.WriteString(strings.TrimSpace(b.question))
}

// Conversation lays out the chat history sent to the model: the system
// instruction, prior turns, then the grounded question.
func Conversation(history []entity.Message, grounded string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt})
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == entity.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: grounded})
}

// FormatResponseWithSources appends a Markdown source list to answer.
func FormatResponseWithSources(answer string, sources []entity.Source) string {
	if len(sources) == 0 {
		return answer
	}

	var out strings.Builder
	out.WriteString(answer)
	out.WriteString("\n\n**Sources:**\n")
	for _, s := range sources {
		fmt.Fprintf(&out, "- [%d] %s", s.Id, s.Location)
		if s.CaseName != "" {
			fmt.Fprintf(&out, " (%s)", s.CaseName)
		}
		out.WriteString("\n")
	}
	return out.String()
}
