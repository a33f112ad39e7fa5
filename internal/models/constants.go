package models

const (
	ContextSeparator = "\n---\n"
	ThinkTag         = `(?s)<think>.*?</think>`
	CodeFence        = "(?s)^\\s*```(?:json)?\\s*(.*?)\\s*```\\s*$"
)

var (
	// MCQPromptTemplate is rendered with text, count, choices and points.
	MCQPromptTemplate = `Generate {{.count}} multiple-choice questions (MCQs) based on the following text.
Each question must have exactly {{.choices}} options, and exactly one of them is correct.
Return the result strictly as a JSON array, with no prose before or after it, in this format:
[
  {
    "question": "Question text",
    "choices": ["a) First option", "b) Second option", "c) Third option", "d) Fourth option"],
    "answer": "The correct option, copied in full from choices",
    "points": {{.points}}
  }
]

Text:
{{.text}}
`

	// QAPromptTemplate is rendered with context, history and question.
	QAPromptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{.context}}
{{if .history}}
Conversation so far:
{{.history}}
{{end}}
Question: {{.question}}
Helpful Answer:`

	// CondensePromptTemplate is rendered with history and question.
	CondensePromptTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
{{.history}}
Follow Up Input: {{.question}}
Standalone question:`

	QASystemPrompt = "You are a helpful assistant. Use the provided context to answer the query."
)
