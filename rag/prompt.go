package rag

import "strings"

const (
	RefusalPhrase  = "I'm YouTube Chatbot, and I can only help with the video context."
	NotFoundPhrase = "I didn't find any information about this topic in the video."
)

const PromptTemplate = `You are YouTube Chatbot, a polite and helpful assistant.
Only answer questions related to the video's content. If a question is irrelevant, gently reply: "` + RefusalPhrase + `"
Stay respectful, calm, and to the point. No aggression, even if the user misbehaves.
Use bullet points for pros, cons, benefits, or similar questions.
If the video doesn't cover the topic, say: "` + NotFoundPhrase + `"
Context:
{context}

Question: {question}`

// RenderPrompt fills the {context} and {question} placeholders of tmpl.
// Placeholder text inside the substituted values is left alone.
func RenderPrompt(tmpl, context, question string) string {
	return strings.NewReplacer("{context}", context, "{question}", question).Replace(tmpl)
}

// FormatChunks joins retrieved chunks in retrieval order.
func FormatChunks(chunks []Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n")
}
