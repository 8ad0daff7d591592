package llm

// NewGroqClient returns a client pointing to the Groq chat endpoint, which
// speaks the OpenAI wire format.
func NewGroqClient(apiKey string) *GPTClient {
	c := NewGPTClient(apiKey, "https://api.groq.com/openai/v1")
	c.name = "groq"
	return c
}
