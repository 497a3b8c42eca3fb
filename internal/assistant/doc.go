// Package assistant answers free-form questions about a profit-and-loss table with a
// language model. It sits outside the forecasting core: it only reads a table, renders
// it into a system prompt and hands the question to a Provider.
//
// Providers: Gemini (google.golang.org/genai), OpenAI and a local Ollama server (both via
// the chat-completions API of github.com/sashabaranov/go-openai) and an offline provider.
// Replies are plain markdown plus an HTML rendering. TranscriptStore keeps the chat
// history in a flat JSON file.
package assistant
