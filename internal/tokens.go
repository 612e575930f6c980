package internal

// Tokenizer estimates the token count of a string. The default is the usual
// chars/4 heuristic; callers with a real vocabulary can inject their own.
type Tokenizer func(s string) int

// turnOverheadTokens models the fixed per-message formatting cost (role tag
// and message delimiters) charged on top of the content tokens.
const turnOverheadTokens = 4

// EstimateTokens is the default Tokenizer.
func EstimateTokens(s string) int {
	return len(s) / 4
}
