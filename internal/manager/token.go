package manager

// TokenKind tags a Token value.
type TokenKind uint8

const (
	// TokenText carries one generated text fragment.
	TokenText TokenKind = iota
	// TokenEndOfText ends a stream: the model finished or a stop sequence matched.
	TokenEndOfText
	// TokenCutOff ends a stream: the max_tokens budget was exhausted.
	TokenCutOff
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenEndOfText:
		return "end_of_text"
	case TokenCutOff:
		return "cut_off"
	default:
		return "unknown"
	}
}

// Token is one value on a reply stream. Text is only meaningful for TokenText.
type Token struct {
	Kind TokenKind
	Text string
}

// Terminal tokens.
var (
	EndOfText = Token{Kind: TokenEndOfText}
	CutOff    = Token{Kind: TokenCutOff}
)

// TextToken wraps a generated fragment.
func TextToken(fragment string) Token { return Token{Kind: TokenText, Text: fragment} }

// Terminal reports whether t ends a stream.
func (t Token) Terminal() bool { return t.Kind == TokenEndOfText || t.Kind == TokenCutOff }
