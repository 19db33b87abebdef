package def

import (
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2/lexer"
)

// DEFLexer splits DEF text into whitespace-delimited tokens.
// DEF separates every token with whitespace except parentheses and the
// statement terminator, so a single catch-all Word rule covers names,
// keywords, numbers and the "-" / "+" markers. Every input byte matches
// some rule, so lexing never fails on malformed text.
var DEFLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run from # to end of line
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},

	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "Word", Pattern: `[^\s()";]+`},

	// Stray quote from an unterminated string
	{Name: "Quote", Pattern: `"`},
})

var (
	tokComment    = DEFLexer.Symbols()["Comment"]
	tokWhitespace = DEFLexer.Symbols()["Whitespace"]
	tokLParen     = DEFLexer.Symbols()["LParen"]
	tokRParen     = DEFLexer.Symbols()["RParen"]
	tokSemicolon  = DEFLexer.Symbols()["Semicolon"]
	tokWord       = DEFLexer.Symbols()["Word"]
)

// tokenStream hands out significant tokens one at a time with a small
// pushback stack. Comments and whitespace are dropped.
type tokenStream struct {
	lex     lexer.Lexer
	pending []lexer.Token
	err     error
}

func newTokenStream(filename string, r io.Reader) (*tokenStream, error) {
	lex, err := DEFLexer.Lex(filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to start lexer: %w", err)
	}
	return &tokenStream{lex: lex}, nil
}

// next returns the next significant token. After a lexer error it keeps
// returning EOF; the error is available from s.err.
func (s *tokenStream) next() lexer.Token {
	if n := len(s.pending); n > 0 {
		tok := s.pending[n-1]
		s.pending = s.pending[:n-1]
		return tok
	}
	if s.err != nil {
		return lexer.EOFToken(lexer.Position{})
	}
	for {
		tok, err := s.lex.Next()
		if err != nil {
			s.err = err
			return lexer.EOFToken(tok.Pos)
		}
		if tok.Type == tokComment || tok.Type == tokWhitespace {
			continue
		}
		return tok
	}
}

func (s *tokenStream) backup(tok lexer.Token) {
	s.pending = append(s.pending, tok)
}

// peek returns the next significant token without consuming it
func (s *tokenStream) peek() lexer.Token {
	tok := s.next()
	s.backup(tok)
	return tok
}

func isWord(tok lexer.Token, value string) bool {
	return tok.Type == tokWord && tok.Value == value
}

// atBlockEnd reports tokens that close a pin block without its ";": the
// start of the next block, a section END or end of input. END only counts
// when a section keyword follows it, so a pin or net named END stays inside
// its block.
func (s *tokenStream) atBlockEnd(tok lexer.Token) bool {
	if tok.EOF() || isWord(tok, "-") {
		return true
	}
	if !isWord(tok, "END") {
		return false
	}
	next := s.peek()
	return next.EOF() || (next.Type == tokWord && !isWord(next, "+") && !isWord(next, "-"))
}
