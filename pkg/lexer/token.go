package lexer

import (
	"fmt"

	"github.com/thomasrohde/cookbook/pkg/ast"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Structure
	TokLParen TokenType = iota // (
	TokRParen                  // )
	TokLBrace                  // {
	TokRBrace                  // }
	TokSemicolon               // ;
	TokComma                   // ,

	// Verbs
	TokMix      // mix
	TokTakeAway // take away
	TokMultiply // combine, multiply
	TokDivide   // share, divide
	TokFlip     // flip
	TokCheckIf  // check if

	// Statement keywords
	TokRemember
	TokSet
	TokPrint
	TokAs
	TokTo
	TokIf     // if, when
	TokElse   // else, otherwise
	TokWhile  // while, repeat
	TokFor
	TokFun    // recipe, fun
	TokReturn // serve, return

	// Connectors
	TokAnd
	TokOr
	TokFrom
	TokWith

	// Comparison
	TokGreater // >
	TokLess    // <
	TokEqEq    // ==

	// Literals
	TokIdent
	TokString
	TokNumber
	TokTrue
	TokFalse
	TokNil

	// Special
	TokEOF
)

var tokenNames = [...]string{
	TokLParen:    "LEFT_PAREN",
	TokRParen:    "RIGHT_PAREN",
	TokLBrace:    "LEFT_BRACE",
	TokRBrace:    "RIGHT_BRACE",
	TokSemicolon: "SEMICOLON",
	TokComma:     "COMMA",
	TokMix:       "MIX",
	TokTakeAway:  "TAKE_AWAY",
	TokMultiply:  "MULTIPLY",
	TokDivide:    "DIVIDE",
	TokFlip:      "FLIP",
	TokCheckIf:   "CHECK_IF",
	TokRemember:  "REMEMBER",
	TokSet:       "SET",
	TokPrint:     "PRINT",
	TokAs:        "AS",
	TokTo:        "TO",
	TokIf:        "IF",
	TokElse:      "ELSE",
	TokWhile:     "WHILE",
	TokFor:       "FOR",
	TokFun:       "FUN",
	TokReturn:    "RETURN",
	TokAnd:       "AND",
	TokOr:        "OR",
	TokFrom:      "FROM",
	TokWith:      "WITH",
	TokGreater:   "GREATER",
	TokLess:      "LESS",
	TokEqEq:      "EQUAL_EQUAL",
	TokIdent:     "IDENTIFIER",
	TokString:    "STRING",
	TokNumber:    "NUMBER",
	TokTrue:      "TRUE",
	TokFalse:     "FALSE",
	TokNil:       "NIL",
	TokEOF:       "EOF",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// IsKeyword reports whether t is spelled with letters.
func (t TokenType) IsKeyword() bool {
	return (t >= TokMix && t <= TokWith) || t == TokTrue || t == TokFalse || t == TokNil
}

// Token represents a single lexer token. Literal is a float64 for
// TokNumber, a string for TokString and nil otherwise.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any
	Span    ast.Span
}

// Line returns the token's 1-based source line.
func (t Token) Line() int {
	return t.Span.StartLine
}

func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s %q %v", t.Type, t.Lexeme, t.Literal)
	}
	return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
}

// keywords maps case-folded spellings to token types. Two-word entries are
// matched by the scanner's lookahead.
var keywords = map[string]TokenType{
	"mix":       TokMix,
	"take away": TokTakeAway,
	"combine":   TokMultiply,
	"multiply":  TokMultiply,
	"share":     TokDivide,
	"divide":    TokDivide,
	"flip":      TokFlip,
	"check if":  TokCheckIf,

	"remember":  TokRemember,
	"set":       TokSet,
	"print":     TokPrint,
	"as":        TokAs,
	"to":        TokTo,
	"if":        TokIf,
	"when":      TokIf,
	"else":      TokElse,
	"otherwise": TokElse,
	"while":     TokWhile,
	"repeat":    TokWhile,
	"for":       TokFor,
	"recipe":    TokFun,
	"fun":       TokFun,
	"serve":     TokReturn,
	"return":    TokReturn,

	"and":  TokAnd,
	"or":   TokOr,
	"from": TokFrom,
	"with": TokWith,

	"true":  TokTrue,
	"false": TokFalse,
	"nil":   TokNil,
}

// LookupKeyword returns the token type for a case-folded word or phrase.
func LookupKeyword(folded string) (TokenType, bool) {
	t, ok := keywords[folded]
	return t, ok
}
