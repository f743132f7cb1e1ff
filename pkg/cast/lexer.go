package cast

import (
	"fmt"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Lexer
//
// Builds a flat token stream using goparsec combinators the same way the
// teacher's vm/hack lexers do (an `ast.OrdChoice` of terminal patterns driven
// by `ast.ManyUntil` up to `pc.End()`, walked with `ast.Parsewith`), but for a
// grammar with genuine longest-match requirements: "<=" must win over "<",
// "--" over "-", and so on. OrdChoice picks the first alternative that
// matches, so every multi-character pattern is listed before any
// single-character pattern it is a prefix of -- for this token set there is
// no pair of same-length alternatives that could compete, so "longest match,
// ties broken by declaration order" (spec) degrades exactly to "declare the
// longer alternative first" here.

var lexAST = pc.NewAST("lexer", 0)

var (
	pTokens = lexAST.ManyUntil("tokens", nil, pToken, pc.End())

	pToken = lexAST.OrdChoice("token", nil,
		// multi-character punctuation: must precede any single-character prefix
		pc.Atom("<<", string(TokLeftShift)), pc.Atom(">>", string(TokRightShift)),
		pc.Atom("<=", string(TokLessEqual)), pc.Atom(">=", string(TokGreaterEq)),
		pc.Atom("==", string(TokEqual)), pc.Atom("!=", string(TokNotEqual)),
		pc.Atom("&&", string(TokAnd)), pc.Atom("||", string(TokOr)),
		pc.Atom("--", string(TokDecrement)),
		// single-character punctuation and operators
		pc.Atom("{", string(TokOpenBrace)), pc.Atom("}", string(TokCloseBrace)),
		pc.Atom("(", string(TokOpenParen)), pc.Atom(")", string(TokCloseParen)),
		pc.Atom(";", string(TokSemicolon)), pc.Atom(",", string(TokComma)),
		pc.Atom("~", string(TokComplement)), pc.Atom("!", string(TokNot)),
		pc.Atom("=", string(TokAssign)),
		pc.Atom("+", string(TokPlus)), pc.Atom("-", string(TokMinus)),
		pc.Atom("*", string(TokStar)), pc.Atom("/", string(TokSlash)), pc.Atom("%", string(TokPercent)),
		pc.Atom("&", string(TokAmpersand)), pc.Atom("|", string(TokPipe)), pc.Atom("^", string(TokCaret)),
		pc.Atom("<", string(TokLess)), pc.Atom(">", string(TokGreater)),
		pc.Atom("?", string(TokQuestion)), pc.Atom(":", string(TokColon)),
		// payload tokens
		pc.Token(`[0-9]+\b`, string(TokConstant)),
		pc.Token(`[A-Za-z_][A-Za-z0-9_]*\b`, string(TokIdentifier)),
	)
)

// LexError reports that the token stream could not be scanned to completion.
// Per spec, diagnostics carry no position information.
type LexError struct {
	msg string
}

func (e *LexError) Error() string { return "lex error: " + e.msg }

// Lex tokenizes src in full, or fails with a *LexError if any byte isn't
// consumed by a token (including a trailing run that doesn't reach EOF).
// Whitespace between tokens is skipped by the underlying scanner.
func Lex(src []byte) ([]Token, error) {
	root, _ := lexAST.Parsewith(pTokens, pc.NewScanner(src))
	if root == nil {
		return nil, &LexError{msg: "couldn't find any match scanning the input to completion"}
	}

	if root.GetName() != "tokens" {
		return nil, &LexError{msg: fmt.Sprintf("expected node 'tokens', got %q", root.GetName())}
	}

	tokens := make([]Token, 0, len(root.GetChildren()))
	for _, child := range root.GetChildren() {
		tok, err := tokenFromNode(child)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func tokenFromNode(node pc.Queryable) (Token, error) {
	switch TokenKind(node.GetName()) {
	case TokConstant:
		return Token{Kind: TokConstant, Payload: node.GetValue()}, nil
	case TokIdentifier:
		if kw, isKeyword := keywords[node.GetValue()]; isKeyword {
			return Token{Kind: kw}, nil
		}
		return Token{Kind: TokIdentifier, Payload: node.GetValue()}, nil
	default:
		return Token{Kind: TokenKind(node.GetName())}, nil
	}
}
