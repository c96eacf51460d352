// Package help holds the Cookbook quick reference and the topic pages shown
// by "cook help".
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomasrohde/cookbook/pkg/stdlib"
)

// QUICKREF is printed by "cook help" without a topic.
const QUICKREF = `Cookbook v1.0 quick reference

  remember x as 1;            declare a variable
  set x to mix x and 2;       assign an existing variable
  print x;                    write a value and a newline

  mix A and B                 A + B (numbers) or joined text
  take away A from B          B - A (numbers) or B without A (text)
  combine A with B            A * B
  share A with B              A / B
  flip A                      -A
  check if A < B              comparison (also >, ==)

  if (c) ... else ...         when / otherwise also work
  while (c) ...               repeat also works
  for (init; cond; step) ...
  recipe name(a, b) { serve a; }

Topics: syntax, types, verbs, flow, recipes, natives, diagnostics, examples
Run "cook help <topic>" for details.
`

// TopicList is the display order of Topics.
var TopicList = []string{"syntax", "types", "verbs", "flow", "recipes", "natives", "diagnostics", "examples"}

// Topics maps topic names to their help pages.
var Topics = map[string]string{
	"syntax": `SYNTAX

Statements end with ';'. Keywords are case-insensitive; names are not.

  remember NAME as EXPR;      declaration in the current scope
  set NAME to EXPR;           assignment; NAME must already exist
  print EXPR;
  { ... }                     block with its own scope
  EXPR;                       expression statement

Literals: 12, 2.5, "text" (may span lines, no escapes), true, false, nil.
Comments: # line, // line, /* block */.
'=' on its own is not an operator; use "set x to ...".
`,

	"types": `TYPES

  nil        the absence of a value
  boolean    true, false
  number     64-bit float; whole numbers print without a fraction;
             overflow prints Infinity or -Infinity, undefined results NaN
  string     text
  recipe     a user-defined function
  native     a built-in function

Only nil and false are falsy. 0 and "" are truthy.
'==' compares kind and value; recipes are equal only to themselves.
`,

	"verbs": `VERBS

Arithmetic is spelled with verb phrases. Each phrase takes exactly two
operands; nest them by prefix or parentheses.

  mix A and B          numbers add; if either side is text, both are joined
  take away A from B   B - A; on text, removes every A from B
                       (a number A removes its whole-number digits)
  combine A with B     multiply
  share A with B       divide; sharing by 0 is an error
  flip A               negate
  check if A > B       comparison; also <, ==

  mix mix 1 and 2 and 3        => 6
  combine (mix 1 and 2) with 3 => 9
`,

	"flow": `CONTROL FLOW

  if (COND) STMT [else STMT]          aliases: when / otherwise
  while (COND) STMT                   alias: repeat
  for (INIT; COND; STEP) STMT         INIT is a remember, set, or expression;
                                      any clause may be empty

'and' / 'or' short-circuit and return the operand that decided the result.
`,

	"recipes": `RECIPES

  recipe area(w, h) {
    serve combine w with h;
  }
  print area(3, 4);

'fun' is an alias for 'recipe'; 'return' is an alias for 'serve'.
A recipe without serve gives nil. Recipes capture the scope they are
declared in, so inner recipes can keep state between calls. Calling with
the wrong number of arguments is an error. serve outside a recipe is an
error.
`,

	"natives": `NATIVES

Built-in recipes available in every session:

` + NativesIndex(),

	"diagnostics": `DIAGNOSTICS

Syntax errors are collected for the whole file; well-formed statements
still run:

  [line 3] Error at 'as': Expect expression.
  [line 9] Error at end: Expect ';' after value.

A runtime error stops the run:

  [line 7] Runtime error: Division by zero.

Codes: E_LEX, E_PARSE (syntax); E_TYPE, E_DIV_ZERO, E_UNBOUND, E_ARITY,
E_NOT_CALLABLE, E_RETURN, E_NATIVE, E_IO, E_STACK (runtime); E_RETURN_TOP, E_DUP_PARAM,
E_UNREACHABLE (cook check).

Exit codes: 0 ok, 1 usage or I/O, 65 syntax error, 70 runtime error.
`,

	"examples": `EXAMPLES

  remember flour as 200;
  remember sugar as 50;
  print mix flour and sugar;              # 250

  recipe fib(n) {
    if (check if n < 2) serve n;
    serve mix fib(take away 1 from n) and fib(take away 2 from n);
  }
  print fib(10);                          # 55

  recipe counter() {
    remember count as 0;
    recipe next() { set count to mix count and 1; serve count; }
    serve next;
  }
  remember tick as counter();
  tick(); print tick();                   # 2

  print take away "salt" from "saltwater"; # water
`,
}

var nativeDocs = map[string]string{
	"clock": "seconds since the session started",
	"show":  "print a value and a newline; returns nil",
}

// NativesIndex lists the default natives with their arity.
func NativesIndex() string {
	natives := stdlib.Defaults()
	var b strings.Builder
	for _, n := range natives {
		params := make([]string, n.Arity())
		for i := range params {
			params[i] = fmt.Sprintf("arg%d", i+1)
		}
		sig := fmt.Sprintf("%s(%s)", n.Name(), strings.Join(params, ", "))
		fmt.Fprintf(&b, "  %-14s %s\n", sig, nativeDocs[n.Name()])
	}
	fmt.Fprintf(&b, "\nTotal: %d natives\n", len(natives))
	return b.String()
}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	if query == "" {
		return "", "", fmt.Errorf("empty help topic")
	}

	var matches []string
	for _, name := range TopicList {
		if strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	case 1:
		return matches[0], Topics[matches[0]], nil
	}
	sort.Strings(matches)
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}
