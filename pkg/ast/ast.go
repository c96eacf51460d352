// Package ast defines the Cookbook language AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpMix      BinaryOp = "mix"
	OpTakeAway BinaryOp = "take away"
	OpCombine  BinaryOp = "combine"
	OpShare    BinaryOp = "share"
	OpGt       BinaryOp = ">"
	OpLt       BinaryOp = "<"
	OpEqEq     BinaryOp = "=="
)

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpFlip UnaryOp = "flip"
)

// LogicalOp represents a short-circuiting operator.
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
)

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Literal Expressions ---

type NumberLiteral struct {
	Span  Span
	Value float64
}

func (n *NumberLiteral) Kind() string   { return "NumberLiteral" }
func (n *NumberLiteral) NodeSpan() Span { return n.Span }
func (n *NumberLiteral) exprNode()      {}

type StringLiteral struct {
	Span  Span
	Value string
}

func (n *StringLiteral) Kind() string   { return "StringLiteral" }
func (n *StringLiteral) NodeSpan() Span { return n.Span }
func (n *StringLiteral) exprNode()      {}

type BoolLiteral struct {
	Span  Span
	Value bool
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) exprNode()      {}

type NilLiteral struct {
	Span Span
}

func (n *NilLiteral) Kind() string   { return "NilLiteral" }
func (n *NilLiteral) NodeSpan() Span { return n.Span }
func (n *NilLiteral) exprNode()      {}

// --- Compound Expressions ---

type Grouping struct {
	Span Span
	Expr Expr
}

func (n *Grouping) Kind() string   { return "Grouping" }
func (n *Grouping) NodeSpan() Span { return n.Span }
func (n *Grouping) exprNode()      {}

type UnaryExpr struct {
	Span    Span
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) Kind() string   { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() Span { return n.Span }
func (n *UnaryExpr) exprNode()      {}

// BinaryExpr always evaluates Left op Right. For "take away A from B" the
// parser stores B as Left and A as Right.
type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

type LogicalExpr struct {
	Span  Span
	Op    LogicalOp
	Left  Expr
	Right Expr
}

func (n *LogicalExpr) Kind() string   { return "LogicalExpr" }
func (n *LogicalExpr) NodeSpan() Span { return n.Span }
func (n *LogicalExpr) exprNode()      {}

type Variable struct {
	Span Span
	Name string
}

func (n *Variable) Kind() string   { return "Variable" }
func (n *Variable) NodeSpan() Span { return n.Span }
func (n *Variable) exprNode()      {}

// CallExpr's Span points at the closing paren, which is where arity and
// callable errors are reported.
type CallExpr struct {
	Span   Span
	Callee Expr
	Args   []Expr
}

func (n *CallExpr) Kind() string   { return "CallExpr" }
func (n *CallExpr) NodeSpan() Span { return n.Span }
func (n *CallExpr) exprNode()      {}

// --- Statements ---

type ExprStmt struct {
	Span Span
	Expr Expr
}

func (n *ExprStmt) Kind() string   { return "ExprStmt" }
func (n *ExprStmt) NodeSpan() Span { return n.Span }
func (n *ExprStmt) stmtNode()      {}

type PrintStmt struct {
	Span Span
	Expr Expr
}

func (n *PrintStmt) Kind() string   { return "PrintStmt" }
func (n *PrintStmt) NodeSpan() Span { return n.Span }
func (n *PrintStmt) stmtNode()      {}

type VarDecl struct {
	Span Span
	Name string
	Init Expr
}

func (n *VarDecl) Kind() string   { return "VarDecl" }
func (n *VarDecl) NodeSpan() Span { return n.Span }
func (n *VarDecl) stmtNode()      {}

type AssignStmt struct {
	Span  Span
	Name  string
	Value Expr
}

func (n *AssignStmt) Kind() string   { return "AssignStmt" }
func (n *AssignStmt) NodeSpan() Span { return n.Span }
func (n *AssignStmt) stmtNode()      {}

type BlockStmt struct {
	Span  Span
	Stmts []Stmt
}

func (n *BlockStmt) Kind() string   { return "BlockStmt" }
func (n *BlockStmt) NodeSpan() Span { return n.Span }
func (n *BlockStmt) stmtNode()      {}

type IfStmt struct {
	Span Span
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

func (n *IfStmt) Kind() string   { return "IfStmt" }
func (n *IfStmt) NodeSpan() Span { return n.Span }
func (n *IfStmt) stmtNode()      {}

type WhileStmt struct {
	Span Span
	Cond Expr
	Body Stmt
}

func (n *WhileStmt) Kind() string   { return "WhileStmt" }
func (n *WhileStmt) NodeSpan() Span { return n.Span }
func (n *WhileStmt) stmtNode()      {}

type FunDecl struct {
	Span   Span
	Name   string
	Params []string
	Body   []Stmt
}

func (n *FunDecl) Kind() string   { return "FunDecl" }
func (n *FunDecl) NodeSpan() Span { return n.Span }
func (n *FunDecl) stmtNode()      {}

type ReturnStmt struct {
	Span  Span
	Value Expr // nil for a bare serve
}

func (n *ReturnStmt) Kind() string   { return "ReturnStmt" }
func (n *ReturnStmt) NodeSpan() Span { return n.Span }
func (n *ReturnStmt) stmtNode()      {}

// NoOpStmt stands in for a statement that failed to parse.
type NoOpStmt struct {
	Span Span
}

func (n *NoOpStmt) Kind() string   { return "NoOpStmt" }
func (n *NoOpStmt) NodeSpan() Span { return n.Span }
func (n *NoOpStmt) stmtNode()      {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
