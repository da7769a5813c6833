package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Env resolves the names a formula uses that are not built in. Both
// methods report false for names they do not know, which evaluate to NaN.
type Env interface {
	Value(name string) (float64, bool)
	Call(name string, args []float64) (float64, bool)
}

// Vars is an Env of plain values and no functions.
type Vars map[string]float64

func (v Vars) Value(name string) (float64, bool) {
	x, ok := v[name]
	return x, ok
}

func (v Vars) Call(string, []float64) (float64, bool) { return 0, false }

// Node is an expression tree node.
type Node interface {
	Eval(env Env) float64
	String() string
}

// Number is a literal.
type Number struct {
	Value float64
}

func (n *Number) Eval(Env) float64 { return n.Value }
func (n *Number) String() string   { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// Var is a named value.
type Var struct {
	Name string
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"nan": math.NaN(),
	"inf": math.Inf(1),
}

func (v *Var) Eval(env Env) float64 {
	if env != nil {
		if x, ok := env.Value(v.Name); ok {
			return x
		}
	}
	if x, ok := constants[strings.ToLower(v.Name)]; ok {
		return x
	}
	return math.NaN()
}

func (v *Var) String() string { return v.Name }

// Unary is a prefix operator: -, + or !.
type Unary struct {
	Op string
	X  Node
}

func (u *Unary) Eval(env Env) float64 {
	x := u.X.Eval(env)
	switch u.Op {
	case "-":
		return -x
	case "!":
		return boolean(!truth(x))
	default:
		return x
	}
}

func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.X) }

// Binary is an infix operator.
type Binary struct {
	Op   string
	L, R Node
}

func (b *Binary) Eval(env Env) float64 {
	switch b.Op {
	case "&&":
		return boolean(truth(b.L.Eval(env)) && truth(b.R.Eval(env)))
	case "||":
		return boolean(truth(b.L.Eval(env)) || truth(b.R.Eval(env)))
	}
	l, r := b.L.Eval(env), b.R.Eval(env)
	switch b.Op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		return l / r
	case "%":
		return math.Mod(l, r)
	case "^":
		return math.Pow(l, r)
	case "==", "=":
		return boolean(l == r)
	case "!=", "<>":
		return boolean(l != r)
	case "<":
		return boolean(l < r)
	case "<=":
		return boolean(l <= r)
	case ">":
		return boolean(l > r)
	case ">=":
		return boolean(l >= r)
	}
	return math.NaN()
}

func (b *Binary) String() string { return fmt.Sprintf("(%s %s %s)", b.L, b.Op, b.R) }

// Cond is test ? then : else.
type Cond struct {
	Test, Then, Else Node
}

func (c *Cond) Eval(env Env) float64 {
	if truth(c.Test.Eval(env)) {
		return c.Then.Eval(env)
	}
	return c.Else.Eval(env)
}

func (c *Cond) String() string { return fmt.Sprintf("(%s ? %s : %s)", c.Test, c.Then, c.Else) }

// Call is a function call. Built-in functions take precedence over the Env.
type Call struct {
	Name string
	Args []Node
}

func (c *Call) Eval(env Env) float64 {
	name := strings.ToLower(c.Name)
	if name == "if" {
		if len(c.Args) != 3 {
			return math.NaN()
		}
		return (&Cond{Test: c.Args[0], Then: c.Args[1], Else: c.Args[2]}).Eval(env)
	}
	args := make([]float64, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Eval(env)
	}
	if fn, ok := builtins[name]; ok {
		return fn(args)
	}
	if env != nil {
		if x, ok := env.Call(c.Name, args); ok {
			return x
		}
	}
	return math.NaN()
}

func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

// truth treats nonzero numbers as true and NaN as false.
func truth(x float64) bool { return x != 0 && !math.IsNaN(x) }

func boolean(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func unary(fn func(float64) float64) func([]float64) float64 {
	return func(args []float64) float64 {
		if len(args) != 1 {
			return math.NaN()
		}
		return fn(args[0])
	}
}

// withPlaces applies fn at a number of decimal places given by an
// optional second argument.
func withPlaces(fn func(float64) float64) func([]float64) float64 {
	return func(args []float64) float64 {
		switch len(args) {
		case 1:
			return fn(args[0])
		case 2:
			scale := math.Pow(10, math.Trunc(args[1]))
			return fn(args[0]*scale) / scale
		}
		return math.NaN()
	}
}

func fold(fn func(a, b float64) float64) func([]float64) float64 {
	return func(args []float64) float64 {
		if len(args) == 0 {
			return math.NaN()
		}
		x := args[0]
		for _, y := range args[1:] {
			x = fn(x, y)
		}
		return x
	}
}

var builtins = map[string]func([]float64) float64{
	"abs":   unary(math.Abs),
	"sqrt":  unary(math.Sqrt),
	"exp":   unary(math.Exp),
	"ln":    unary(math.Log),
	"ceil":  withPlaces(math.Ceil),
	"floor": withPlaces(math.Floor),
	"round": withPlaces(math.Round),
	"trunc": withPlaces(math.Trunc),
	"min":   fold(math.Min),
	"max":   fold(math.Max),
	"sum":   fold(func(a, b float64) float64 { return a + b }),
	"log": func(args []float64) float64 {
		switch len(args) {
		case 1:
			return math.Log10(args[0])
		case 2:
			return math.Log(args[0]) / math.Log(args[1])
		}
		return math.NaN()
	},
}

// Program is a compiled formula.
type Program struct {
	source string
	root   Node
}

// Eval evaluates the formula.
func (p *Program) Eval(env Env) float64 { return p.root.Eval(env) }

// Source returns the text the program was compiled from.
func (p *Program) Source() string { return p.source }

// Root returns the expression tree.
func (p *Program) Root() Node { return p.root }

// String returns the fully parenthesized expression.
func (p *Program) String() string { return p.root.String() }

// Cache holds compiled programs by source text.
type Cache struct {
	programs map[string]*Program
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{programs: make(map[string]*Program)}
}

// Compile returns the cached program for source, parsing it on first use.
// Parse errors are not cached.
func (c *Cache) Compile(source string) (*Program, error) {
	if p, ok := c.programs[source]; ok {
		return p, nil
	}
	p, err := Parse(source)
	if err != nil {
		return nil, err
	}
	c.programs[source] = p
	return p, nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int { return len(c.programs) }

// Clear empties the cache.
func (c *Cache) Clear() { clear(c.programs) }
