package rule

type Expr interface{}

type Call interface {
	Binding(nth int) Expr
	TransformTo(e Expr)
}
