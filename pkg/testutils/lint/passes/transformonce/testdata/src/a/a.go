package a

import "github.com/relopt/relopt/pkg/sql/opt/rule"

func once(call rule.Call) {
	call.TransformTo(call.Binding(0))
}

func declines(call rule.Call, ok bool) {
	if !ok {
		return
	}
	call.TransformTo(call.Binding(0))
}

func branches(call rule.Call, ok bool) {
	if ok {
		call.TransformTo(call.Binding(0))
	} else {
		call.TransformTo(call.Binding(1))
	}
}

func twice(call rule.Call) {
	call.TransformTo(call.Binding(0))
	call.TransformTo(call.Binding(1)) // want `TransformTo may be called twice for the same binding`
}

func afterIf(call rule.Call, ok bool) {
	if ok {
		call.TransformTo(call.Binding(0))
	}
	call.TransformTo(call.Binding(1)) // want `TransformTo may be called twice for the same binding`
}

func returnsInLoop(call rule.Call, inputs []rule.Expr) {
	for _, in := range inputs {
		if in == nil {
			call.TransformTo(in)
			return
		}
	}
}

func keepsLooping(call rule.Call, inputs []rule.Expr) {
	for _, in := range inputs { // want `TransformTo is called in a loop without returning`
		call.TransformTo(in)
	}
}

func switches(call rule.Call, n int) {
	switch n {
	case 0:
		call.TransformTo(call.Binding(0))
		return
	case 1:
		call.TransformTo(call.Binding(1))
	}
	call.TransformTo(call.Binding(2)) // want `TransformTo may be called twice for the same binding`
}

func closure(call rule.Call) func() {
	call.TransformTo(call.Binding(0))
	return func() {
		call.TransformTo(call.Binding(1))
	}
}

func suppressed(call rule.Call) {
	call.TransformTo(call.Binding(0))
	call.TransformTo(call.Binding(1)) //nolint:transformonce
}
