package dice

// ExprRoller is implemented by sources that want to observe expression rolls,
// such as the logging Roller used by the interactive host.
type ExprRoller interface {
	Roll(expr Expression) (RollResult, error)
}

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count; exactly expr.Count draws are consumed;
// result.Total() == sum(result.Dice) + result.Modifier.
func Roll(expr Expression, src Source) (RollResult, error) {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	raw := expr.Raw
	if raw == "" {
		raw = expr.String()
	}
	return RollResult{
		Expression: raw,
		Dice:       rolled,
		Modifier:   expr.Modifier,
	}, nil
}

// RollWith rolls expr against src, routing through src's own Roll method when
// src implements ExprRoller. Both paths consume the same draws.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: Returns the total of the roll.
func RollWith(src Source, expr Expression) int {
	if er, ok := src.(ExprRoller); ok {
		if r, err := er.Roll(expr); err == nil {
			return r.Total()
		}
	}
	r, _ := Roll(expr, src)
	return r.Total()
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: expr must be a valid dice expression string; src must be non-nil.
// Postcondition: Returns a RollResult or a parse/roll error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Min returns the smallest total expr can produce.
func (e Expression) Min() int { return e.Count + e.Modifier }

// Max returns the largest total expr can produce.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }
