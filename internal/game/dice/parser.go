package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed roll of the form [N]dS[+M|-M], or a bare constant M.
//
// Invariant: Count >= 0; Sides >= 2 whenever Count > 0.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice; 0 for a constant expression
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Parse parses a dice expression string.
// Supported forms: "d20", "2d6", "1d8+7", "1d4-1", "5".
//
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	countStr, rest, hasDie := strings.Cut(s, "d")
	if !hasDie {
		mod, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: %q is neither a roll nor a constant: %w", expr, err)
		}
		return Expression{Raw: expr, Modifier: mod}, nil
	}

	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil || n < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q", expr)
		}
		count = n
	}

	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i > 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", expr)
	}

	mod := 0
	if modStr != "" {
		mod, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
	}

	return Expression{Raw: expr, Count: count, Sides: sides, Modifier: mod}, nil
}

// UnmarshalText lets expressions appear directly in YAML balance files.
func (e *Expression) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// MarshalText renders the expression in its canonical form.
func (e Expression) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// String returns the canonical form, e.g. "1d8+7".
func (e Expression) String() string {
	if e.Count == 0 {
		return strconv.Itoa(e.Modifier)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%dd%d", e.Count, e.Sides)
	if e.Modifier != 0 {
		fmt.Fprintf(&b, "%+d", e.Modifier)
	}
	return b.String()
}
