package providers

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^\s*[-+]?\d+(\.\d+)?`)

// flexNumber decodes a JSON number, a numeric string ("42", "42 in") or null.
// Providers are inconsistent about which they send for the same field.
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = flexNumber{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		m := leadingNumber.FindString(s)
		if m == "" {
			*n = flexNumber{}
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
		if err != nil {
			return err
		}
		*n = flexNumber{value: v, set: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = flexNumber{value: v, set: true}
	return nil
}

// Float returns the value, or 0 when absent.
func (n flexNumber) Float() float64 { return n.value }

// Whole truncates toward zero, matching integer-prefix parsing of "42.7".
func (n flexNumber) Whole() float64 { return math.Trunc(n.value) }

// WholePtr is Whole for optional fields: nil when the provider omitted it.
func (n flexNumber) WholePtr() *float64 {
	if !n.set {
		return nil
	}
	v := n.Whole()
	return &v
}

func (n flexNumber) Int() int { return int(n.value) }

