package flow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reOrder = regexp.MustCompile(`^([0-9]+)([a-z]*)$`)

// OrderKey is a question's sort key within a flow: a numeric component with
// an optional alphabetic suffix, ordered numerically first and by suffix
// second, so 7 < 7a < 7b < 8.
type OrderKey struct {
	Num    int
	Suffix string
}

// ParseOrderKey parses an order literal like "7", "7a" or "12b".
func ParseOrderKey(raw string) (OrderKey, error) {
	m := reOrder.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		return OrderKey{}, fmt.Errorf("invalid order %q", raw)
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return OrderKey{}, fmt.Errorf("invalid order %q", raw)
	}
	return OrderKey{Num: num, Suffix: m[2]}, nil
}

func (k OrderKey) String() string {
	return strconv.Itoa(k.Num) + k.Suffix
}

// Less orders keys numerically, then by suffix ("" sorts before "a").
func (k OrderKey) Less(o OrderKey) bool {
	if k.Num != o.Num {
		return k.Num < o.Num
	}
	return k.Suffix < o.Suffix
}
