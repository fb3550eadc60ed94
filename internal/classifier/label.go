package classifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tphakala/handsoff-go/internal/errors"
)

// Label identifies an exemplar class
type Label int

const (
	LabelNotTouching Label = iota // hands away from the face
	LabelTouching                 // a hand touching the face
)

// String returns the label name used in logs and metrics
func (l Label) String() string {
	switch l {
	case LabelNotTouching:
		return "not_touch"
	case LabelTouching:
		return "touched"
	default:
		return "label_" + strconv.Itoa(int(l))
	}
}

// ParseLabel parses a label name produced by String
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not_touch", "not_touching":
		return LabelNotTouching, nil
	case "touched", "touching":
		return LabelTouching, nil
	}
	if rest, ok := strings.CutPrefix(s, "label_"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return Label(n), nil
		}
	}
	return 0, errors.New(fmt.Errorf("unknown label %q", s)).
		Component("classifier").
		Category(errors.CategoryValidation).
		Build()
}
