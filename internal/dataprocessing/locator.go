package dataprocessing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"plforecast/pkg/contracts/domain"
)

// HeaderStrategy names the rule that identified a header row.
type HeaderStrategy string

const (
	// StrategyHeaderKeyword matches a row with a "category" or "account" cell.
	StrategyHeaderKeyword HeaderStrategy = "header_keyword"
	// StrategyGrossSalesAnchor takes the row above the first "gross sales" cell.
	StrategyGrossSalesAnchor HeaderStrategy = "gross_sales_anchor"
)

var (
	headerKeywords   = []string{"category", "account"}
	grossSalesAnchor = "gross sales"
)

// ErrHeaderNotFound is matched by every error LocateHeader returns.
var ErrHeaderNotFound = errors.New("header row not found")

// HeaderNotFoundError lists the strategies that were tried without success.
type HeaderNotFoundError struct {
	Strategies []string
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf("could not identify the header row: no cell matched %s", strings.Join(e.Strategies, ", nor "))
}

// Is makes errors.Is(err, ErrHeaderNotFound) work.
func (e *HeaderNotFoundError) Is(target error) bool {
	return target == ErrHeaderNotFound
}

// HeaderMatch is the result of a successful header scan.
type HeaderMatch struct {
	Row      int            `json:"row"`
	Strategy HeaderStrategy `json:"strategy"`
}

// LocateHeader scans a headerless grid for its header row. Strategies run in order and the
// first hit wins:
//
//  1. the first row with a cell containing "category" or "account"
//  2. the row immediately above the first row with a cell containing "gross sales"
//     (row 0 itself when the match is on the first row)
//
// Matching is a case-insensitive substring test on the stringified cell.
func LocateHeader(grid domain.RawGrid) (HeaderMatch, error) {
	for i, row := range grid {
		if rowContainsAny(row, headerKeywords) {
			return HeaderMatch{Row: i, Strategy: StrategyHeaderKeyword}, nil
		}
	}

	for i, row := range grid {
		if rowContainsAny(row, []string{grossSalesAnchor}) {
			header := i - 1
			if header < 0 {
				header = 0
			}
			return HeaderMatch{Row: header, Strategy: StrategyGrossSalesAnchor}, nil
		}
	}

	return HeaderMatch{Row: -1}, &HeaderNotFoundError{Strategies: []string{
		`"category"/"account" header labels`,
		`a "gross sales" line item`,
	}}
}

func rowContainsAny(row []any, needles []string) bool {
	for _, cell := range row {
		text := strings.ToLower(cellText(cell))
		if text == "" {
			continue
		}
		for _, needle := range needles {
			if strings.Contains(text, needle) {
				return true
			}
		}
	}
	return false
}

// cellText stringifies a grid cell. nil becomes the empty string.
func cellText(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
