package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/presets"
)

// parseStocks turns --stock flags of the form kind[=amount[:upkeep]] into
// stock inputs. Omitted values come from the presets. Values that are not
// numbers are treated as zero and reported through warn.
func parseStocks(specs []string, set *presets.Set, warn func(string)) (map[model.ResourceKind]model.StockInput, error) {
	out := make(map[model.ResourceKind]model.StockInput, len(specs))
	for _, spec := range specs {
		kindPart, valuePart, hasValue := strings.Cut(spec, "=")

		kind, err := model.ParseKind(kindPart)
		if err != nil {
			return nil, err
		}
		if _, dup := out[kind]; dup {
			return nil, fmt.Errorf("%w: %s", model.ErrDuplicateKind, kind)
		}

		in, _ := set.Get(kind)
		if hasValue {
			amount, upkeep, hasUpkeep := strings.Cut(valuePart, ":")
			if strings.TrimSpace(amount) != "" {
				in.Amount = parseNumber(amount, string(kind)+" amount", warn)
			}
			if hasUpkeep && strings.TrimSpace(upkeep) != "" {
				in.DailyUpkeep = parseNumber(upkeep, string(kind)+" upkeep", warn)
			}
		}
		out[kind] = in.Sanitize()
	}
	return out, nil
}

func parseNumber(s, field string, warn func(string)) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		warn(fmt.Sprintf("invalid %s %q, using 0", field, s))
		return 0
	}
	return v
}
