package bridge

import (
	stdjson "encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMissingField: pole chybí, je null nebo je "prázdné" (0, "", false).
	ErrMissingField = errors.New("missing field")
	// ErrInvalidField: pole je přítomné, ale nejde převést na očekávaný typ.
	ErrInvalidField = errors.New("invalid field")
)

// truthy určuje, jestli hodnota "je přítomná". Nula, prázdný řetězec,
// false a null se počítají jako chybějící.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case stdjson.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

// floatField vrátí pole jako float64. Čísla i číselné řetězce projdou.
// Chybějící pole je jen null/nepřítomné: teplota 0.0 je platná hodnota.
func floatField(fields map[string]any, name string) (float64, error) {
	v, ok := fields[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}

	switch x := v.(type) {
	case stdjson.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrInvalidField, name, x.String())
		}
		return f, nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrInvalidField, name, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidField, name, v)
	}
}

// intField vrátí celočíselné pole (epoch sekundy). Nepravdivá hodnota je
// ErrMissingField, desetinné číslo s nenulovým zlomkem je ErrInvalidField.
func intField(fields map[string]any, name string) (int64, error) {
	v := fields[name]
	if !truthy(v) {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}

	var s string
	switch x := v.(type) {
	case stdjson.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidField, name, v)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %s=%v overflows int64", ErrInvalidField, name, v)
	}
	f, err := strconv.ParseFloat(s, 64)
	// float64(math.MaxInt64) je 2^63, proto horní mez ostře.
	if err != nil || f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, fmt.Errorf("%w: %s=%v is not an integer", ErrInvalidField, name, v)
	}
	return int64(f), nil
}

// stringField vrátí neprázdný řetězec.
func stringField(fields map[string]any, name string) (string, error) {
	v := fields[name]
	if !truthy(v) {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T", ErrInvalidField, name, v)
	}
	return s, nil
}
