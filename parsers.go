package yschema

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"

	"github.com/speakeasy-api/yschema/problem"
)

// IntegerParser accepts decimal, octal (0o) and hex (0x) integers.
var IntegerParser ValueParser = ValueParserFunc(func(text string) (any, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 0, 64)
	if err != nil {
		return nil, NewParseError("'%s' is not a valid Integer", text).Wrap(err)
	}
	return v, nil
})

// IntegerRange accepts integers within [lo, hi].
func IntegerRange(lo, hi int64) ValueParser {
	return ValueParserFunc(func(text string) (any, error) {
		v, err := IntegerParser.Parse(text)
		if err != nil {
			return nil, err
		}
		n := v.(int64)
		if n < lo || n > hi {
			return nil, NewParseError("Value must be between %d and %d", lo, hi)
		}
		return n, nil
	})
}

// NumberParser accepts floating point numbers, including .inf and .nan.
var NumberParser ValueParser = ValueParserFunc(func(text string) (any, error) {
	s := strings.TrimSpace(text)
	switch strings.ToLower(s) {
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	case ".nan":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, NewParseError("'%s' is not a valid Number", text).Wrap(err)
	}
	return v, nil
})

// BooleanParser accepts true and false.
var BooleanParser ValueParser = ValueParserFunc(func(text string) (any, error) {
	switch strings.TrimSpace(text) {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return nil, NewParseError("'%s' is not a valid Boolean. Valid values are: [false, true]", text)
})

// RegexParser accepts values matching pattern. It panics if pattern does not
// compile.
func RegexParser(pattern string) ValueParser {
	re := regexp.MustCompile(pattern)
	return ValueParserFunc(func(text string) (any, error) {
		if !re.MatchString(text) {
			return nil, NewParseError("'%s' does not match pattern '%s'", text, pattern)
		}
		return text, nil
	})
}

// TimeParser accepts timestamps in the given strftime layout, for example
// "%Y-%m-%d".
func TimeParser(layout string) ValueParser {
	return ValueParserFunc(func(text string) (any, error) {
		t, err := timefmt.Parse(strings.TrimSpace(text), layout)
		if err != nil {
			return nil, NewParseError("'%s' does not match the time format '%s'", text, layout).Wrap(err)
		}
		return t, nil
	})
}

// DateTimeParser accepts RFC 3339 timestamps.
var DateTimeParser ValueParser = ValueParserFunc(func(text string) (any, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(text))
	if err != nil {
		return nil, NewParseError("'%s' is not a valid RFC 3339 date-time", text).Wrap(err)
	}
	return t, nil
})

// DurationParser accepts Go durations such as "1h30m".
var DurationParser ValueParser = ValueParserFunc(func(text string) (any, error) {
	d, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		return nil, NewParseError("'%s' is not a valid Duration", text).Wrap(err)
	}
	return d, nil
})

// WarnEmpty wraps p so that an empty value is reported as pointless rather
// than parsed. Intended for optional properties.
func WarnEmpty(p ValueParser) ValueParser {
	return ValueParserFunc(func(text string) (any, error) {
		if strings.TrimSpace(text) == "" {
			return nil, NewParseError("Empty value has no effect, remove the property or set a value").
				WithType(problem.EmptyOptionalValue)
		}
		if p == nil {
			return text, nil
		}
		return p.Parse(text)
	})
}

var (
	String   = Atomic("String").Build()
	Integer  = Atomic("Integer").ParseWith(IntegerParser).Build()
	Number   = Atomic("Number").ParseWith(NumberParser).Build()
	Boolean  = Atomic("Boolean").ParseWith(BooleanParser).Hints("true", "false").Build()
	DateTime = Atomic("DateTime").ParseWith(DateTimeParser).Build()
	Duration = Atomic("Duration").ParseWith(DurationParser).Build()
)
