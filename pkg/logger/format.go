package logger

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/robtot/skeleton-go/pkg/model"
)

const (
	undefinedBody     = "undefined"
	unserializable    = "[Unserializable]"
	circularReference = "[Circular]"
)

// Format interpolates args into format using printf-style verbs:
//
//	%s      string (non-strings through SafeString)
//	%d, %i  integer
//	%f      floating point
//	%j      JSON
//	%o, %O  SafeString
//	%c      consumed, renders nothing
//	%%      literal percent
//
// A verb without a matching argument is left in place and arguments without
// a verb are appended, separated by spaces. Format never panics.
func Format(format string, args ...any) string {
	var b strings.Builder
	b.Grow(len(format) + 16*len(args))

	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		verb := format[i+1]
		if verb == '%' {
			b.WriteByte('%')
			i++
			continue
		}
		if !strings.ContainsRune("sdifjoOc", rune(verb)) {
			b.WriteByte(c)
			continue
		}
		if next >= len(args) {
			b.WriteByte(c)
			b.WriteByte(verb)
			i++
			continue
		}
		b.WriteString(formatVerb(verb, args[next]))
		next++
		i++
	}

	for _, arg := range args[next:] {
		b.WriteByte(' ')
		if s, ok := arg.(string); ok {
			b.WriteString(s)
		} else {
			b.WriteString(SafeString(arg))
		}
	}
	return b.String()
}

func formatVerb(verb byte, arg any) string {
	switch verb {
	case 's':
		if s, ok := arg.(string); ok {
			return s
		}
		return SafeString(arg)
	case 'd', 'i':
		f, ok := toFloat(arg)
		if !ok {
			return "NaN"
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return formatFloat(f)
		}
		if n, ok := toInt(arg); ok {
			return strconv.FormatInt(n, 10)
		}
		return formatFloat(math.Trunc(f))
	case 'f':
		f, ok := toFloat(arg)
		if !ok {
			return "NaN"
		}
		return formatFloat(f)
	case 'j':
		s, err := toJSON(arg)
		if err != nil {
			return circularReference
		}
		return s
	case 'o', 'O':
		return SafeString(arg)
	case 'c':
		return ""
	}
	return ""
}

func toInt(arg any) (int64, bool) {
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func toFloat(arg any) (float64, bool) {
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// toJSON encodes v without HTML escaping and without the encoder's trailing newline.
func toJSON(v any) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = "", errUnencodable
		}
	}()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// BodyString renders a request body the way ReqToString embeds it.
func BodyString(body any) string {
	if body == nil {
		return undefinedBody
	}
	s, err := toJSON(body)
	if err != nil {
		return unserializable
	}
	return s
}

// ReqToString returns a short single-line description of req:
// "<method> url: <path> body=<json body>".
func ReqToString(req model.Request) string {
	return req.Method + " url: " + req.Path + " body=" + BodyString(req.Body)
}

// LogResponse describes the response sent for req. It only formats; the
// caller picks the level.
func LogResponse(req model.Request, status int, response any) string {
	return "Responding to request " + ReqToString(req) + " with " + strconv.Itoa(status) + ": " + SafeString(response)
}
