package logger

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/valyala/fastjson"
)

const (
	// MaxArrayLength is the number of sequence elements rendered before eliding the rest.
	MaxArrayLength = 5
	// MaxDepth is the nesting depth below which containers collapse to [Object] / [Array].
	MaxDepth = 2
)

var (
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
	timeType       = reflect.TypeOf(time.Time{})
	rawMessageType = reflect.TypeOf(json.RawMessage(nil))
	fastjsonType   = reflect.TypeOf((*fastjson.Value)(nil))

	identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// SafeString renders v as a bounded, single-line string suitable for logging.
// Sequences show at most MaxArrayLength elements and nested containers
// collapse past MaxDepth. It never panics.
func SafeString(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fallbackString(v)
		}
	}()
	in := inspector{seen: make(map[uintptr]struct{})}
	return in.render(reflect.ValueOf(v), 0)
}

func fallbackString(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = "[Unrenderable]"
		}
	}()
	return fmt.Sprintf("%v", v)
}

type inspector struct {
	seen map[uintptr]struct{}
}

func (in *inspector) render(rv reflect.Value, depth int) string {
	if !rv.IsValid() {
		return "null"
	}

	switch rv.Type() {
	case timeType:
		return rv.Interface().(time.Time).UTC().Format("2006-01-02T15:04:05.000Z")
	case rawMessageType:
		return in.renderRaw(rv.Bytes(), depth)
	case fastjsonType:
		if rv.IsNil() {
			return "null"
		}
		return in.renderJSON(rv.Interface().(*fastjson.Value), depth)
	}

	if rv.Type().Implements(errorType) && rv.CanInterface() {
		if isNil(rv) {
			return "null"
		}
		return "[Error: " + rv.Interface().(error).Error() + "]"
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
		return in.render(rv.Elem(), depth)
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		ptr := rv.Pointer()
		if _, ok := in.seen[ptr]; ok {
			return "[Circular]"
		}
		in.seen[ptr] = struct{}{}
		defer delete(in.seen, ptr)
		return in.render(rv.Elem(), depth)
	case reflect.String:
		return quote(rv.String())
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	case reflect.Complex64, reflect.Complex128:
		return strconv.FormatComplex(rv.Complex(), 'g', -1, 128)
	case reflect.Slice:
		if rv.IsNil() {
			return "null"
		}
		return in.renderSeq(rv, depth)
	case reflect.Array:
		return in.renderSeq(rv, depth)
	case reflect.Map:
		if rv.IsNil() {
			return "null"
		}
		ptr := rv.Pointer()
		if _, ok := in.seen[ptr]; ok {
			return "[Circular]"
		}
		in.seen[ptr] = struct{}{}
		defer delete(in.seen, ptr)
		return in.renderMap(rv, depth)
	case reflect.Struct:
		return in.renderStruct(rv, depth)
	case reflect.Func:
		if rv.IsNil() {
			return "null"
		}
		return "[Function]"
	case reflect.Chan:
		if rv.IsNil() {
			return "null"
		}
		return "[Channel]"
	}
	return fallbackString(rv.Interface())
}

func (in *inspector) renderSeq(rv reflect.Value, depth int) string {
	n := rv.Len()
	if n == 0 {
		return "[]"
	}
	if depth > MaxDepth {
		return "[Array]"
	}
	shown := min(n, MaxArrayLength)
	items := make([]string, 0, shown+1)
	for i := 0; i < shown; i++ {
		items = append(items, in.render(rv.Index(i), depth+1))
	}
	if n > shown {
		items = append(items, moreItems(n-shown))
	}
	return "[ " + strings.Join(items, ", ") + " ]"
}

func (in *inspector) renderMap(rv reflect.Value, depth int) string {
	if rv.Len() == 0 {
		return "{}"
	}
	if depth > MaxDepth {
		return "[Object]"
	}
	type kv struct {
		key string
		val reflect.Value
	}
	entries := make([]kv, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, kv{key: mapKey(iter.Key()), val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	fields := make([]string, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, objectKey(e.key)+": "+in.render(e.val, depth+1))
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

func (in *inspector) renderStruct(rv reflect.Value, depth int) string {
	t := rv.Type()
	type field struct {
		name  string
		index int
	}
	var visible []field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		visible = append(visible, field{name: name, index: i})
	}
	if len(visible) == 0 {
		return "{}"
	}
	if depth > MaxDepth {
		return "[Object]"
	}
	fields := make([]string, 0, len(visible))
	for _, f := range visible {
		fields = append(fields, objectKey(f.name)+": "+in.render(rv.Field(f.index), depth+1))
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

func (in *inspector) renderRaw(raw []byte, depth int) string {
	if raw == nil {
		return "null"
	}
	var p fastjson.Parser
	v, err := p.ParseBytes(raw)
	if err != nil {
		return quote(string(raw))
	}
	return in.renderJSON(v, depth)
}

// renderJSON keeps document key order, which a decoded map would lose.
func (in *inspector) renderJSON(v *fastjson.Value, depth int) string {
	switch v.Type() {
	case fastjson.TypeNull:
		return "null"
	case fastjson.TypeTrue:
		return "true"
	case fastjson.TypeFalse:
		return "false"
	case fastjson.TypeNumber:
		return string(v.MarshalTo(nil))
	case fastjson.TypeString:
		return quote(string(v.GetStringBytes()))
	case fastjson.TypeArray:
		arr := v.GetArray()
		if len(arr) == 0 {
			return "[]"
		}
		if depth > MaxDepth {
			return "[Array]"
		}
		shown := min(len(arr), MaxArrayLength)
		items := make([]string, 0, shown+1)
		for _, item := range arr[:shown] {
			items = append(items, in.renderJSON(item, depth+1))
		}
		if len(arr) > shown {
			items = append(items, moreItems(len(arr)-shown))
		}
		return "[ " + strings.Join(items, ", ") + " ]"
	case fastjson.TypeObject:
		obj := v.GetObject()
		if obj.Len() == 0 {
			return "{}"
		}
		if depth > MaxDepth {
			return "[Object]"
		}
		fields := make([]string, 0, obj.Len())
		obj.Visit(func(key []byte, item *fastjson.Value) {
			fields = append(fields, objectKey(string(key))+": "+in.renderJSON(item, depth+1))
		})
		return "{ " + strings.Join(fields, ", ") + " }"
	}
	return string(v.MarshalTo(nil))
}

func moreItems(n int) string {
	if n == 1 {
		return "... 1 more item"
	}
	return "... " + strconv.Itoa(n) + " more items"
}

func mapKey(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fallbackString(k.Interface())
}

func objectKey(k string) string {
	if identRe.MatchString(k) {
		return k
	}
	return quote(k)
}

func quote(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`\x`)
			b.WriteByte(hexDigits[s[i]>>4])
			b.WriteByte(hexDigits[s[i]&0x0f])
			i++
			continue
		}
		i += size
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r == rune(q) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

const hexDigits = "0123456789abcdef"

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func isNil(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
