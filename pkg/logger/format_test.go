package logger

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/robtot/skeleton-go/pkg/model"
	"github.com/valyala/fastjson"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []any
		want   string
	}{
		{"string verb", "validating %s", []any{"payload"}, "validating payload"},
		{"missing argument", "%s and %s", []any{"a"}, "a and %s"},
		{"extra arguments", "a", []any{"b", 1}, "a b 1"},
		{"integer", "%d items", []any{3}, "3 items"},
		{"integer from float", "%d", []any{3.7}, "3"},
		{"integer from string", "%i", []any{"42"}, "42"},
		{"integer from garbage", "%d", []any{"x"}, "NaN"},
		{"float", "%f", []any{1.5}, "1.5"},
		{"json", "%j", []any{map[string]int{"a": 1}}, `{"a":1}`},
		{"json failure", "%j", []any{make(chan int)}, "[Circular]"},
		{"escaped percent", "100%%", nil, "100%"},
		{"object verb", "%o", []any{[]int{1, 2}}, "[ 1, 2 ]"},
		{"unknown verb", "%x", []any{1}, "%x 1"},
		{"css verb", "%c%s", []any{"color: red", "x"}, "x"},
		{"non-string through %s", "%s", []any{map[string]int{"a": 1}}, "{ a: 1 }"},
		{"trailing percent", "trailing %", nil, "trailing %"},
		{"extra object argument", "got", []any{[]string{"x"}}, "got [ 'x' ]"},
		{"empty", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.format, tt.args...); got != tt.want {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.format, tt.args, got, tt.want)
			}
		})
	}
}

type cyclic struct {
	Name string
	Next *cyclic
}

type hello struct {
	Msg    string `json:"msg"`
	Hidden string `json:"-"`
	secret string
}

func TestSafeString(t *testing.T) {
	self := &cyclic{Name: "a"}
	self.Next = self

	loop := map[string]any{}
	loop["self"] = loop

	deep := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": 1}}}}

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "ok", "'ok'"},
		{"string with single quote", "it's", `"it's"`},
		{"string with both quotes", `it's "x"`, `'it\'s "x"'`},
		{"string with newline", "a\nb", `'a\nb'`},
		{"invalid utf-8", "bad\xffutf", `'bad\xffutf'`},
		{"valid multibyte", "héllo", "'héllo'"},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"whole float", 2.0, "2"},
		{"nan", math.NaN(), "NaN"},
		{"bool", true, "true"},
		{"nil", nil, "null"},
		{"nil map", map[string]int(nil), "null"},
		{"nil pointer", (*cyclic)(nil), "null"},
		{"empty slice", []int{}, "[]"},
		{"short slice", []int{1, 2, 3}, "[ 1, 2, 3 ]"},
		{"six elements", []int{1, 2, 3, 4, 5, 6}, "[ 1, 2, 3, 4, 5, ... 1 more item ]"},
		{"seven elements", []int{1, 2, 3, 4, 5, 6, 7}, "[ 1, 2, 3, 4, 5, ... 2 more items ]"},
		{"array", [2]string{"a", "b"}, "[ 'a', 'b' ]"},
		{"nested slices", [][]int{{1, 2, 3, 4, 5, 6}}, "[ [ 1, 2, 3, 4, 5, ... 1 more item ] ]"},
		{"empty map", map[string]any{}, "{}"},
		{"map", map[string]any{"msg": "Hello World!"}, "{ msg: 'Hello World!' }"},
		{"sorted keys", map[string]int{"b": 2, "a": 1}, "{ a: 1, b: 2 }"},
		{"quoted key", map[string]string{"content-type": "json"}, "{ 'content-type': 'json' }"},
		{"int keys", map[int]bool{1: true}, "{ '1': true }"},
		{"struct with tags", hello{Msg: "Hello World!", Hidden: "x", secret: "y"}, "{ msg: 'Hello World!' }"},
		{"struct pointer", &hello{Msg: "hi"}, "{ msg: 'hi' }"},
		{"depth limit", deep, "{ a: { b: { c: [Object] } } }"},
		{"depth limit array", [][][][]int{{{{1}}}}, "[ [ [ [Array] ] ] ]"},
		{"pointer cycle", self, "{ Name: 'a', Next: [Circular] }"},
		{"map cycle", loop, "{ self: [Circular] }"},
		{"error", errors.New("boom"), "[Error: boom]"},
		{"func", func() {}, "[Function]"},
		{"chan", make(chan int), "[Channel]"},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC), "2024-01-02T03:04:05.006Z"},
		{"raw json keeps order", json.RawMessage(`{"z":1,"a":[1,2,3,4,5,6,7]}`), "{ z: 1, a: [ 1, 2, 3, 4, 5, ... 2 more items ] }"},
		{"raw json invalid", json.RawMessage(`{bad`), "'{bad'"},
		{"fastjson value", fastjson.MustParse(`{"ok":true,"n":null}`), "{ ok: true, n: null }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeString(tt.in); got != tt.want {
				t.Errorf("SafeString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSafeString_BoundsLargeSequences(t *testing.T) {
	items := make([]string, 1000)
	for i := range items {
		items[i] = "item"
	}

	got := SafeString(items)
	if n := strings.Count(got, "'item'"); n != MaxArrayLength {
		t.Errorf("Expected %d rendered elements, got %d in %q", MaxArrayLength, n, got)
	}
	if !strings.HasSuffix(got, "... 995 more items ]") {
		t.Errorf("Expected elision marker, got %q", got)
	}
}

func TestReqToString(t *testing.T) {
	tests := []struct {
		name string
		req  model.Request
		want string
	}{
		{"empty object body", model.Request{Method: "GET", Path: "/", Body: map[string]any{}}, "GET url: / body={}"},
		{"no body", model.Request{Method: "GET", Path: "/"}, "GET url: / body=undefined"},
		{"unserializable body", model.Request{Method: "POST", Path: "/x", Body: make(chan int)}, "POST url: /x body=[Unserializable]"},
		{"html is not escaped", model.Request{Method: "POST", Path: "/", Body: map[string]string{"a": "<b>"}}, `POST url: / body={"a":"<b>"}`},
		{"raw body keeps order", model.Request{Method: "PUT", Path: "/o", Body: json.RawMessage(`{"b":1,"a":2}`)}, `PUT url: /o body={"b":1,"a":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReqToString(tt.req); got != tt.want {
				t.Errorf("ReqToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogResponse(t *testing.T) {
	req := model.Request{Method: "GET", Path: "/", Body: map[string]any{}}

	got := LogResponse(req, 200, map[string]string{"msg": "Hello World!"})
	want := "Responding to request GET url: / body={} with 200: { msg: 'Hello World!' }"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
