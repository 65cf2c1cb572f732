package model

import (
	"fmt"
	"net/url"
	"strings"
)

// Field is one named form value.
type Field struct {
	Name  string
	Value string
}

// StartRequest holds the start form fields in submission order.
type StartRequest struct {
	Fields []Field
}

// Set assigns a field. A repeated name keeps its original position and takes
// the new value, so the last assignment wins.
func (r *StartRequest) Set(name, value string) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Get returns a field value and whether it is present.
func (r StartRequest) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Encode returns the application/x-www-form-urlencoded body, keeping field order.
func (r StartRequest) Encode() string {
	var b strings.Builder
	for i, f := range r.Fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

// ParseField parses a "name=value" assignment. The value may be empty or
// contain further '=' characters.
func ParseField(s string) (Field, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Field{}, fmt.Errorf("invalid field %q (want name=value)", s)
	}
	return Field{Name: name, Value: value}, nil
}

// ParseFieldLines parses one "name=value" per line. Blank lines and lines
// starting with '#' are skipped.
func ParseFieldLines(text string) (StartRequest, error) {
	var req StartRequest
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f, err := ParseField(line)
		if err != nil {
			return StartRequest{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		req.Set(f.Name, f.Value)
	}
	return req, nil
}

// StartResponse is the JSON body returned by the start endpoint.
type StartResponse struct {
	Error  string `json:"error,omitempty"`
	Result string `json:"result,omitempty"`
}

// Rejected reports whether the server refused the start request.
func (r *StartResponse) Rejected() bool {
	return r != nil && r.Error != ""
}
