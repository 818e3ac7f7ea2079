package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
)

// ResultKind tags which field of a webhook response carried the artifact.
type ResultKind int

const (
	ResultUnrecognized ResultKind = iota
	ResultURL
	ResultText
	ResultJSON
)

func (k ResultKind) String() string {
	switch k {
	case ResultURL:
		return "url"
	case ResultText:
		return "text"
	case ResultJSON:
		return "json"
	default:
		return "unrecognized"
	}
}

// GenerationResult is a classified webhook response.
type GenerationResult struct {
	Kind ResultKind
	URL  string
	Text string
	JSON json.RawMessage
}

// webhookBody keeps each field raw so its JSON type can be checked before use.
type webhookBody struct {
	URL  json.RawMessage `json:"url"`
	Text json.RawMessage `json:"text"`
	JSON json.RawMessage `json:"json"`
}

// ClassifyResponse decodes a webhook body.
//
// Precedence is url, then text, then json. url and text must be non-empty strings;
// json must be an object or array. Anything else is [shared.ErrUnrecognizedResponse].
func ClassifyResponse(body []byte) (*GenerationResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", shared.ErrUnrecognizedResponse)
	}

	var raw webhookBody
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnrecognizedResponse, err)
	}

	if s, ok := nonEmptyString(raw.URL); ok {
		return &GenerationResult{Kind: ResultURL, URL: s}, nil
	}
	if s, ok := nonEmptyString(raw.Text); ok {
		return &GenerationResult{Kind: ResultText, Text: s}, nil
	}
	if v := bytes.TrimSpace(raw.JSON); len(v) > 0 && (v[0] == '{' || v[0] == '[') {
		return &GenerationResult{Kind: ResultJSON, JSON: json.RawMessage(v)}, nil
	}

	return nil, fmt.Errorf("%w: no url, text or json field", shared.ErrUnrecognizedResponse)
}

func nonEmptyString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// Draft converts the result into a gallery draft. URL results keep the requested type;
// text and json results are stored as Text items with inline content.
func (r *GenerationResult) Draft(prompt string, requested models.MediaType) (models.Draft, error) {
	switch r.Kind {
	case ResultURL:
		return models.Draft{Type: requested, Prompt: prompt, URL: r.URL}, nil
	case ResultText:
		return models.Draft{Type: models.Text, Prompt: prompt, URL: models.TextURL(r.Text)}, nil
	case ResultJSON:
		pretty, err := PrettyJSON(r.JSON)
		if err != nil {
			return models.Draft{}, fmt.Errorf("%w: %v", shared.ErrUnrecognizedResponse, err)
		}
		return models.Draft{Type: models.Text, Prompt: prompt, URL: models.TextURL(pretty)}, nil
	default:
		return models.Draft{}, shared.ErrUnrecognizedResponse
	}
}

// PrettyJSON re-indents raw with two spaces, keeping key order.
// String escapes are decoded and decimal numbers are written in their shortest form, so
// "\u00e9" prints as "é" and 1.50 as 1.5. Integer literals are kept as sent.
func PrettyJSON(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := writePretty(&buf, dec, 0); err != nil {
		return "", err
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", errors.New("unexpected data after JSON value")
	}
	return buf.String(), nil
}

func writePretty(buf *bytes.Buffer, dec *json.Decoder, depth int) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		buf.WriteByte(byte(v))
		n := 0
		for dec.More() {
			if n > 0 {
				buf.WriteByte(',')
			}
			indent(buf, depth+1)
			if v == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				if err := writeString(buf, key.(string)); err != nil {
					return err
				}
				buf.WriteString(": ")
			}
			if err := writePretty(buf, dec, depth+1); err != nil {
				return err
			}
			n++
		}
		end, err := dec.Token()
		if err != nil {
			return err
		}
		if n > 0 {
			indent(buf, depth)
		}
		buf.WriteByte(byte(end.(json.Delim)))
	case string:
		return writeString(buf, v)
	case json.Number:
		buf.WriteString(formatNumber(v))
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case nil:
		buf.WriteString("null")
	}
	return nil
}

func indent(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	for range depth {
		buf.WriteString("  ")
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

func formatNumber(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if a := math.Abs(f); a == 0 || (a >= 1e-6 && a < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'e', -1, 64)
}
