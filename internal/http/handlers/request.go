package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xeipuuv/gojsonschema"

	"pdf-service/internal/domain"
)

const invalidTemplateMessage = "htmlTemplate is required and must be a string"

// templateSchema is the contract shared by every render route.
const templateSchema = `{
	"type": "object",
	"required": ["htmlTemplate"],
	"properties": {
		"htmlTemplate": {"type": "string", "minLength": 1}
	}
}`

// optionsSchema types the optional fields of the JSON and download routes.
// null is accepted wherever a field is optional and means "not given".
const optionsSchema = `{
	"type": "object",
	"properties": {
		"paperSize": {"type": ["string", "null"]},
		"margin": {
			"type": ["object", "null"],
			"properties": {
				"top": {"type": ["string", "null"]},
				"right": {"type": ["string", "null"]},
				"bottom": {"type": ["string", "null"]},
				"left": {"type": ["string", "null"]}
			}
		},
		"printBackground": {"type": ["boolean", "null"]},
		"fileName": {"type": ["string", "null"]}
	}
}`

const invalidJSONMessage = "Request body must be a valid JSON object"

var (
	compiledTemplate = mustSchema(templateSchema)
	compiledOptions  = mustSchema(optionsSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("handlers: invalid request schema: " + err.Error())
	}
	return s
}

// renderRequest is the body accepted by the render routes.
type renderRequest struct {
	HTMLTemplate    string
	PaperSize       string
	Margin          *domain.Margin
	PrintBackground *bool
	FileName        string
}

// parseRenderRequest decodes the body once, validates the decoded document and
// reads the fields out of it. withOptions also checks the optional fields; the
// legacy route ignores them.
func parseRenderRequest(c *fiber.Ctx, withOptions bool) (*renderRequest, error) {
	doc, err := decodeBody(c.Body())
	if err != nil {
		return nil, invalidInput(invalidJSONMessage)
	}
	loader := gojsonschema.NewRawLoader(doc)

	res, err := compiledTemplate.Validate(loader)
	if err != nil {
		return nil, invalidInput(invalidJSONMessage)
	}
	if !res.Valid() {
		return nil, invalidInput(invalidTemplateMessage)
	}

	// the template schema guarantees an object with a string htmlTemplate
	fields := doc.(map[string]any)
	req := &renderRequest{HTMLTemplate: fields["htmlTemplate"].(string)}
	if !withOptions {
		return req, nil
	}

	res, err = compiledOptions.Validate(loader)
	if err != nil {
		return nil, invalidInput(invalidJSONMessage)
	}
	if !res.Valid() {
		return nil, invalidInput(describe(res.Errors()))
	}

	req.PaperSize, _ = fields["paperSize"].(string)
	req.FileName, _ = fields["fileName"].(string)
	if b, ok := fields["printBackground"].(bool); ok {
		req.PrintBackground = &b
	}
	if m, ok := fields["margin"].(map[string]any); ok {
		req.Margin = &domain.Margin{}
		req.Margin.Top, _ = m["top"].(string)
		req.Margin.Right, _ = m["right"].(string)
		req.Margin.Bottom, _ = m["bottom"].(string)
		req.Margin.Left, _ = m["left"].(string)
	}
	return req, nil
}

// decodeBody parses body into the generic form gojsonschema validates. An
// empty body is an empty object. Numbers stay json.Number as the validator
// expects.
func decodeBody(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return doc, nil
}

// options resolves the request fields over the defaults.
func (r *renderRequest) options() (domain.RenderOptions, error) {
	opts := domain.DefaultRenderOptions()

	format, err := domain.ParseFormat(r.PaperSize)
	if err != nil {
		return opts, err
	}
	opts.Format = format

	if m := r.Margin; m != nil {
		overlay(&opts.Margin.Top, m.Top)
		overlay(&opts.Margin.Right, m.Right)
		overlay(&opts.Margin.Bottom, m.Bottom)
		overlay(&opts.Margin.Left, m.Left)
	}
	if r.PrintBackground != nil {
		opts.PrintBackground = *r.PrintBackground
	}
	return opts, opts.Validate()
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func describe(errs []gojsonschema.ResultError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
