package handlers

import (
	"fmt"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/models"
	"github.com/fluxorio/todolist/pkg/store"
)

// decodeFields parses body as a JSON object. Unknown fields are kept and
// later ignored.
func decodeFields(body []byte) (map[string]interface{}, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", store.ErrMalformedInput)
	}
	var fields map[string]interface{}
	if err := core.JSONDecode(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", store.ErrMalformedInput)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", store.ErrMalformedInput)
	}
	return fields, nil
}

// stringField returns the value of a string field; nil if absent or null.
func stringField(fields map[string]interface{}, name string) (*string, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", store.ErrMalformedInput, name)
	}
	return &s, nil
}

// boolField returns the value of a boolean field; nil if absent or null.
func boolField(fields map[string]interface{}, name string) (*bool, error) {
	raw, ok := fields[name]
	if !ok || raw == nil {
		return nil, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a boolean", store.ErrMalformedInput, name)
	}
	return &b, nil
}

func decodePatch(body []byte) (models.Patch, error) {
	fields, err := decodeFields(body)
	if err != nil {
		return models.Patch{}, err
	}

	var p models.Patch
	if p.Title, err = stringField(fields, "title"); err != nil {
		return models.Patch{}, err
	}
	if p.Description, err = stringField(fields, "description"); err != nil {
		return models.Patch{}, err
	}
	if p.Completed, err = boolField(fields, "completed"); err != nil {
		return models.Patch{}, err
	}
	return p, nil
}

// decodeDraft shares the patch rules: a missing or null title or
// description becomes the empty string.
func decodeDraft(body []byte) (models.Draft, error) {
	p, err := decodePatch(body)
	if err != nil {
		return models.Draft{}, err
	}

	d := models.Draft{Completed: p.Completed}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	return d, nil
}
