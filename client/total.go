package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-team-directory/member"
)

// errMissingTotal is reported when a list response carries no total signal.
var errMissingTotal = errors.New("list response carries no total count")

// Envelope names the fields of an enveloped list body such as
// {"data": [...], "total": 7}.
type Envelope struct {
	DataField  string
	TotalField string
}

// DefaultEnvelope returns {"data", "total"}.
func DefaultEnvelope() Envelope {
	return Envelope{DataField: "data", TotalField: "total"}
}

// decodeList accepts either a bare JSON array with the total in a header, or
// an envelope object. A present header always wins over the envelope total.
func decodeList(resp *httpResponse, totalHeader string, env Envelope) (member.PageResult, error) {
	headerTotal, hasHeader, err := readTotalHeader(resp, totalHeader)
	if err != nil {
		return member.PageResult{}, err
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return member.PageResult{}, errors.New("empty list body")
	}

	var result member.PageResult
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &result.Members); err != nil {
			return member.PageResult{}, fmt.Errorf("invalid list body: %w", err)
		}
		if !hasHeader {
			return member.PageResult{}, errMissingTotal
		}
		result.Total = headerTotal

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return member.PageResult{}, fmt.Errorf("invalid list envelope: %w", err)
		}
		if raw, ok := fields[env.DataField]; ok {
			if err := json.Unmarshal(raw, &result.Members); err != nil {
				return member.PageResult{}, fmt.Errorf("invalid %q field: %w", env.DataField, err)
			}
		}
		switch {
		case hasHeader:
			result.Total = headerTotal
		default:
			raw, ok := fields[env.TotalField]
			if !ok {
				return member.PageResult{}, errMissingTotal
			}
			if err := json.Unmarshal(raw, &result.Total); err != nil {
				return member.PageResult{}, fmt.Errorf("invalid %q field: %w", env.TotalField, err)
			}
		}

	default:
		return member.PageResult{}, errors.New("list body is neither an array nor an object")
	}

	if result.Members == nil {
		result.Members = []member.Member{}
	}
	if result.Total < 0 {
		return member.PageResult{}, fmt.Errorf("negative total %d", result.Total)
	}
	return result, nil
}

func readTotalHeader(resp *httpResponse, name string) (int, bool, error) {
	if name == "" {
		return 0, false, nil
	}
	raw := strings.TrimSpace(resp.Headers.Get(name))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s header %q", name, raw)
	}
	return n, true, nil
}
