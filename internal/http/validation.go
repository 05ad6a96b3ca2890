package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxRequestBody = 1 << 20 // 1 MiB

var (
	errMalformedBody = errors.New("malformed JSON payload")
	errBodyNotObject = errors.New("request body must be a JSON object")
	errBodyTooLarge  = errors.New("request body too large")
)

// validationError collects every constraint failure of one request body.
type validationError struct {
	problems []string
}

func (e *validationError) Error() string {
	return strings.Join(e.problems, ", ")
}

func (e *validationError) add(format string, args ...any) {
	e.problems = append(e.problems, fmt.Sprintf(format, args...))
}

func (e *validationError) err() error {
	if len(e.problems) == 0 {
		return nil
	}
	return e
}

// decodeObject reads a JSON object body into raw fields. An empty body is
// treated as an empty object so that field constraints report what is missing.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, errMalformedBody
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	if payload[0] != '{' {
		if !json.Valid(payload) {
			return nil, errMalformedBody
		}
		return nil, errBodyNotObject
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, errMalformedBody
	}
	return fields, nil
}

// rejectUnknown reports every property outside allowed, in a stable order.
func rejectUnknown(fields map[string]json.RawMessage, verr *validationError, allowed ...string) {
	unknown := make([]string, 0)
	for key := range fields {
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		verr.add("property %s should not exist", key)
	}
}

// stringField applies IsString + MinLength(minLen) to a property.
func stringField(fields map[string]json.RawMessage, field string, minLen int, verr *validationError) string {
	var value string
	isString := false
	if raw, ok := fields[field]; ok {
		if err := json.Unmarshal(raw, &value); err == nil && isJSONString(raw) {
			isString = true
		}
	}

	if !isString || utf8.RuneCountInString(value) < minLen {
		verr.add("%s must be longer than or equal to %d characters", field, minLen)
	}
	if !isString {
		verr.add("%s must be a string", field)
	}
	return value
}

// intField applies IsInt + Min(lo) + Max(hi) to a property.
func intField(fields map[string]json.RawMessage, field string, lo, hi int, verr *validationError) int {
	number, isNumber := jsonNumber(fields[field])

	if !isNumber || number > float64(hi) {
		verr.add("%s must not be greater than %d", field, hi)
	}
	if !isNumber || number < float64(lo) {
		verr.add("%s must not be less than %d", field, lo)
	}
	if !isNumber || number != math.Trunc(number) {
		verr.add("%s must be an integer number", field)
	}
	if !isNumber {
		return 0
	}
	return int(number)
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

func jsonNumber(raw json.RawMessage) (float64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9')) {
		return 0, false
	}
	number, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil || math.IsInf(number, 0) || math.IsNaN(number) {
		return 0, false
	}
	return number, true
}

type createUserRequest struct {
	Name string
}

func validateCreateUser(fields map[string]json.RawMessage) (createUserRequest, error) {
	var verr validationError
	name := stringField(fields, "name", 2, &verr)
	rejectUnknown(fields, &verr, "name")
	return createUserRequest{Name: name}, verr.err()
}

type createBookRequest struct {
	Name string
}

func validateCreateBook(fields map[string]json.RawMessage) (createBookRequest, error) {
	var verr validationError
	name := stringField(fields, "name", 1, &verr)
	rejectUnknown(fields, &verr, "name")
	return createBookRequest{Name: name}, verr.err()
}

type returnBookRequest struct {
	Score int
}

func validateReturnBook(fields map[string]json.RawMessage) (returnBookRequest, error) {
	var verr validationError
	score := intField(fields, "score", 1, 10, &verr)
	rejectUnknown(fields, &verr, "score")
	return returnBookRequest{Score: score}, verr.err()
}

// parseID accepts an optionally negative run of decimal digits that fits int64.
func parseID(raw string) (int64, bool) {
	digits := strings.TrimPrefix(raw, "-")
	if digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
