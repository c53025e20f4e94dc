package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"purepick/internal/models"
)

var (
	fencePattern         = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
)

// cleanJSON strips one enclosing code fence and drops trailing commas before
// a closing brace or bracket.
func cleanJSON(text string) string {
	s := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(s); m != nil && m[2] != "" {
		s = strings.TrimSpace(m[2])
	}
	return trailingCommaPattern.ReplaceAllString(s, "$1")
}

// parseDetails turns free text from the analysis service into validated
// details. Recommendations are left empty.
func parseDetails(text string) (*models.ScannedProductDetails, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(cleanJSON(text))))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var (
		d   models.ScannedProductDetails
		err error
	)
	if d.ProductName, err = requiredString(raw, "productName"); err != nil {
		return nil, err
	}
	if d.Brand, err = optionalString(raw, "brand"); err != nil {
		return nil, err
	}
	if s, err := optionalString(raw, "ingredients"); err != nil {
		return nil, err
	} else if s != nil {
		d.Ingredients = *s
	}
	if d.IsFoodProduct, err = requiredBool(raw, "isFoodProduct"); err != nil {
		return nil, err
	}
	if d.Category, err = requiredString(raw, "category"); err != nil {
		return nil, err
	}

	eco, err := score(raw, "ecologicalScore")
	if err != nil {
		return nil, err
	}
	if eco == nil {
		return nil, fmt.Errorf("missing ecologicalScore")
	}
	d.EcologicalScore = *eco

	if s, err := optionalString(raw, "ecologicalJustification"); err != nil {
		return nil, err
	} else if s != nil {
		d.EcologicalJustification = *s
	}
	if d.NutritionalScore, err = score(raw, "nutritionalScore"); err != nil {
		return nil, err
	}
	if d.NutritionalJustification, err = optionalString(raw, "nutritionalJustification"); err != nil {
		return nil, err
	}

	d.Recommendations = []models.Product{}
	return &d, nil
}

func requiredString(raw map[string]interface{}, key string) (string, error) {
	s, err := optionalString(raw, key)
	if err != nil {
		return "", err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return *s, nil
}

func optionalString(raw map[string]interface{}, key string) (*string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s: expected string, got %T", key, v)
	}
	return &s, nil
}

func requiredBool(raw map[string]interface{}, key string) (bool, error) {
	switch v := raw[key].(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%s: %q is not a boolean", key, v)
		}
		return b, nil
	case nil:
		return false, fmt.Errorf("missing %s", key)
	default:
		return false, fmt.Errorf("%s: expected boolean, got %T", key, v)
	}
}

// score accepts a JSON number or a numeric string. Null, a missing key and
// the string "null" all mean no score.
func score(raw map[string]interface{}, key string) (*int, error) {
	var text string
	switch v := raw[key].(type) {
	case nil:
		return nil, nil
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
		if text == "" || strings.EqualFold(text, "null") {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("%s: expected number, got %T", key, v)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", key, text)
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%s: %v is not an integer", key, f)
	}
	if f < 0 || f > 100 {
		return nil, fmt.Errorf("%s: %v is outside 0-100", key, f)
	}
	return models.IntPtr(int(f)), nil
}
