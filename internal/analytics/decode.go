package analytics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// ErrUnrecognizedShape means a payload matched none of the accepted variants
var ErrUnrecognizedShape = errors.New("unrecognized payload shape")

// Shape tags which accepted variant a subject payload used
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeCards
	ShapeItems
	ShapeSubjects
)

func (s Shape) String() string {
	switch s {
	case ShapeCards:
		return "cards"
	case ShapeItems:
		return "items"
	case ShapeSubjects:
		return "subjects"
	default:
		return "unrecognized"
	}
}

// subjectShapes lists the list keys in the order they are checked
var subjectShapes = []Shape{ShapeCards, ShapeItems, ShapeSubjects}

// subjectFields is the precedence table for subject record fields.
// The first key present (and non-empty) wins.
var subjectFields = struct {
	Code     []string
	Name     []string
	Average  []string
	PassRate []string
	Pass     []string
	Count    []string
}{
	Code:     []string{"sub_code", "code"},
	Name:     []string{"sub_name", "name"},
	Average:  []string{"average", "avg"},
	PassRate: []string{"pass_rate"},
	Pass:     []string{"pass"},
	Count:    []string{"count", "students"},
}

// DefaultRiskLabels are used when a risk payload carries neither counts nor labels
var DefaultRiskLabels = []string{"low", "medium", "high", "unknown"}

// SubjectResult is a decoded subject payload
type SubjectResult struct {
	Shape Shape
	Cards []models.SubjectCard
}

// DecodeSubjects decodes a subject_averages payload into cards sorted by
// descending average. Unrecognized or malformed payloads yield no cards and
// an error wrapping ErrUnrecognizedShape.
func DecodeSubjects(data []byte) (SubjectResult, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return SubjectResult{}, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	for _, shape := range subjectShapes {
		raw, ok := envelope[shape.String()]
		if !ok || isNull(raw) {
			continue
		}
		var records []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			// key present but not a list of records; try the next variant
			continue
		}

		cards := make([]models.SubjectCard, 0, len(records))
		for _, rec := range records {
			cards = append(cards, decodeSubjectRecord(rec))
		}
		SortByAverage(cards)
		return SubjectResult{Shape: shape, Cards: cards}, nil
	}

	return SubjectResult{}, fmt.Errorf("%w: expected one of cards, items or subjects", ErrUnrecognizedShape)
}

func decodeSubjectRecord(rec map[string]json.RawMessage) models.SubjectCard {
	card := models.SubjectCard{
		Code: firstString(rec, subjectFields.Code),
		Name: firstString(rec, subjectFields.Name),
	}
	if card.Name == "" {
		card.Name = card.Code
	}
	if v, ok := firstNumber(rec, subjectFields.Average); ok {
		card.Average = v
	}
	if v, ok := firstNumber(rec, subjectFields.PassRate); ok {
		card.PassRate = &v
	} else if v, ok := firstNumber(rec, subjectFields.Pass); ok {
		card.PassRate = &v
	}
	if v, ok := firstNumber(rec, subjectFields.Count); ok && v > 0 {
		card.Count = int(math.Round(v))
	}
	return card
}

// SortByAverage orders cards by descending average, keeping payload order for ties
func SortByAverage(cards []models.SubjectCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Average > cards[j].Average
	})
}

func firstString(rec map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		raw, ok := rec[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		// codes are sometimes sent as bare numbers
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n != "" {
			return n.String()
		}
	}
	return ""
}

func firstNumber(rec map[string]json.RawMessage, keys []string) (float64, bool) {
	for _, k := range keys {
		raw, ok := rec[k]
		if !ok {
			continue
		}
		if v, ok := parseNumber(raw); ok {
			return v, true
		}
	}
	return 0, false
}

// parseNumber accepts JSON numbers and numeric strings such as "85" or "85%"
func parseNumber(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, !math.IsNaN(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// DecodeRisk decodes a risk_distribution payload. Category order follows the
// payload's counts object. Malformed payloads yield the default categories
// with zero counts and an error wrapping ErrUnrecognizedShape.
func DecodeRisk(data []byte) (models.RiskDistribution, error) {
	empty := zeroRisk(DefaultRiskLabels)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return empty, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	var labels []string
	var values []int
	for _, key := range []string{"counts", "count"} {
		raw, ok := envelope[key]
		if !ok || isNull(raw) {
			continue
		}
		l, v, err := orderedCounts(raw)
		if err != nil {
			return empty, fmt.Errorf("%w: %s: %v", ErrUnrecognizedShape, key, err)
		}
		labels, values = l, v
		break
	}

	var dist models.RiskDistribution
	if len(labels) > 0 {
		dist = models.RiskDistribution{Labels: labels, Values: values}
	} else {
		fallback := DefaultRiskLabels
		if raw, ok := envelope["labels"]; ok {
			var l []string
			if err := json.Unmarshal(raw, &l); err == nil && len(l) > 0 {
				fallback = l
			}
		}
		dist = zeroRisk(fallback)
	}

	for _, v := range dist.Values {
		dist.Total += v
	}
	if raw, ok := envelope["total_students"]; ok {
		if t, ok := parseNumber(raw); ok && t >= 0 {
			dist.Total = int(math.Round(t))
		}
	}
	return dist, nil
}

func zeroRisk(labels []string) models.RiskDistribution {
	return models.RiskDistribution{
		Labels: append([]string(nil), labels...),
		Values: make([]int, len(labels)),
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// orderedCounts walks a JSON object keeping key order, which a Go map would lose
func orderedCounts(raw json.RawMessage) ([]string, []int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var labels []string
	var values []int
	seen := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		n := 0
		if f, ok := parseNumber(value); ok && f > 0 {
			n = int(math.Round(f))
		}

		if i, dup := seen[key]; dup {
			values[i] = n
			continue
		}
		seen[key] = len(labels)
		labels = append(labels, key)
		values = append(values, n)
	}
	return labels, values, nil
}
