package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Leg is one constituent fill of a multi-leg trade.
type Leg struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Qty    float64 `json:"qty"`
	Price  float64 `json:"price"`
}

// Trade is a recorded buy/sell transaction in the journal.
// Optional numeric and time fields are pointers so that "absent" survives a
// JSON round-trip instead of collapsing to a zero value.
type Trade struct {
	ID            int64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Symbol        string   `json:"symbol"`
	Side          string   `json:"side"`
	Qty           float64  `json:"qty"`
	EntryPrice    float64  `json:"entry_price"`
	EntryTime     string   `json:"entry_time"`
	ExitPrice     *float64 `json:"exit_price,omitempty"`
	ExitTime      *string  `json:"exit_time,omitempty"`
	Fees          *float64 `json:"fees,omitempty"`
	Tags          string   `json:"tags,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Legs          []Leg    `json:"legs,omitempty" gorm:"serializer:json"`
	AttachmentURL *string  `json:"attachment_url,omitempty"`
}

// ValidationError reports a rejected field on create or update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid trade: %s %s", e.Field, e.Reason)
}

// Validate checks the required-field rules for a trade record.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return &ValidationError{Field: "side", Reason: "must be buy or sell"}
	}
	if t.Qty <= 0 {
		return &ValidationError{Field: "qty", Reason: "must be positive"}
	}
	if strings.TrimSpace(t.EntryTime) == "" {
		return &ValidationError{Field: "entry_time", Reason: "must not be empty"}
	}
	for i, leg := range t.Legs {
		if strings.TrimSpace(leg.Symbol) == "" {
			return &ValidationError{Field: fmt.Sprintf("legs[%d].symbol", i), Reason: "must not be empty"}
		}
		if leg.Side != SideBuy && leg.Side != SideSell {
			return &ValidationError{Field: fmt.Sprintf("legs[%d].side", i), Reason: "must be buy or sell"}
		}
		if leg.Qty <= 0 {
			return &ValidationError{Field: fmt.Sprintf("legs[%d].qty", i), Reason: "must be positive"}
		}
	}
	return nil
}

// Normalize recomputes the top-level symbol/side/qty/entry_price from the
// first leg when legs are present. The top-level fields are a derived view
// kept for single-leg consumers, never a separately mutable copy.
func (t *Trade) Normalize() {
	if len(t.Legs) == 0 {
		return
	}
	first := t.Legs[0]
	t.Symbol = first.Symbol
	t.Side = first.Side
	t.Qty = first.Qty
	t.EntryPrice = first.Price
}

// TagList splits the comma-separated tags field into trimmed, non-empty
// labels. An empty tags field yields nil.
func (t *Trade) TagList() []string {
	if t.Tags == "" {
		return nil
	}
	var tags []string
	for _, raw := range strings.Split(t.Tags, ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Merge applies a partial update over an existing trade and pins the record
// id. Fields absent from the patch keep their prior values; an explicit JSON
// null clears an optional field. The merged record is re-validated.
func Merge(existing Trade, patch map[string]any, id int64) (Trade, error) {
	raw, err := json.Marshal(existing)
	if err != nil {
		return Trade{}, fmt.Errorf("failed to encode existing trade: %w", err)
	}
	merged := make(map[string]any)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return Trade{}, fmt.Errorf("failed to decode existing trade: %w", err)
	}
	for k, v := range patch {
		merged[k] = v
	}
	merged["id"] = id

	raw, err = json.Marshal(merged)
	if err != nil {
		return Trade{}, fmt.Errorf("failed to encode merged trade: %w", err)
	}
	var out Trade
	if err := json.Unmarshal(raw, &out); err != nil {
		return Trade{}, &ValidationError{Field: "patch", Reason: "has mismatched field types"}
	}
	if err := out.Validate(); err != nil {
		return Trade{}, err
	}
	out.Normalize()
	return out, nil
}
