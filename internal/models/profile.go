package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// WageNotApplicable is the sentinel the dataset uses for states without a
// state-level minimum wage.
const WageNotApplicable = "N/C"

// Profile is the economic and academic description of one U.S. state. The
// JSON keys match the dataset the frontend ships.
type Profile struct {
	Name         string `json:"Estado"`
	Code         string `json:"Sigla do Estado,omitempty"`
	Highlight    Attr   `json:"Destaque Principal,omitempty"`
	CostOfLiving Attr   `json:"Índice de Custo de Vida,omitempty"`
	MinimumWage  Wage   `json:"Salário Mínimo por Hora (USD)"`
	Academic     Attr   `json:"Ambiente Acadêmico (Geral),omitempty"`
	Climate      Attr   `json:"Clima (Geral),omitempty"`
}

// Valid reports whether the profile carries a display name. Any non-empty
// name is accepted, whitespace included.
func (p *Profile) Valid() bool {
	return p != nil && p.Name != ""
}

// Attr is an optional scalar attribute. Strings are kept as-is; numbers and
// booleans keep their JSON text so "112.5" stays "112.5".
type Attr string

func (a *Attr) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Attr(s)
	case '{', '[':
		return fmt.Errorf("attribute must be a string or number, got %s", data)
	default:
		*a = Attr(data)
	}
	return nil
}

func (Attr) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "number"},
		},
	}
}

// Wage is an hourly minimum wage in USD. It accepts a JSON number, a numeric
// string, the "N/C" sentinel or null; anything non-numeric is not applicable.
type Wage struct {
	Value float64
	Set   bool
}

// NewWage returns a wage holding v.
func NewWage(v float64) Wage {
	return Wage{Value: v, Set: true}
}

// Applicable reports whether the wage is a positive amount.
func (w Wage) Applicable() bool {
	return w.Set && w.Value > 0
}

func (w *Wage) UnmarshalJSON(data []byte) error {
	*w = Wage{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" || s == WageNotApplicable {
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*w = NewWage(v)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("wage must be a number or %q: %w", WageNotApplicable, err)
	}
	*w = NewWage(v)
	return nil
}

func (w Wage) MarshalJSON() ([]byte, error) {
	if !w.Set {
		return json.Marshal(WageNotApplicable)
	}
	return json.Marshal(w.Value)
}

func (Wage) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "number"},
			{Type: "string", Enum: []any{WageNotApplicable}},
		},
	}
}
