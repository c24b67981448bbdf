package weather

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// SummaryLength is the number of forecast entries a summary covers.
const SummaryLength = 5

// Icon is the glyph shown by the front-end for a forecast slot.
type Icon string

const (
	IconClear        Icon = "☀️"
	IconPartlyCloudy Icon = "🌤"
	IconMostlyCloudy Icon = "⛅️"
	IconOvercast     Icon = "☁️"
	IconThunderstorm Icon = "🌩"
	IconRain         Icon = "🌧"
	IconSnow         Icon = "❄️"
	IconFog          Icon = "🌫"
)

// Location identifies the place the upstream forecast is requested for.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Key returns "city,country", the query form OpenWeatherMap accepts.
func (l Location) Key() string {
	if l.Country == "" {
		return l.City
	}
	return l.City + "," + l.Country
}

// ForecastRecord is the stored upstream forecast document. Only the fields
// the summary needs are decoded; everything else in the document is ignored.
type ForecastRecord struct {
	List []ForecastEntry `bson:"list" json:"list"`
}

// ForecastEntry is one 3-hour slot of the upstream forecast.
// Pointer fields distinguish "missing" from a zero value.
type ForecastEntry struct {
	Main    *MainReading `bson:"main" json:"main" validate:"required"`
	DtTxt   *string      `bson:"dt_txt" json:"dt_txt" validate:"required,min=8"`
	Weather []Condition  `bson:"weather" json:"weather" validate:"required,min=1,dive"`
}

type MainReading struct {
	Temp *float64 `bson:"temp" json:"temp" validate:"required"`
}

type Condition struct {
	ID *ConditionCode `bson:"id" json:"id" validate:"required"`
}

// ConditionCode is an OpenWeatherMap condition id (2xx-8xx).
// Stored documents carry it as any BSON number or as a numeric string.
type ConditionCode int

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (c *ConditionCode) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*c = ConditionCode(rv.Int32())
	case bsontype.Int64:
		*c = ConditionCode(rv.Int64())
	case bsontype.Double:
		n, ok := toInt(rv.Double())
		if !ok {
			return fmt.Errorf("condition id %v is not a finite integer in range", rv.Double())
		}
		*c = ConditionCode(n)
	case bsontype.String:
		n, err := strconv.Atoi(strings.TrimSpace(rv.StringValue()))
		if err != nil {
			return fmt.Errorf("condition id %q is not an integer", rv.StringValue())
		}
		*c = ConditionCode(n)
	default:
		return fmt.Errorf("condition id has unsupported type %s", t)
	}
	return nil
}

// toInt truncates f toward zero. It reports false when f is NaN, infinite
// or outside the int range, where a plain conversion has no defined result.
func toInt(f float64) (int, bool) {
	const limit = -float64(math.MinInt)
	if math.IsNaN(f) || f < -limit || f >= limit {
		return 0, false
	}
	return int(f), true
}

// Summary is the (temperature, local time label, icon) tuple for one slot.
type Summary struct {
	Temperature int
	Label       string
	Icon        Icon
}

// MarshalJSON encodes the summary as a 3-element array, the shape the
// dashboard front-end reads.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Temperature, s.Label, s.Icon})
}

// UnmarshalJSON accepts the array form produced by MarshalJSON.
func (s *Summary) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("summary must have 3 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &s.Temperature); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &s.Label); err != nil {
		return err
	}
	return json.Unmarshal(parts[2], &s.Icon)
}
