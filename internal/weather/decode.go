package weather

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// DecodeRecord decodes a stored forecast widget document. Decoding errors
// (wrong field types, truncated documents) wrap ErrMalformedInput.
//
// Entries past SummaryLength are counted but left undecoded, so whatever
// they contain cannot fail the record.
func DecodeRecord(doc bson.Raw) (ForecastRecord, error) {
	var raw struct {
		List []bson.RawValue `bson:"list"`
	}
	if err := bson.Unmarshal(doc, &raw); err != nil {
		return ForecastRecord{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	rec := ForecastRecord{List: make([]ForecastEntry, len(raw.List))}
	for i, v := range raw.List {
		if i == SummaryLength {
			break
		}
		if err := v.Unmarshal(&rec.List[i]); err != nil {
			return ForecastRecord{}, fmt.Errorf("%w: entry %d: %v", ErrMalformedInput, i, err)
		}
	}
	return rec, nil
}
