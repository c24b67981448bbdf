package weather

import (
	"fmt"
	"sort"
	"strings"
)

// TimeKeys are the UTC times of day the 3-hour forecast is issued for.
var TimeKeys = []string{
	"00:00:00", "03:00:00", "06:00:00", "09:00:00",
	"12:00:00", "15:00:00", "18:00:00", "21:00:00",
}

// TimeLabelTable maps a UTC "HH:MM:SS" time of day to a local label.
type TimeLabelTable struct {
	name   string
	labels map[string]string
}

// Named tables. utc-5 is the table the dashboard has always served;
// utc-3 is the one the standalone summary script printed. They are kept
// apart on purpose; callers pick one by name.
const (
	TableUTCMinus5 = "utc-5"
	TableUTCMinus3 = "utc-3"
)

var namedTables = map[string]map[string]string{
	TableUTCMinus5: {
		"00:00:00": "7 pm",
		"03:00:00": "10 pm",
		"06:00:00": "1 am",
		"09:00:00": "4 am",
		"12:00:00": "7 am",
		"15:00:00": "10 am",
		"18:00:00": "1 pm",
		"21:00:00": "4 pm",
	},
	TableUTCMinus3: {
		"00:00:00": "9 pm",
		"03:00:00": "12 am",
		"06:00:00": "3 am",
		"09:00:00": "6 am",
		"12:00:00": "9 am",
		"15:00:00": "12 pm",
		"18:00:00": "3 pm",
		"21:00:00": "6 pm",
	},
}

// NewTimeLabelTable builds a table from an explicit mapping. Every key in
// TimeKeys must be present.
func NewTimeLabelTable(name string, labels map[string]string) (TimeLabelTable, error) {
	cp := make(map[string]string, len(labels))
	for _, k := range TimeKeys {
		v, ok := labels[k]
		if !ok || v == "" {
			return TimeLabelTable{}, fmt.Errorf("time label table %q: missing label for %s", name, k)
		}
		cp[k] = v
	}
	for k, v := range labels {
		cp[k] = v
	}
	return TimeLabelTable{name: name, labels: cp}, nil
}

// LookupTable returns the named table.
func LookupTable(name string) (TimeLabelTable, error) {
	labels, ok := namedTables[name]
	if !ok {
		return TimeLabelTable{}, fmt.Errorf("unknown time label table %q (known: %s)", name, strings.Join(TableNames(), ", "))
	}
	return NewTimeLabelTable(name, labels)
}

// TableNames lists the named tables in sorted order.
func TableNames() []string {
	names := make([]string, 0, len(namedTables))
	for n := range namedTables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// OffsetTable builds a table for a whole-hour UTC offset, e.g. -5 for US
// Eastern standard time. Labels use the same "7 pm" / "12 am" style as the
// named tables.
func OffsetTable(offsetHours int) TimeLabelTable {
	labels := make(map[string]string, len(TimeKeys))
	for i, k := range TimeKeys {
		h := ((i*3+offsetHours)%24 + 24) % 24
		labels[k] = clockLabel(h)
	}
	return TimeLabelTable{name: fmt.Sprintf("utc%+d", offsetHours), labels: labels}
}

func clockLabel(hour int) string {
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d %s", h, suffix)
}

// Name returns the table's configured name.
func (t TimeLabelTable) Name() string { return t.name }

// Label resolves a UTC time of day. A miss wraps ErrUnknownTimeLabel.
func (t TimeLabelTable) Label(timeOfDay string) (string, error) {
	label, ok := t.labels[timeOfDay]
	if !ok {
		return "", fmt.Errorf("%w: %q not in table %q", ErrUnknownTimeLabel, timeOfDay, t.name)
	}
	return label, nil
}
