// Package registration holds the state and panel logic of the conference
// registration form. Everything here is pure: panels read and mutate an
// explicit FormState and never touch the network or the DOM.
package registration

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ActivitySeparator splits an activity's name from its schedule and price.
const ActivitySeparator = " — "

// Catalog errors.
var (
	ErrInvalidCatalog = errors.New("invalid activity catalog")
	ErrMalformedLabel = errors.New("malformed activity label")
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Activity is one selectable conference activity.
type Activity struct {
	Name     string  `yaml:"name" json:"name"`
	TimeSlot string  `yaml:"time_slot" json:"time_slot,omitempty"`
	Cost     float64 `yaml:"cost" json:"cost"`
}

// ConflictsWith reports whether both activities run in the same time slot.
// Activities without a time slot never conflict.
func (a Activity) ConflictsWith(other Activity) bool {
	return a.TimeSlot != "" && a.TimeSlot == other.TimeSlot
}

// DisplayText renders the label shown next to the activity's checkbox.
func (a Activity) DisplayText() string {
	if a.TimeSlot == "" {
		return a.Name + ActivitySeparator + "$" + FormatAmount(a.Cost)
	}
	return a.Name + ActivitySeparator + a.TimeSlot + ", $" + FormatAmount(a.Cost)
}

// Catalog is the list of activities offered on the form.
type Catalog struct {
	Activities []Activity `yaml:"activities"`
}

// Len returns the number of activities.
func (c Catalog) Len() int {
	return len(c.Activities)
}

// Validate checks that every activity has a name and a non-negative cost.
func (c Catalog) Validate() error {
	if len(c.Activities) == 0 {
		return fmt.Errorf("%w: no activities", ErrInvalidCatalog)
	}
	for i, a := range c.Activities {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: activity %d has no name", ErrInvalidCatalog, i)
		}
		if a.Cost < 0 {
			return fmt.Errorf("%w: activity %q has a negative cost", ErrInvalidCatalog, a.Name)
		}
	}
	return nil
}

// LoadCatalog decodes a YAML catalog.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// LoadCatalogFile reads a YAML catalog from disk.
func LoadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// DefaultCatalog returns the built-in conference catalog.
func DefaultCatalog() Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(err)
	}
	return c
}

// ParseActivityLabel recovers an Activity from text produced by
// DisplayText: the name, ActivitySeparator, then either "<slot>, <cost>"
// or just the cost. The cost keeps only digits and dots; anything
// unparsable counts as 0.
func ParseActivityLabel(text string) (Activity, error) {
	name, rest, ok := strings.Cut(text, ActivitySeparator)
	if !ok {
		return Activity{}, fmt.Errorf("%w: %q", ErrMalformedLabel, text)
	}

	a := Activity{Name: strings.TrimSpace(name)}

	costText := rest
	if parts := strings.Split(rest, ","); len(parts) > 1 {
		a.TimeSlot = strings.TrimSpace(parts[0])
		costText = parts[1]
	}
	a.Cost = parseCost(costText)

	return a, nil
}

var nonNumeric = regexp.MustCompile(`[^0-9.]+`)

func parseCost(text string) float64 {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatAmount renders whole amounts without decimals and anything else
// with two.
func FormatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
