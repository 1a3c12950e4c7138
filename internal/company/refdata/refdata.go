// Package refdata loads the static reference data used by the risk
// evaluator: red-flag countries, fake or generic person names and the
// scoring weights. A Store is built once at start-up and never mutated.
package refdata

import (
	"fmt"
	"os"
	"strings"

	e "github.com/gartstein/companyrisk/internal/company/errors"
	"gopkg.in/yaml.v3"
)

// Check names a person risk check. The values are the keys used in the
// weights file.
type Check string

const (
	CheckName        Check = "name_flag"
	CheckNewsMention Check = "news_mentions_flag"
	CheckNationality Check = "nationality_flag"
	CheckResidence   Check = "residence_flag"
	CheckAge         Check = "age_flag"
)

// Checks lists every weighted check in evaluation order.
var Checks = []Check{CheckName, CheckNewsMention, CheckNationality, CheckResidence, CheckAge}

// Paths locates the three reference files.
type Paths struct {
	RedFlagCountries string
	FakeNames        string
	ScoreWeights     string
}

// Store is the immutable reference data.
type Store struct {
	countries map[string]struct{}
	names     map[string]struct{}
	weights   map[Check]float64
}

type countriesFile struct {
	RedFlagCountries *[]string `yaml:"red_flag_countries"`
}

type namesFile struct {
	FakeNames *[]string `yaml:"fake_names"`
}

type weightsFile struct {
	Person map[string]*float64 `yaml:"person"`
}

// Load reads and validates the reference files. Any missing or malformed
// input yields an error wrapping ErrReferenceData.
func Load(paths Paths) (*Store, error) {
	var cf countriesFile
	if err := decodeFile(paths.RedFlagCountries, &cf); err != nil {
		return nil, err
	}
	if cf.RedFlagCountries == nil {
		return nil, fmt.Errorf("%w: %s: missing red_flag_countries", e.ErrReferenceData, paths.RedFlagCountries)
	}

	var nf namesFile
	if err := decodeFile(paths.FakeNames, &nf); err != nil {
		return nil, err
	}
	if nf.FakeNames == nil {
		return nil, fmt.Errorf("%w: %s: missing fake_names", e.ErrReferenceData, paths.FakeNames)
	}

	var wf weightsFile
	if err := decodeFile(paths.ScoreWeights, &wf); err != nil {
		return nil, err
	}
	weights, err := parseWeights(wf.Person)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", e.ErrReferenceData, paths.ScoreWeights, err)
	}

	return New(*cf.RedFlagCountries, *nf.FakeNames, weights)
}

// New builds a Store from in-memory values, applying the same validation
// as Load.
func New(countries, fakeNames []string, weights map[Check]float64) (*Store, error) {
	for _, c := range Checks {
		w, ok := weights[c]
		if !ok {
			return nil, fmt.Errorf("%w: missing weight for %s", e.ErrReferenceData, c)
		}
		if w < 0 || w > 1 {
			return nil, fmt.Errorf("%w: weight for %s out of range [0,1]: %v", e.ErrReferenceData, c, w)
		}
	}

	s := &Store{
		countries: make(map[string]struct{}, len(countries)),
		names:     make(map[string]struct{}, len(fakeNames)),
		weights:   make(map[Check]float64, len(Checks)),
	}
	for _, c := range countries {
		if k := countryKey(c); k != "" {
			s.countries[k] = struct{}{}
		}
	}
	for _, n := range fakeNames {
		if k := strings.TrimSpace(n); k != "" {
			s.names[k] = struct{}{}
		}
	}
	for _, c := range Checks {
		s.weights[c] = weights[c]
	}
	return s, nil
}

// IsRedFlagCountry reports whether a nationality or country of residence
// is on the red-flag list. Matching ignores case and surrounding spaces.
func (s *Store) IsRedFlagCountry(country string) bool {
	k := countryKey(country)
	if k == "" {
		return false
	}
	_, ok := s.countries[k]
	return ok
}

// IsFakeName reports whether name exactly matches a known fake or generic name.
func (s *Store) IsFakeName(name string) bool {
	k := strings.TrimSpace(name)
	if k == "" {
		return false
	}
	_, ok := s.names[k]
	return ok
}

// Weight returns the weight of a check.
func (s *Store) Weight(c Check) float64 {
	return s.weights[c]
}

// Counts reports the size of the country and name sets.
func (s *Store) Counts() (countries, names int) {
	return len(s.countries), len(s.names)
}

func parseWeights(raw map[string]*float64) (map[Check]float64, error) {
	if raw == nil {
		return nil, fmt.Errorf("missing person weights")
	}
	weights := make(map[Check]float64, len(raw))
	for _, c := range Checks {
		w, ok := raw[string(c)]
		if !ok || w == nil {
			return nil, fmt.Errorf("missing weight for %s", c)
		}
		weights[c] = *w
	}
	return weights, nil
}

func decodeFile(path string, out any) error {
	if path == "" {
		return fmt.Errorf("%w: path not configured", e.ErrReferenceData)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", e.ErrReferenceData, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", e.ErrReferenceData, path, err)
	}
	return nil
}

func countryKey(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
