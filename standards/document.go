package standards

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"gopkg.in/yaml.v3"
)

const (
	keyCheckP1  = "check_parameter_1"
	keyCheckP2  = "check_parameter_2"
	keyCheckP3  = "check_parameter_3"
	keyCheckImg = "check_image"
	keyP1Min    = "parameter_1_min"
	keyP1Pass   = "parameter_1_pass"
	keyP1Unit   = "parameter_1_unit"
	keyP2Min    = "parameter_2_min"
	keyP2Max    = "parameter_2_max"
	keyP2Pass   = "parameter_2_pass"
	keyP2Unit   = "parameter_2_unit"
	keyP3Min    = "parameter_3_min"
	keyP3Pass   = "parameter_3_pass"
	keyP3Unit   = "parameter_3_unit"
	keyImgT1    = "image_threshold_1"
	keyImgT2    = "image_threshold_2"
	keyImgUnit  = "image_unit"
)

// Document is the flat key/value exchange form of a Config. Every key is
// required; the pointers let a decoded document tell "absent" from "zero".
// JSON documents are accepted as well, since JSON is a subset of YAML.
type Document struct {
	CheckParameter1 *bool    `json:"check_parameter_1" yaml:"check_parameter_1"`
	CheckParameter2 *bool    `json:"check_parameter_2" yaml:"check_parameter_2"`
	CheckParameter3 *bool    `json:"check_parameter_3" yaml:"check_parameter_3"`
	CheckImage      *bool    `json:"check_image" yaml:"check_image"`
	Parameter1Min   *float64 `json:"parameter_1_min" yaml:"parameter_1_min"`
	Parameter1Pass  *float64 `json:"parameter_1_pass" yaml:"parameter_1_pass"`
	Parameter1Unit  *string  `json:"parameter_1_unit" yaml:"parameter_1_unit"`
	Parameter2Min   *float64 `json:"parameter_2_min" yaml:"parameter_2_min"`
	Parameter2Max   *float64 `json:"parameter_2_max" yaml:"parameter_2_max"`
	Parameter2Pass  *float64 `json:"parameter_2_pass" yaml:"parameter_2_pass"`
	Parameter2Unit  *string  `json:"parameter_2_unit" yaml:"parameter_2_unit"`
	Parameter3Min   *float64 `json:"parameter_3_min" yaml:"parameter_3_min"`
	Parameter3Pass  *float64 `json:"parameter_3_pass" yaml:"parameter_3_pass"`
	Parameter3Unit  *string  `json:"parameter_3_unit" yaml:"parameter_3_unit"`
	ImageThreshold1 *float64 `json:"image_threshold_1" yaml:"image_threshold_1"`
	ImageThreshold2 *float64 `json:"image_threshold_2" yaml:"image_threshold_2"`
	ImageUnit       *string  `json:"image_unit" yaml:"image_unit"`
}

// Document converts c to its exchange form.
func (c Config) Document() Document {
	return Document{
		CheckParameter1: &c.Checks.Concentration,
		CheckParameter2: &c.Checks.Ratio280,
		CheckParameter3: &c.Checks.Ratio230,
		CheckImage:      &c.Checks.Image,
		Parameter1Min:   &c.Concentration.Min,
		Parameter1Pass:  &c.Concentration.Pass,
		Parameter1Unit:  &c.Concentration.Unit,
		Parameter2Min:   &c.Ratio280.Min,
		Parameter2Max:   &c.Ratio280.Max,
		Parameter2Pass:  &c.Ratio280.Pass,
		Parameter2Unit:  &c.Ratio280.Unit,
		Parameter3Min:   &c.Ratio230.Min,
		Parameter3Pass:  &c.Ratio230.Pass,
		Parameter3Unit:  &c.Ratio230.Unit,
		ImageThreshold1: &c.Image.Smear,
		ImageThreshold2: &c.Image.Band,
		ImageUnit:       &c.Image.Unit,
	}
}

// Config builds a validated Config. A document with any key missing is
// rejected as a whole.
func (d Document) Config() (Config, error) {
	var missing []string
	b := func(key string, p *bool) bool {
		if p == nil {
			missing = append(missing, key)
			return false
		}
		return *p
	}
	f := func(key string, p *float64) float64 {
		if p == nil {
			missing = append(missing, key)
			return 0
		}
		return *p
	}
	s := func(key string, p *string) string {
		if p == nil {
			missing = append(missing, key)
			return ""
		}
		return *p
	}

	c := Config{
		Checks: Checks{
			Concentration: b(keyCheckP1, d.CheckParameter1),
			Ratio280:      b(keyCheckP2, d.CheckParameter2),
			Ratio230:      b(keyCheckP3, d.CheckParameter3),
			Image:         b(keyCheckImg, d.CheckImage),
		},
		Concentration: Lower{
			Min:  f(keyP1Min, d.Parameter1Min),
			Pass: f(keyP1Pass, d.Parameter1Pass),
			Unit: s(keyP1Unit, d.Parameter1Unit),
		},
		Ratio280: Bounded{
			Min:  f(keyP2Min, d.Parameter2Min),
			Max:  f(keyP2Max, d.Parameter2Max),
			Pass: f(keyP2Pass, d.Parameter2Pass),
			Unit: s(keyP2Unit, d.Parameter2Unit),
		},
		Ratio230: Lower{
			Min:  f(keyP3Min, d.Parameter3Min),
			Pass: f(keyP3Pass, d.Parameter3Pass),
			Unit: s(keyP3Unit, d.Parameter3Unit),
		},
		Image: Image{
			Smear: f(keyImgT1, d.ImageThreshold1),
			Band:  f(keyImgT2, d.ImageThreshold2),
			Unit:  s(keyImgUnit, d.ImageUnit),
		},
	}

	if len(missing) > 0 {
		return Config{}, &ValidationError{Field: missing[0], Reason: fmt.Sprintf("required key is missing (%d missing in total)", len(missing))}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Parse reads a flat key/value document. Unknown keys are rejected so that a
// misspelled threshold cannot silently fall back to zero.
func Parse(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, &ValidationError{Field: "document", Reason: "empty"}
		}
		return Config{}, pfx.Err(err)
	}

	return doc.Config()
}

// ParseFile reads the document at path.
func ParseFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, pfx.Err(err)
	}

	c, err := Parse(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// MarshalYAML renders c as a flat document.
func (c Config) MarshalYAML() (interface{}, error) {
	return c.Document(), nil
}
