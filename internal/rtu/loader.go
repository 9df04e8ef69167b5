package rtu

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// datapointFile is the YAML shape of an exported datapoint table.
//
//	datapoints:
//	  - [1, 10, 30, 20, 11]
//	  - [1, 11, 30, 20, ""]
//
// Each row follows the canonical shape [coa, ioa, type_id, cot,
// related_ioa?, extra...]; YAML scalar typing carries the integer/text
// address distinction through.
type datapointFile struct {
	Datapoints []Row `yaml:"datapoints"`
}

// LoadDatapointFile reads datapoint rows from an exported YAML table.
//
// The rows are returned unconverted; New applies the conversion contract
// so that shape errors surface through the same path as any other
// construction input.
func LoadDatapointFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rtu: reading datapoint file: %w", err)
	}

	var file datapointFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("rtu: parsing datapoint file: %w", err)
	}
	if len(file.Datapoints) == 0 {
		return nil, fmt.Errorf("rtu: datapoint file %s contains no datapoints", path)
	}

	return file.Datapoints, nil
}
