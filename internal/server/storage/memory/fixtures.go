package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/rowsync/internal/rows"
)

// fixtureFile описывает YAML файл с начальными данными:
//
//	views:
//	  - name: Persons
//	    columns:
//	      - {id: Name, type: STRING}
//	      - {id: Age, type: INTEGER}
//	      - {type: STRING}           # id по умолчанию: col003
//	    rows:
//	      - {id: 1, version: 1, values: [Alice, "30"]}
type fixtureFile struct {
	Views []fixtureView `yaml:"views"`
}

type fixtureView struct {
	Name    string        `yaml:"name"`
	Columns []rows.Column `yaml:"columns"`
	Rows    []fixtureRow  `yaml:"rows"`
}

type fixtureRow struct {
	Values  []*string `yaml:"values"`
	ID      int64     `yaml:"id"`
	Version int64     `yaml:"version"`
}

// LoadFixtures читает определения view из YAML файла
func (s *Storage) LoadFixtures(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixtures: %w", err)
	}
	return s.ParseFixtures(data)
}

// ParseFixtures определяет view из YAML документа
func (s *Storage) ParseFixtures(data []byte) error {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse fixtures: %w", err)
	}

	for _, fv := range file.Views {
		columns := make([]rows.Column, len(fv.Columns))
		for i, col := range fv.Columns {
			if col.ID == "" {
				col.ID = rows.DefaultColumnID(i + 1)
			}
			typ, err := rows.ParseValueType(string(col.Type))
			if err != nil {
				return fmt.Errorf("view %s, column %s: %w", fv.Name, col.ID, err)
			}
			col.Type = typ
			if col.Label == "" {
				col.Label = col.ID
			}
			columns[i] = col
		}

		data := make([]*rows.Row, 0, len(fv.Rows))
		for _, fr := range fv.Rows {
			version := fr.Version
			if version == 0 {
				version = 1
			}
			data = append(data, rows.NewRowFromValues(fr.ID, version, fr.Values))
		}

		if err := s.Define(fv.Name, columns, data...); err != nil {
			return fmt.Errorf("failed to define view %s: %w", fv.Name, err)
		}
	}

	s.logger.Info("Fixtures loaded", "views", len(file.Views))
	return nil
}
