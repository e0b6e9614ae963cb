// Package fixtures loads the pet data scenarios submit to the service (YAML/JSON).
package fixtures

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pet is one set of submitted pet fields. Photo is a file path, resolved relative to the
// fixtures file when not absolute.
type Pet struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	AnimalType string `json:"animal_type" yaml:"animal_type"`
	Age        string `json:"age" yaml:"age"`
	Photo      string `json:"photo" yaml:"photo"`
}

// Set is a loaded fixtures file.
type Set struct {
	Pets        []Pet `json:"pets" yaml:"pets"`
	InvalidPets []Pet `json:"invalid_pets" yaml:"invalid_pets"`

	idx map[string]Pet
}

// Well-known fixture ids used by the built-in scenarios.
const (
	PetWithPhoto   = "murzik"
	PetUpdated     = "barsik"
	PetForeignEdit = "test_dog"
	PetInvalid     = "incorrect"
)

// Default mirrors the data the suite has always used. Photo paths are relative to imagesDir.
func Default(imagesDir string) *Set {
	img := func(name string) string { return filepath.Join(imagesDir, name) }
	s := &Set{
		Pets: []Pet{
			{ID: PetWithPhoto, Name: "Мурзик", AnimalType: "кот", Age: "4", Photo: img("cat.jpg")},
			{ID: PetUpdated, Name: "Барсик", AnimalType: "кот", Age: "5", Photo: img("another_cat.jpg")},
			{ID: PetForeignEdit, Name: "Тест", AnimalType: "собака", Age: "5"},
		},
		InvalidPets: []Pet{
			{ID: PetInvalid, Name: "", AnimalType: "", Age: "five", Photo: img("text_file.txt")},
		},
	}
	s.index()
	return s
}

// Load reads a fixtures file. Valid pets need every field but the photo; invalid pets only
// need an id since their fields are expected to be rejected.
func Load(path string) (*Set, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("fixtures file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read fixtures file: %w", err)
	}

	set, err := parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(set.Pets) == 0 {
		return nil, errors.New("fixtures file contains no pets entries")
	}

	base := filepath.Dir(path)
	seen := make(map[string]struct{}, len(set.Pets)+len(set.InvalidPets))
	check := func(list []Pet, kind string, strict bool) error {
		for i := range list {
			p := sanitize(list[i], base)
			if err := validate(p, strict); err != nil {
				return fmt.Errorf("%s[%d]: %w", kind, i, err)
			}
			if _, dup := seen[p.ID]; dup {
				return fmt.Errorf("duplicate fixture id %q", p.ID)
			}
			seen[p.ID] = struct{}{}
			list[i] = p
		}
		return nil
	}
	if err := check(set.Pets, "pets", true); err != nil {
		return nil, err
	}
	if err := check(set.InvalidPets, "invalid_pets", false); err != nil {
		return nil, err
	}

	set.index()
	return set, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist.
func LoadOrDefault(path, imagesDir string) (*Set, error) {
	set, err := Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return Default(imagesDir), nil
	}
	return set, err
}

// Pet returns the fixture with id from either list.
func (s *Set) Pet(id string) (Pet, bool) {
	if s == nil || s.idx == nil {
		return Pet{}, false
	}
	p, ok := s.idx[strings.TrimSpace(id)]
	return p, ok
}

// WithPhoto returns the first valid pet that has a photo.
func (s *Set) WithPhoto() (Pet, bool) {
	if s == nil {
		return Pet{}, false
	}
	for _, p := range s.Pets {
		if p.Photo != "" {
			return p, true
		}
	}
	return Pet{}, false
}

func (s *Set) index() {
	s.idx = make(map[string]Pet, len(s.Pets)+len(s.InvalidPets))
	for _, p := range s.Pets {
		s.idx[p.ID] = p
	}
	for _, p := range s.InvalidPets {
		s.idx[p.ID] = p
	}
}

func parse(data []byte, ext string) (*Set, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var set Set
		if err := d.fn(data, &set); err == nil {
			return &set, nil
		}
	}

	return nil, errors.New("fixtures file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func sanitize(p Pet, base string) Pet {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.AnimalType = strings.TrimSpace(p.AnimalType)
	p.Age = strings.TrimSpace(p.Age)
	p.Photo = strings.TrimSpace(p.Photo)
	if p.Photo != "" && !filepath.IsAbs(p.Photo) {
		p.Photo = filepath.Join(base, p.Photo)
	}
	return p
}

func validate(p Pet, strict bool) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if !strict {
		return nil
	}
	if p.Name == "" {
		return fmt.Errorf("name is required for pet %q", p.ID)
	}
	if p.AnimalType == "" {
		return fmt.Errorf("animal_type is required for pet %q", p.ID)
	}
	if p.Age == "" {
		return fmt.Errorf("age is required for pet %q", p.ID)
	}
	return nil
}
