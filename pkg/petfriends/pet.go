package petfriends

// Filter selects which pets a listing returns.
type Filter string

const (
	// FilterAll lists every pet on the service.
	FilterAll Filter = ""
	// FilterMine lists only pets owned by the authenticated user.
	FilterMine Filter = "my_pets"
)

// Pet is a pet record as returned by the service. Age is kept as text because the
// service echoes whatever was submitted.
type Pet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AnimalType string `json:"animal_type"`
	Age        string `json:"age"`
	PetPhoto   string `json:"pet_photo"`
	UserID     string `json:"user_id,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// HasPhoto reports whether the service stored a photo reference for the pet.
func (p Pet) HasPhoto() bool {
	return p.PetPhoto != ""
}

func petFromObject(obj map[string]any) Pet {
	return Pet{
		ID:         stringify(obj["id"]),
		Name:       stringify(obj[FieldName]),
		AnimalType: stringify(obj[FieldAnimalType]),
		Age:        stringify(obj[FieldAge]),
		PetPhoto:   stringify(obj[FieldPetPhoto]),
		UserID:     stringify(obj["user_id"]),
		CreatedAt:  stringify(obj["created_at"]),
	}
}

// FindPet returns the pet with id from pets.
func FindPet(pets []Pet, id string) (Pet, bool) {
	for _, p := range pets {
		if p.ID == id {
			return p, true
		}
	}
	return Pet{}, false
}
