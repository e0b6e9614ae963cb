package contract

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/samvad-hq/petfriends-qa/internal/fixtures"
	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
)

// Scenario ids.
const (
	ScenarioAuthValid         = "auth_valid"
	ScenarioAuthEmpty         = "auth_empty"
	ScenarioAuthWrongPassword = "auth_wrong_password"
	ScenarioForgedKey         = "list_forged_key"
	ScenarioListAll           = "list_all"
	ScenarioListSubset        = "list_mine_subset"
	ScenarioAddWithPhoto      = "add_pet_with_photo"
	ScenarioAddInvalid        = "add_pet_invalid"
	ScenarioRoundTrip         = "add_pet_simple_round_trip"
	ScenarioUpdateOwn         = "update_own_pet"
	ScenarioSetPhoto          = "set_photo_own_pet"
	ScenarioDeleteOwn         = "delete_own_pet"
	ScenarioForeignUpdate     = "update_foreign_pet"
)

const wrongPassword = "123pet"

// DefaultScenarios returns the full check suite in execution order.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{ID: ScenarioAuthValid, Description: "valid credentials yield a key", NeedsAccount: true, Run: authValid},
		{ID: ScenarioAuthEmpty, Description: "empty credentials are rejected", Run: authEmpty},
		{ID: ScenarioAuthWrongPassword, Description: "a wrong password is rejected", NeedsAccount: true, Run: authWrongPassword},
		{ID: ScenarioForgedKey, Description: "a forged key cannot list pets", Run: forgedKey},
		{ID: ScenarioListAll, Description: "the full listing is served", NeedsAccount: true, Run: listAll},
		{ID: ScenarioListSubset, Description: "own pets are a subset of all pets", NeedsAccount: true, Run: listSubset},
		{ID: ScenarioAddWithPhoto, Description: "a pet with a photo can be created", NeedsAccount: true, Run: addWithPhoto},
		{ID: ScenarioAddInvalid, Description: "invalid pet data is rejected with a non-JSON page", NeedsAccount: true, Run: addInvalid},
		{ID: ScenarioRoundTrip, Description: "a pet created without photo is listed with its fields", NeedsAccount: true, Run: roundTrip},
		{ID: ScenarioUpdateOwn, Description: "an own pet can be updated", NeedsAccount: true, Run: updateOwn},
		{ID: ScenarioSetPhoto, Description: "a photo can be attached to an own pet", NeedsAccount: true, Run: setPhoto},
		{ID: ScenarioDeleteOwn, Description: "a deleted pet disappears from the listing", NeedsAccount: true, Run: deleteOwn},
		{ID: ScenarioForeignUpdate, Description: "another user's pet cannot be updated", NeedsAccount: true, Run: foreignUpdate},
	}
}

// Select returns the scenarios whose ids are listed, in suite order. No ids selects all.
func Select(all []Scenario, ids ...string) []Scenario {
	if len(ids) == 0 {
		return all
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = struct{}{}
	}
	out := make([]Scenario, 0, len(ids))
	for _, sc := range all {
		if _, ok := want[sc.ID]; ok {
			out = append(out, sc)
		}
	}
	return out
}

func authValid(ctx context.Context, env *Env) error {
	res, err := env.Client.Authenticate(ctx, env.Account.Email, env.Account.Password)
	if err != nil {
		return err
	}
	if res.Status != http.StatusOK {
		return failf(res, "expected status 200")
	}
	if _, ok := res.Body.Key(); !ok {
		return failf(res, "expected a non-empty key")
	}
	return nil
}

func authEmpty(ctx context.Context, env *Env) error {
	return expectRejected(ctx, env, "", "")
}

func authWrongPassword(ctx context.Context, env *Env) error {
	return expectRejected(ctx, env, env.Account.Email, wrongPassword)
}

func expectRejected(ctx context.Context, env *Env, email, password string) error {
	res, err := env.Client.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	if res.Status != http.StatusForbidden {
		return failf(res, "expected status 403")
	}
	if res.Body.Has(petfriends.FieldKey) {
		return failf(res, "rejected credentials must not yield a key")
	}
	return nil
}

// forgedKeyValue builds a key shaped like a random hex number, never issued by the service.
func forgedKeyValue() string {
	return "0x" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func forgedKey(ctx context.Context, env *Env) error {
	key := forgedKeyValue()
	for _, f := range []petfriends.Filter{petfriends.FilterAll, petfriends.FilterMine} {
		res, err := env.Client.ListPets(ctx, key, f)
		if err != nil {
			return err
		}
		if res.Status != http.StatusForbidden {
			return failf(res, "filter %q: expected status 403", f)
		}
		if res.Body.Has(petfriends.FieldPets) {
			return failf(res, "filter %q: forged key must not list pets", f)
		}
	}
	return nil
}

func listPets(ctx context.Context, env *Env, key string, f petfriends.Filter) ([]petfriends.Pet, error) {
	res, err := env.Client.ListPets(ctx, key, f)
	if err != nil {
		return nil, err
	}
	if res.Status != http.StatusOK {
		return nil, failf(res, "list %q: expected status 200", f)
	}
	pets, ok := res.Body.Pets()
	if !ok {
		return nil, failf(res, "list %q: expected a pets list", f)
	}
	return pets, nil
}

func listAll(ctx context.Context, env *Env) error {
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}
	_, err = listPets(ctx, env, key, petfriends.FilterAll)
	return err
}

func listSubset(ctx context.Context, env *Env) error {
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}
	all, err := listPets(ctx, env, key, petfriends.FilterAll)
	if err != nil {
		return err
	}
	mine, err := listPets(ctx, env, key, petfriends.FilterMine)
	if err != nil {
		return err
	}
	if len(all) < len(mine) {
		return &Failure{Message: "own listing is larger than the full listing"}
	}
	return nil
}

func fixture(env *Env, id string) (fixtures.Pet, error) {
	p, ok := env.Fixtures.Pet(id)
	if !ok {
		return fixtures.Pet{}, Skip("fixture %q not configured", id)
	}
	return p, nil
}

func addWithPhoto(ctx context.Context, env *Env) error {
	p, err := fixture(env, fixtures.PetWithPhoto)
	if err != nil {
		return err
	}
	if p.Photo == "" {
		return Skip("fixture %q has no photo", p.ID)
	}
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}

	res, err := env.Client.AddPet(ctx, key, p.Name, p.AnimalType, p.Age, p.Photo)
	if err != nil {
		return err
	}
	if pet, ok := res.Body.Pet(); ok {
		env.Track(env.Account, pet.ID)
	}
	if res.Status != http.StatusOK {
		return failf(res, "expected status 200")
	}
	if name, _ := res.Body.String(petfriends.FieldName); name != p.Name {
		return failf(res, "expected name %q echoed, got %q", p.Name, name)
	}
	if photo, _ := res.Body.String(petfriends.FieldPetPhoto); photo == "" {
		return failf(res, "expected a non-empty pet_photo")
	}
	return nil
}

func addInvalid(ctx context.Context, env *Env) error {
	p, err := fixture(env, fixtures.PetInvalid)
	if err != nil {
		return err
	}
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}

	res, err := env.Client.AddPet(ctx, key, p.Name, p.AnimalType, p.Age, p.Photo)
	if err != nil {
		return err
	}
	if pet, ok := res.Body.Pet(); ok {
		env.Track(env.Account, pet.ID)
	}
	if res.Status != http.StatusBadRequest {
		return failf(res, "expected status 400")
	}
	if res.Body.IsJSON() {
		return failf(res, "expected a non-JSON error body")
	}
	return nil
}

// createOwn adds a photo-less pet from fixture id and tracks it.
func createOwn(ctx context.Context, env *Env, key, id string) (petfriends.Pet, error) {
	p, err := fixture(env, id)
	if err != nil {
		return petfriends.Pet{}, err
	}
	res, err := env.Client.AddPetWithoutPhoto(ctx, key, p.Name, p.AnimalType, p.Age)
	if err != nil {
		return petfriends.Pet{}, err
	}
	pet, ok := res.Body.Pet()
	if ok {
		env.Track(env.Account, pet.ID)
	}
	if res.Status != http.StatusOK || !ok {
		return petfriends.Pet{}, failf(res, "create pet %q: expected status 200 with an id", p.ID)
	}
	return pet, nil
}

func roundTrip(ctx context.Context, env *Env) error {
	p, err := fixture(env, fixtures.PetUpdated)
	if err != nil {
		return err
	}
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}
	created, err := createOwn(ctx, env, key, p.ID)
	if err != nil {
		return err
	}

	mine, err := listPets(ctx, env, key, petfriends.FilterMine)
	if err != nil {
		return err
	}
	got, ok := petfriends.FindPet(mine, created.ID)
	if !ok {
		return &Failure{Message: "created pet " + created.ID + " missing from own listing"}
	}
	if got.Name != p.Name || got.AnimalType != p.AnimalType || got.Age != p.Age {
		return &Failure{Message: "listed pet does not match submitted fields: " +
			got.Name + "/" + got.AnimalType + "/" + got.Age}
	}
	return nil
}

func updateOwn(ctx context.Context, env *Env) error {
	upd, err := fixture(env, fixtures.PetUpdated)
	if err != nil {
		return err
	}
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}
	created, err := createOwn(ctx, env, key, fixtures.PetForeignEdit)
	if err != nil {
		return err
	}

	res, err := env.Client.UpdatePetInfo(ctx, key, created.ID, upd.Name, upd.AnimalType, upd.Age)
	if err != nil {
		return err
	}
	if res.Status != http.StatusOK {
		return failf(res, "expected status 200")
	}
	if name, _ := res.Body.String(petfriends.FieldName); name != upd.Name {
		return failf(res, "expected name %q, got %q", upd.Name, name)
	}
	return nil
}

func setPhoto(ctx context.Context, env *Env) error {
	p, err := fixture(env, fixtures.PetUpdated)
	if err != nil {
		return err
	}
	if p.Photo == "" {
		return Skip("fixture %q has no photo", p.ID)
	}
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}
	created, err := createOwn(ctx, env, key, p.ID)
	if err != nil {
		return err
	}

	res, err := env.Client.SetPetPhoto(ctx, key, created.ID, p.Photo)
	if err != nil {
		return err
	}
	if res.Status != http.StatusOK {
		return failf(res, "expected status 200")
	}
	if photo, _ := res.Body.String(petfriends.FieldPetPhoto); photo == "" {
		return failf(res, "expected a non-empty pet_photo")
	}
	return nil
}

func deleteOwn(ctx context.Context, env *Env) error {
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}
	created, err := createOwn(ctx, env, key, fixtures.PetUpdated)
	if err != nil {
		return err
	}

	res, err := env.Client.DeletePet(ctx, key, created.ID)
	if err != nil {
		return err
	}
	if res.Status != http.StatusOK {
		return failf(res, "expected status 200")
	}
	env.Forget(created.ID)

	// The delete response may have no body; the listing is the source of truth.
	mine, err := listPets(ctx, env, key, petfriends.FilterMine)
	if err != nil {
		return err
	}
	if _, ok := petfriends.FindPet(mine, created.ID); ok {
		return &Failure{Message: "deleted pet " + created.ID + " is still listed"}
	}
	return nil
}

func foreignUpdate(ctx context.Context, env *Env) error {
	upd, err := fixture(env, fixtures.PetForeignEdit)
	if err != nil {
		return err
	}
	key, err := env.Key(ctx, env.Account)
	if err != nil {
		return err
	}
	target, err := foreignPet(ctx, env, key)
	if err != nil {
		return err
	}

	newName := upd.Name
	if target.Name == newName {
		newName += " (изменено)"
	}
	res, err := env.Client.UpdatePetInfo(ctx, key, target.ID, newName, upd.AnimalType, upd.Age)
	if err != nil {
		return err
	}
	if res.Status == http.StatusOK {
		return failf(res, "updating a foreign pet must not succeed")
	}
	if name, ok := res.Body.String(petfriends.FieldName); ok && name == newName {
		return failf(res, "rejected update echoed the new name %q", newName)
	}

	all, err := listPets(ctx, env, key, petfriends.FilterAll)
	if err != nil {
		return err
	}
	if after, ok := petfriends.FindPet(all, target.ID); ok && after.Name == newName {
		return &Failure{Message: "foreign pet " + target.ID + " was renamed despite the rejection", Status: res.Status}
	}
	return nil
}

// foreignPet finds a pet the account does not own: one from the full listing, or one
// created with the foreign account.
func foreignPet(ctx context.Context, env *Env, key string) (petfriends.Pet, error) {
	all, err := listPets(ctx, env, key, petfriends.FilterAll)
	if err != nil {
		return petfriends.Pet{}, err
	}
	mine, err := listPets(ctx, env, key, petfriends.FilterMine)
	if err != nil {
		return petfriends.Pet{}, err
	}
	own := make(map[string]struct{}, len(mine))
	for _, p := range mine {
		own[p.ID] = struct{}{}
	}
	for _, p := range all {
		if _, ok := own[p.ID]; !ok {
			return p, nil
		}
	}

	if !env.Foreign.Valid() {
		return petfriends.Pet{}, Skip("no foreign pet listed and no second account configured")
	}
	p, err := fixture(env, fixtures.PetWithPhoto)
	if err != nil {
		return petfriends.Pet{}, err
	}
	fkey, err := env.Key(ctx, env.Foreign)
	if err != nil {
		return petfriends.Pet{}, err
	}
	res, err := env.Client.AddPetWithoutPhoto(ctx, fkey, p.Name, p.AnimalType, p.Age)
	if err != nil {
		return petfriends.Pet{}, err
	}
	pet, ok := res.Body.Pet()
	if !ok || res.Status != http.StatusOK {
		return petfriends.Pet{}, failf(res, "create foreign pet: expected status 200 with an id")
	}
	env.Track(env.Foreign, pet.ID)
	return pet, nil
}
