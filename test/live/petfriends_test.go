package live

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/samvad-hq/petfriends-qa/internal/fixtures"
	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
)

func authKey() string {
	GinkgoHelper()
	res, err := client.Authenticate(ctx, cfg.ValidEmail, cfg.ValidPassword)
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Status).To(Equal(http.StatusOK))
	key, ok := res.Body.Key()
	Expect(ok).To(BeTrue())
	return key
}

func listed(key string, f petfriends.Filter) []petfriends.Pet {
	GinkgoHelper()
	res, err := client.ListPets(ctx, key, f)
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Status).To(Equal(http.StatusOK))
	list, ok := res.Body.Pets()
	Expect(ok).To(BeTrue())
	return list
}

func fixture(id string) fixtures.Pet {
	GinkgoHelper()
	p, ok := pets.Pet(id)
	Expect(ok).To(BeTrue(), "fixture %s", id)
	return p
}

// ownPet creates a photo-less pet and schedules its deletion.
func ownPet(key, id string) petfriends.Pet {
	GinkgoHelper()
	p := fixture(id)
	res, err := client.AddPetWithoutPhoto(ctx, key, p.Name, p.AnimalType, p.Age)
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Status).To(Equal(http.StatusOK))
	pet, ok := res.Body.Pet()
	Expect(ok).To(BeTrue())
	DeferCleanup(func() {
		_, _ = client.DeletePet(ctx, key, pet.ID)
	})
	return pet
}

var _ = Describe("Authentication", func() {
	It("issues a key for valid credentials", func() {
		res, err := client.Authenticate(ctx, cfg.ValidEmail, cfg.ValidPassword)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(http.StatusOK))
		Expect(res.Body.Has(petfriends.FieldKey)).To(BeTrue())
	})

	DescribeTable("rejects bad credentials",
		func(email, password func() string) {
			res, err := client.Authenticate(ctx, email(), password())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(http.StatusForbidden))
			Expect(res.Body.Has(petfriends.FieldKey)).To(BeFalse())
		},
		Entry("empty email and password", func() string { return "" }, func() string { return "" }),
		Entry("wrong password", func() string { return cfg.ValidEmail }, func() string { return "123pet" }),
	)
})

var _ = Describe("Listing pets", func() {
	It("lists all pets with a valid key", func() {
		Expect(listed(authKey(), petfriends.FilterAll)).NotTo(BeNil())
	})

	It("lists own pets as a subset of all pets", func() {
		key := authKey()
		ownPet(key, fixtures.PetWithPhoto)
		all := listed(key, petfriends.FilterAll)
		mine := listed(key, petfriends.FilterMine)
		Expect(mine).NotTo(BeEmpty())
		Expect(len(all)).To(BeNumerically(">=", len(mine)))
	})

	DescribeTable("refuses a forged key",
		func(f petfriends.Filter) {
			forged := "0x" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
			res, err := client.ListPets(ctx, forged, f)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(http.StatusForbidden))
			Expect(res.Body.Has(petfriends.FieldPets)).To(BeFalse())
		},
		Entry("all pets", petfriends.FilterAll),
		Entry("my pets", petfriends.FilterMine),
	)
})

var _ = Describe("Creating pets", func() {
	It("creates a pet with a photo", func() {
		key := authKey()
		p := fixture(fixtures.PetWithPhoto)
		res, err := client.AddPet(ctx, key, p.Name, p.AnimalType, p.Age, p.Photo)
		Expect(err).NotTo(HaveOccurred())
		if pet, ok := res.Body.Pet(); ok {
			DeferCleanup(func() { _, _ = client.DeletePet(ctx, key, pet.ID) })
		}
		Expect(res.Status).To(Equal(http.StatusOK))
		name, _ := res.Body.String(petfriends.FieldName)
		Expect(name).To(Equal(p.Name))
		photo, _ := res.Body.String(petfriends.FieldPetPhoto)
		Expect(photo).NotTo(BeEmpty())
	})

	It("rejects incorrect data with a non-JSON body", func() {
		key := authKey()
		p := fixture(fixtures.PetInvalid)
		res, err := client.AddPet(ctx, key, p.Name, p.AnimalType, p.Age, p.Photo)
		Expect(err).NotTo(HaveOccurred())
		if pet, ok := res.Body.Pet(); ok {
			DeferCleanup(func() { _, _ = client.DeletePet(ctx, key, pet.ID) })
		}
		Expect(res.Status).To(Equal(http.StatusBadRequest))
		Expect(res.Body.IsJSON()).To(BeFalse())
	})

	It("creates a pet without a photo and lists it", func() {
		key := authKey()
		p := fixture(fixtures.PetUpdated)
		pet := ownPet(key, fixtures.PetUpdated)

		got, ok := petfriends.FindPet(listed(key, petfriends.FilterMine), pet.ID)
		Expect(ok).To(BeTrue())
		Expect(got.Name).To(Equal(p.Name))
		Expect(got.AnimalType).To(Equal(p.AnimalType))
		Expect(got.Age).To(Equal(p.Age))
	})
})

var _ = Describe("Changing pets", func() {
	It("updates an own pet", func() {
		key := authKey()
		pet := ownPet(key, fixtures.PetForeignEdit)
		upd := fixture(fixtures.PetUpdated)

		res, err := client.UpdatePetInfo(ctx, key, pet.ID, upd.Name, upd.AnimalType, upd.Age)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(http.StatusOK))
		name, _ := res.Body.String(petfriends.FieldName)
		Expect(name).To(Equal(upd.Name))
	})

	It("sets a photo on an own pet", func() {
		key := authKey()
		pet := ownPet(key, fixtures.PetUpdated)
		p := fixture(fixtures.PetUpdated)

		res, err := client.SetPetPhoto(ctx, key, pet.ID, p.Photo)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(http.StatusOK))
		photo, _ := res.Body.String(petfriends.FieldPetPhoto)
		Expect(photo).NotTo(BeEmpty())
	})

	It("cannot update a pet owned by someone else", func() {
		key := authKey()
		own := map[string]bool{}
		for _, p := range listed(key, petfriends.FilterMine) {
			own[p.ID] = true
		}
		var target *petfriends.Pet
		for _, p := range listed(key, petfriends.FilterAll) {
			if !own[p.ID] {
				target = &p
				break
			}
		}
		if target == nil {
			Skip("no foreign pet is listed")
		}

		upd := fixture(fixtures.PetForeignEdit)
		newName := upd.Name
		if target.Name == newName {
			newName += " (изменено)"
		}
		res, err := client.UpdatePetInfo(ctx, key, target.ID, newName, upd.AnimalType, upd.Age)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).NotTo(Equal(http.StatusOK))
		if name, ok := res.Body.String(petfriends.FieldName); ok {
			Expect(name).NotTo(Equal(newName))
		}

		if after, ok := petfriends.FindPet(listed(key, petfriends.FilterAll), target.ID); ok {
			Expect(after.Name).NotTo(Equal(newName))
		}
	})

	It("deletes an own pet", func() {
		key := authKey()
		pet := ownPet(key, fixtures.PetUpdated)

		res, err := client.DeletePet(ctx, key, pet.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(http.StatusOK))

		_, stillListed := petfriends.FindPet(listed(key, petfriends.FilterMine), pet.ID)
		Expect(stillListed).To(BeFalse())
	})
})
