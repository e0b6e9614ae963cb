package petfriends_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/petfriends-qa/internal/fakeservice"
	"github.com/samvad-hq/petfriends-qa/pkg/petfriends"
)

const (
	ownerEmail    = "owner@example.com"
	ownerPassword = "secret"
)

var catJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01}

func newFakeClient(t *testing.T) (*petfriends.Client, *fakeservice.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := fakeservice.New(
		fakeservice.WithUser(ownerEmail, ownerPassword),
		fakeservice.WithUser("other@example.com", "other"),
	)
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "images/cat.jpg", catJPEG, 0o644))
	require.NoError(t, afero.WriteFile(fs, "images/text_file.txt", []byte("not an image"), 0o644))

	return petfriends.New(srv.URL, petfriends.WithFs(fs)), svc
}

func authenticate(t *testing.T, c *petfriends.Client) string {
	t.Helper()
	res, err := c.Authenticate(context.Background(), ownerEmail, ownerPassword)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	key, ok := res.Body.Key()
	require.True(t, ok)
	return key
}

func TestFakeAuthenticate(t *testing.T) {
	c, _ := newFakeClient(t)
	ctx := context.Background()

	assert.NotEmpty(t, authenticate(t, c))

	for _, creds := range [][2]string{{"", ""}, {ownerEmail, "wrong"}} {
		res, err := c.Authenticate(ctx, creds[0], creds[1])
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, res.Status)
		assert.False(t, res.Body.Has(petfriends.FieldKey))
	}
}

func TestFakeForgedKeyRejected(t *testing.T) {
	c, _ := newFakeClient(t)

	for _, f := range []petfriends.Filter{petfriends.FilterAll, petfriends.FilterMine} {
		res, err := c.ListPets(context.Background(), "forged-key", f)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, res.Status)
		assert.False(t, res.Body.Has(petfriends.FieldPets))
	}
}

func TestFakeAddPetWithPhoto(t *testing.T) {
	c, _ := newFakeClient(t)
	key := authenticate(t, c)

	res, err := c.AddPet(context.Background(), key, "Мурзик", "кот", "4", "images/cat.jpg")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)

	name, _ := res.Body.String(petfriends.FieldName)
	assert.Equal(t, "Мурзик", name)
	photo, _ := res.Body.String(petfriends.FieldPetPhoto)
	assert.NotEmpty(t, photo)
}

func TestFakeInvalidPhotoRejectedWithHTML(t *testing.T) {
	c, _ := newFakeClient(t)
	key := authenticate(t, c)

	res, err := c.AddPet(context.Background(), key, "Мурзик", "кот", "4", "images/text_file.txt")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, petfriends.BodyText, res.Body.Kind())
	assert.True(t, res.Body.IsHTML())
	assert.Contains(t, res.Body.Summary(), "400 Bad Request")
}

func TestFakeRoundTripAndDelete(t *testing.T) {
	c, _ := newFakeClient(t)
	key := authenticate(t, c)
	ctx := context.Background()

	res, err := c.AddPetWithoutPhoto(ctx, key, "Барсик", "кот", "5")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	created, ok := res.Body.Pet()
	require.True(t, ok)

	list, err := c.ListPets(ctx, key, petfriends.FilterMine)
	require.NoError(t, err)
	mine, ok := list.Body.Pets()
	require.True(t, ok)
	got, ok := petfriends.FindPet(mine, created.ID)
	require.True(t, ok)
	assert.Equal(t, "Барсик", got.Name)
	assert.Equal(t, "кот", got.AnimalType)
	assert.Equal(t, "5", got.Age)
	assert.False(t, got.HasPhoto())

	res, err = c.SetPetPhoto(ctx, key, created.ID, "images/cat.jpg")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	photo, _ := res.Body.String(petfriends.FieldPetPhoto)
	assert.NotEmpty(t, photo)

	res, err = c.DeletePet(ctx, key, created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.Status)
	assert.True(t, res.Body.IsEmpty())

	list, err = c.ListPets(ctx, key, petfriends.FilterMine)
	require.NoError(t, err)
	mine, _ = list.Body.Pets()
	_, ok = petfriends.FindPet(mine, created.ID)
	assert.False(t, ok)
}

func TestFakeListingSubset(t *testing.T) {
	c, svc := newFakeClient(t)
	key := authenticate(t, c)
	svc.Seed(ownerEmail, "Мурзик", "кот", "4")
	svc.Seed("other@example.com", "Шарик", "пёс", "3")
	ctx := context.Background()

	all, err := c.ListPets(ctx, key, petfriends.FilterAll)
	require.NoError(t, err)
	mine, err := c.ListPets(ctx, key, petfriends.FilterMine)
	require.NoError(t, err)

	allPets, _ := all.Body.Pets()
	minePets, _ := mine.Body.Pets()
	assert.GreaterOrEqual(t, len(allPets), len(minePets))
	assert.Len(t, minePets, 1)
}

func TestFakeOwnershipIsolation(t *testing.T) {
	c, svc := newFakeClient(t)
	key := authenticate(t, c)
	foreign := svc.Seed("other@example.com", "Шарик", "пёс", "3")

	res, err := c.UpdatePetInfo(context.Background(), key, foreign, "Hacked", "пёс", "3")
	require.NoError(t, err)
	assert.NotEqual(t, http.StatusOK, res.Status)
	assert.Equal(t, "Шарик", svc.Pets()[0].Name)
}
