package petfriends

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBodyObject(t *testing.T) {
	b := ParseBody([]byte(`{"key":"abc","count":12345678901,"flag":true,"nothing":null}`))

	require.True(t, b.IsJSON())
	key, ok := b.Key()
	assert.True(t, ok)
	assert.Equal(t, "abc", key)

	n, ok := b.String("count")
	assert.True(t, ok)
	assert.Equal(t, "12345678901", n)

	flag, _ := b.String("flag")
	assert.Equal(t, "true", flag)

	assert.True(t, b.Has("nothing"))
	assert.False(t, b.Has("missing"))
}

func TestParseBodyDegradesToText(t *testing.T) {
	cases := map[string]string{
		"empty":    "",
		"html":     "<html><body>oops</body></html>",
		"array":    `[{"id":"1"}]`,
		"trailing": `{"key":"a"} {"key":"b"}`,
		"broken":   `{"key":`,
		"scalar":   `"key"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			b := ParseBody([]byte(raw))
			assert.Equal(t, BodyText, b.Kind())
			assert.Equal(t, raw, b.Text())
			assert.False(t, b.Has("key"))
			_, ok := b.Key()
			assert.False(t, ok)
		})
	}
}

func TestEmptyKeyIsNotAKey(t *testing.T) {
	_, ok := ParseBody([]byte(`{"key":""}`)).Key()
	assert.False(t, ok)
}

func TestBodyPets(t *testing.T) {
	b := ParseBody([]byte(`{"pets":[{"id":"p1","name":"Мурзик","animal_type":"кот","age":4,"pet_photo":""},"junk"]}`))

	pets, ok := b.Pets()
	require.True(t, ok)
	require.Len(t, pets, 1)
	assert.Equal(t, "Мурзик", pets[0].Name)
	assert.Equal(t, "4", pets[0].Age)
	assert.False(t, pets[0].HasPhoto())

	found, ok := FindPet(pets, "p1")
	assert.True(t, ok)
	assert.Equal(t, "кот", found.AnimalType)
	_, ok = FindPet(pets, "p2")
	assert.False(t, ok)

	_, ok = ParseBody([]byte(`{"pets":"none"}`)).Pets()
	assert.False(t, ok)
}

func TestBodyPetRequiresID(t *testing.T) {
	_, ok := ParseBody([]byte(`{"name":"Мурзик"}`)).Pet()
	assert.False(t, ok)

	pet, ok := ParseBody([]byte(`{"id":"p9","name":"Мурзик","pet_photo":"data:image/jpeg;base64,AA=="}`)).Pet()
	require.True(t, ok)
	assert.Equal(t, "p9", pet.ID)
	assert.True(t, pet.HasPhoto())
}

func TestResultStatusClasses(t *testing.T) {
	assert.True(t, Result{Status: 200}.OK())
	assert.False(t, Result{Status: 403}.OK())
	assert.True(t, Result{Status: 403}.ClientError())
	assert.False(t, Result{Status: 500}.ClientError())
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "<empty>", ParseBody(nil).Summary())
	assert.Equal(t, `{"key":"abc"}`, ParseBody([]byte("{\n  \"key\": \"abc\"\n}")).Summary())

	page := ParseBody([]byte(`<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2 Final//EN">
<title>400 Bad Request</title>
<h1>Bad Request</h1>
<p>The browser (or proxy) sent a request that this server could not understand.</p>`))
	assert.True(t, page.IsHTML())
	assert.Equal(t, "400 Bad Request: Bad Request The browser (or proxy) sent a request that this server could not understand.", page.Summary())

	assert.Equal(t, "plain", TextBody("  plain \n").Summary())
}

func TestSummaryTruncatesOnRuneBoundary(t *testing.T) {
	long := TextBody(strings.Repeat("ё", maxSummaryLen))
	s := long.Summary()

	assert.True(t, strings.HasSuffix(s, "..."))
	assert.LessOrEqual(t, len(s), maxSummaryLen+3)
	assert.True(t, strings.HasPrefix(s, "ёё"))
	assert.NotContains(t, s, "�")
}
