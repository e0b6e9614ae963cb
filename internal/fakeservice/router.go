package fakeservice

import (
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	serviceName   = "petfriends-fake"
	authHeader    = "auth_key"
	filterMine    = "my_pets"
	maxPhotoBytes = 8 << 20
)

// Handler returns the HTTP handler serving the PetFriends API.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(serviceName))

	api := r.Group("/api")
	api.GET("/key", s.handleKey)
	api.GET("/pets", s.requireKey, s.handleList)
	api.POST("/pets", s.requireKey, s.handleCreate)
	api.POST("/create_pet_simple", s.requireKey, s.handleCreateSimple)
	api.POST("/pets/set_photo/:id", s.requireKey, s.handleSetPhoto)
	api.PUT("/pets/:id", s.requireKey, s.handleUpdate)
	api.DELETE("/pets/:id", s.requireKey, s.handleDelete)
	return r
}

func (s *Service) handleKey(c *gin.Context) {
	email := firstNonEmpty(c.Query("email"), c.GetHeader("email"))
	password := firstNonEmpty(c.Query("password"), c.GetHeader("password"))

	key, ok := s.Issue(email, password)
	if !ok {
		forbidden(c, "This user wasn't found in database")
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

// requireKey resolves the auth_key header to its owner or answers 403.
func (s *Service) requireKey(c *gin.Context) {
	owner, ok := s.Owner(c.GetHeader(authHeader))
	if !ok {
		forbidden(c, "Please provide 'auth_key' Header")
		c.Abort()
		return
	}
	c.Set("owner", owner)
	c.Next()
}

func (s *Service) handleList(c *gin.Context) {
	filter := c.Query("filter")
	if filter != "" && filter != filterMine {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Filter value is incorrect: %q", filter)})
		return
	}

	pets := s.list(c.GetString("owner"), filter == filterMine)
	out := make([]map[string]any, 0, len(pets))
	for _, p := range pets {
		out = append(out, p.wire())
	}
	c.JSON(http.StatusOK, gin.H{"pets": out})
}

func (s *Service) handleCreate(c *gin.Context) {
	pet, ok := petFromForm(c)
	if !ok {
		return
	}
	data, ct, ok := photoFromForm(c)
	if !ok {
		return
	}
	pet.Photo, pet.PhotoType = data, ct
	pet.Owner = c.GetString("owner")

	c.JSON(http.StatusOK, s.create(pet).wire())
}

func (s *Service) handleCreateSimple(c *gin.Context) {
	pet, ok := petFromForm(c)
	if !ok {
		return
	}
	pet.Owner = c.GetString("owner")

	c.JSON(http.StatusOK, s.create(pet).wire())
}

func (s *Service) handleSetPhoto(c *gin.Context) {
	data, ct, ok := photoFromForm(c)
	if !ok {
		return
	}
	pet, err := s.mutate(c.GetString("owner"), c.Param("id"), func(p *Pet) {
		p.Photo, p.PhotoType = data, ct
	})
	if err != nil {
		mutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, pet.wire())
}

func (s *Service) handleUpdate(c *gin.Context) {
	upd, ok := petFromForm(c)
	if !ok {
		return
	}
	pet, err := s.mutate(c.GetString("owner"), c.Param("id"), func(p *Pet) {
		p.Name, p.AnimalType, p.Age = upd.Name, upd.AnimalType, upd.Age
	})
	if err != nil {
		mutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, pet.wire())
}

func (s *Service) handleDelete(c *gin.Context) {
	err := s.remove(c.GetString("owner"), c.Param("id"))
	if errors.Is(err, errForeignPet) {
		mutationError(c, err)
		return
	}
	// The real service answers 200 with no body, including for unknown ids.
	c.Status(http.StatusOK)
}

func petFromForm(c *gin.Context) (Pet, bool) {
	pet := Pet{
		Name:       strings.TrimSpace(c.PostForm("name")),
		AnimalType: strings.TrimSpace(c.PostForm("animal_type")),
		Age:        strings.TrimSpace(c.PostForm("age")),
	}
	switch {
	case pet.Name == "":
		badRequest(c, "Name of pet is required")
		return Pet{}, false
	case pet.AnimalType == "":
		badRequest(c, "Animal type is required")
		return Pet{}, false
	}
	if age, err := strconv.Atoi(pet.Age); err != nil || age < 0 {
		badRequest(c, "Age must be a non-negative number")
		return Pet{}, false
	}
	return pet, true
}

func photoFromForm(c *gin.Context) ([]byte, string, bool) {
	fh, err := c.FormFile("pet_photo")
	if err != nil {
		badRequest(c, "Photo of pet is required")
		return nil, "", false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Photo could not be read")
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes))
	if err != nil {
		badRequest(c, "Photo could not be read")
		return nil, "", false
	}
	ct := http.DetectContentType(data)
	if ct != "image/jpeg" && ct != "image/png" {
		badRequest(c, "Photo must be a JPEG or PNG image")
		return nil, "", false
	}
	return data, ct, true
}

func mutationError(c *gin.Context, err error) {
	if errors.Is(err, errForeignPet) {
		forbidden(c, "This pet belongs to another user")
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
}

func forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(fmt.Sprintf(badRequestPage, html.EscapeString(msg))))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
