// Package petfriends is a stateless client for the PetFriends pet-catalog REST API.
//
// Every operation performs exactly one HTTP round trip and returns a Result holding the
// status code and the parsed body. Non-2xx statuses are ordinary results, not errors; the
// returned error is reserved for transport faults (DNS, refused connection, timeout) and for
// photo files that cannot be read. The auth key is passed to each call explicitly, so a single
// Client can be shared between valid, forged and missing keys.
//
//	client := petfriends.New("https://petfriends.skillfactory.ru")
//	res, err := client.Authenticate(ctx, email, password)
//	if err != nil {
//	    return err // no endpoint was reached
//	}
//	key, ok := res.Body.Key()
package petfriends

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/samvad-hq/petfriends-qa/pkg/httpclient"
)

// Service contract constants.
const (
	DefaultBaseURL = "https://petfriends.skillfactory.ru"

	AuthHeader = "auth_key"

	FieldKey        = "key"
	FieldPets       = "pets"
	FieldPetPhoto   = "pet_photo"
	FieldName       = "name"
	FieldAnimalType = "animal_type"
	FieldAge        = "age"

	pathKey         = "/api/key"
	pathPets        = "/api/pets"
	pathPet         = "/api/pets/{petID}"
	pathSetPhoto    = "/api/pets/set_photo/{petID}"
	pathCreateBasic = "/api/create_pet_simple"
)

// Client talks to a PetFriends deployment. It holds no credentials and no per-call state.
type Client struct {
	baseURL string
	rc      *resty.Client
	fs      afero.Fs
	log     Logger
}

// New creates a client for baseURL. An empty baseURL falls back to DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	o := options{
		timeout: defaultTimeout,
		fs:      afero.NewOsFs(),
		log:     noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rc := o.resty
	if rc == nil {
		transport := o.transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		rc = httpclient.New(httpclient.Options{
			BaseURL:   baseURL,
			Timeout:   o.timeout,
			Transport: otelhttp.NewTransport(transport),
			Logger:    o.restyLogger,
			UserAgent: o.userAgent,
		})
	}

	return &Client{
		baseURL: baseURL,
		rc:      rc,
		fs:      o.fs,
		log:     o.log,
	}
}

// BaseURL returns the service address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate exchanges credentials for an auth key. Credentials travel as query
// parameters; rejected credentials yield a 403 result without a key field.
func (c *Client) Authenticate(ctx context.Context, email, password string) (Result, error) {
	return c.execute(ctx, "authenticate", http.MethodGet, pathKey, func(r *resty.Request) {
		r.SetQueryParam("email", email)
		r.SetQueryParam("password", password)
	})
}

// ListPets lists pets visible to key. An empty filter lists every pet; FilterMine
// restricts the listing to the key owner's pets. Other values are passed through untouched.
func (c *Client) ListPets(ctx context.Context, key string, filter Filter) (Result, error) {
	return c.execute(ctx, "list_pets", http.MethodGet, pathPets, func(r *resty.Request) {
		r.SetHeader(AuthHeader, key)
		if filter != FilterAll {
			r.SetQueryParam("filter", string(filter))
		}
	})
}

// AddPet creates a pet with a photo using a multipart request.
func (c *Client) AddPet(ctx context.Context, key, name, animalType, age, photoPath string) (Result, error) {
	photo, err := c.openPhoto(photoPath)
	if err != nil {
		return Result{}, &TransportError{Op: "add_pet", Err: err}
	}
	defer photo.Close()

	return c.execute(ctx, "add_pet", http.MethodPost, pathPets, func(r *resty.Request) {
		r.SetHeader(AuthHeader, key)
		r.SetMultipartFormData(map[string]string{
			FieldName:       name,
			FieldAnimalType: animalType,
			FieldAge:        age,
		})
		r.SetMultipartField(FieldPetPhoto, photo.FileName, photo.ContentType, photo)
	})
}

// AddPetWithoutPhoto creates a pet from url-encoded fields only; its photo stays empty.
func (c *Client) AddPetWithoutPhoto(ctx context.Context, key, name, animalType, age string) (Result, error) {
	return c.execute(ctx, "add_pet_without_photo", http.MethodPost, pathCreateBasic, func(r *resty.Request) {
		r.SetHeader(AuthHeader, key)
		r.SetFormData(petFields(name, animalType, age))
	})
}

// SetPetPhoto attaches a photo to an existing pet.
func (c *Client) SetPetPhoto(ctx context.Context, key, petID, photoPath string) (Result, error) {
	photo, err := c.openPhoto(photoPath)
	if err != nil {
		return Result{}, &TransportError{Op: "set_pet_photo", Err: err}
	}
	defer photo.Close()

	return c.execute(ctx, "set_pet_photo", http.MethodPost, pathSetPhoto, func(r *resty.Request) {
		r.SetHeader(AuthHeader, key)
		r.SetPathParam("petID", petID)
		r.SetMultipartField(FieldPetPhoto, photo.FileName, photo.ContentType, photo)
	})
}

// UpdatePetInfo replaces name, type and age of petID.
func (c *Client) UpdatePetInfo(ctx context.Context, key, petID, name, animalType, age string) (Result, error) {
	return c.execute(ctx, "update_pet_info", http.MethodPut, pathPet, func(r *resty.Request) {
		r.SetHeader(AuthHeader, key)
		r.SetPathParam("petID", petID)
		r.SetFormData(petFields(name, animalType, age))
	})
}

// DeletePet removes petID. The service may answer 200 with an empty body, so callers
// confirm deletion by listing FilterMine afterwards.
func (c *Client) DeletePet(ctx context.Context, key, petID string) (Result, error) {
	return c.execute(ctx, "delete_pet", http.MethodDelete, pathPet, func(r *resty.Request) {
		r.SetHeader(AuthHeader, key)
		r.SetPathParam("petID", petID)
	})
}

func petFields(name, animalType, age string) map[string]string {
	return map[string]string{
		FieldName:       name,
		FieldAnimalType: animalType,
		FieldAge:        age,
	}
}

// execute performs a single round trip and converts the response into a Result.
func (c *Client) execute(ctx context.Context, op, method, path string, prepare func(*resty.Request)) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.rc.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		c.log.WarnObj("petfriends request failed", "petfriends_transport_error", map[string]any{
			"op":     op,
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return Result{}, &TransportError{Op: op, Err: err}
	}

	res := Result{
		Status: resp.StatusCode(),
		Body:   ParseBody(resp.Body()),
	}
	c.log.DebugObj("petfriends request completed", "petfriends_call", map[string]any{
		"op":         op,
		"method":     method,
		"url":        resp.Request.URL,
		"status":     res.Status,
		"body_kind":  res.Body.Kind().String(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return res, nil
}
