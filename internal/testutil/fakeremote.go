package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// RecordedRequest is one request received by a FakeRemote.
type RecordedRequest struct {
	Method        string
	Phone         string
	Authorization string
	Body          []byte
}

// FakeRemote is an in-memory stand-in for the contact API, served over HTTP.
//
// It keeps contacts keyed by phone, records every request, and can be told to
// fail specific (method, phone) pairs or to slow every request down so tests
// can observe concurrency.
//
// Thread-safety: All methods are safe for concurrent use.
type FakeRemote struct {
	server *httptest.Server
	token  string

	mu       sync.Mutex
	contacts map[string]map[string]any
	requests []RecordedRequest
	failures map[string]int
	delay    time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// NewFakeRemote starts a FakeRemote that accepts bearer token. The server is
// closed when the test ends.
func NewFakeRemote(t testing.TB, token string) *FakeRemote {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeRemote{
		token:    token,
		contacts: make(map[string]map[string]any),
		failures: make(map[string]int),
	}

	engine := gin.New()
	engine.Use(f.track, f.authenticate)
	engine.GET("/contact/:key", f.handleGet)
	engine.POST("/contact/:key", f.handleCreate)
	engine.PUT("/contact/:key", f.handleUpdate)

	f.server = httptest.NewServer(engine)
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL to hand to the client.
func (f *FakeRemote) URL() string {
	return f.server.URL
}

// Seed stores an existing contact.
func (f *FakeRemote) Seed(phone, firstName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts[phone] = map[string]any{"phone": phone, "firstName": firstName, "custom_fields": map[string]any{}}
}

// FailWith makes every request with method for phone answer status.
func (f *FakeRemote) FailWith(method, phone string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+phone] = status
}

// SetDelay makes every request sleep d before answering.
func (f *FakeRemote) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Requests returns a copy of every request received so far.
func (f *FakeRemote) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// CountRequests returns how many requests used method (all methods when empty).
func (f *FakeRemote) CountRequests(method string) int {
	n := 0
	for _, r := range f.Requests() {
		if method == "" || r.Method == method {
			n++
		}
	}
	return n
}

// Contact returns the stored contact for phone.
func (f *FakeRemote) Contact(phone string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[phone]
	return c, ok
}

// CustomField returns a custom field value stored for phone.
func (f *FakeRemote) CustomField(phone, name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[phone]
	if !ok {
		return nil, false
	}
	fields, _ := c["custom_fields"].(map[string]any)
	v, ok := fields[name]
	return v, ok
}

// ContactCount returns how many contacts are stored.
func (f *FakeRemote) ContactCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.contacts)
}

// MaxInFlight returns the highest number of requests served at once.
func (f *FakeRemote) MaxInFlight() int {
	return int(f.maxInFlight.Load())
}

type contactBody struct {
	FirstName    string `json:"firstName"`
	Phone        string `json:"phone"`
	CustomFields []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	} `json:"custom_fields"`
}

func (f *FakeRemote) track(c *gin.Context) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	body, _ := c.GetRawData()
	phone := phoneFromKey(c.Param("key"))

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:        c.Request.Method,
		Phone:         phone,
		Authorization: c.GetHeader("Authorization"),
		Body:          body,
	})
	delay := f.delay
	status, fail := f.failures[c.Request.Method+" "+phone]
	f.mu.Unlock()

	c.Set("body", body)
	c.Set("phone", phone)

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		c.AbortWithStatusJSON(status, gin.H{"message": "injected failure"})
		return
	}
	c.Next()
}

func (f *FakeRemote) authenticate(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+f.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}
	c.Next()
}

func (f *FakeRemote) handleGet(c *gin.Context) {
	phone := c.GetString("phone")
	f.mu.Lock()
	contact, ok := f.contacts[phone]
	f.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (f *FakeRemote) handleCreate(c *gin.Context) {
	phone := c.GetString("phone")
	body, ok := f.decode(c)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.contacts[phone]; exists {
		c.JSON(http.StatusConflict, gin.H{"message": "contact already exists"})
		return
	}
	contact := map[string]any{"phone": phone, "firstName": body.FirstName, "custom_fields": map[string]any{}}
	mergeFields(contact, body)
	f.contacts[phone] = contact
	c.JSON(http.StatusCreated, contact)
}

func (f *FakeRemote) handleUpdate(c *gin.Context) {
	phone := c.GetString("phone")
	body, ok := f.decode(c)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	contact, exists := f.contacts[phone]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	if body.FirstName != "" {
		contact["firstName"] = body.FirstName
	}
	mergeFields(contact, body)
	c.JSON(http.StatusOK, contact)
}

func (f *FakeRemote) decode(c *gin.Context) (contactBody, bool) {
	var body contactBody
	raw, _ := c.Get("body")
	data, _ := raw.([]byte)
	if err := json.Unmarshal(data, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return body, false
	}
	return body, true
}

func mergeFields(contact map[string]any, body contactBody) {
	fields, _ := contact["custom_fields"].(map[string]any)
	for _, cf := range body.CustomFields {
		fields[cf.Name] = cf.Value
	}
}

// phoneFromKey extracts the phone from a "phone:+34..." path segment.
func phoneFromKey(key string) string {
	return strings.TrimPrefix(key, "phone:")
}
