package testutil

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(t *testing.T, f *FakeRemote, method, phone, token, body string) int {
	t.Helper()
	req, err := http.NewRequest(method, f.URL()+"/contact/phone:"+phone, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestFakeRemote_Lifecycle(t *testing.T) {
	f := NewFakeRemote(t, "tok")

	assert.Equal(t, http.StatusNotFound, send(t, f, http.MethodGet, "+34600000001", "tok", ""))
	assert.Equal(t, http.StatusCreated, send(t, f, http.MethodPost, "+34600000001", "tok",
		`{"firstName":"Ana","phone":"+34600000001","custom_fields":[{"name":"hora_cita","value":"10:00"}]}`))
	assert.Equal(t, http.StatusOK, send(t, f, http.MethodGet, "+34600000001", "tok", ""))
	assert.Equal(t, http.StatusOK, send(t, f, http.MethodPut, "+34600000001", "tok",
		`{"custom_fields":[{"name":"id_pac","value":77}]}`))

	v, ok := f.CustomField("+34600000001", "hora_cita")
	require.True(t, ok)
	assert.Equal(t, "10:00", v)
	v, ok = f.CustomField("+34600000001", "id_pac")
	require.True(t, ok)
	assert.Equal(t, float64(77), v)
	assert.Equal(t, 4, f.CountRequests(""))
	assert.Equal(t, 1, f.ContactCount())
}

func TestFakeRemote_RejectsBadToken(t *testing.T) {
	f := NewFakeRemote(t, "tok")
	assert.Equal(t, http.StatusUnauthorized, send(t, f, http.MethodGet, "+34600000001", "nope", ""))
}

func TestFakeRemote_InjectedFailure(t *testing.T) {
	f := NewFakeRemote(t, "tok")
	f.FailWith(http.MethodGet, "+34600000001", http.StatusBadGateway)

	assert.Equal(t, http.StatusBadGateway, send(t, f, http.MethodGet, "+34600000001", "tok", ""))
	assert.Equal(t, http.StatusNotFound, send(t, f, http.MethodGet, "+34600000002", "tok", ""))
}

func TestFakeRemote_UpdateUnknownContact(t *testing.T) {
	f := NewFakeRemote(t, "tok")
	assert.Equal(t, http.StatusNotFound, send(t, f, http.MethodPut, "+34600000001", "tok", `{"custom_fields":[]}`))
}
