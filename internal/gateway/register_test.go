package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soapbridge/proxy/internal/catalog"
	"github.com/soapbridge/proxy/internal/errs"
)

type fakeRegistrarStore struct {
	catalog.Store
	beginErr    error
	clearCalled bool
	marked      *catalog.GatewayBinding
}

func (f *fakeRegistrarStore) TryBeginRegistration(ctx context.Context, id uuid.UUID) error {
	return f.beginErr
}
func (f *fakeRegistrarStore) ClearRegistration(ctx context.Context, id uuid.UUID) error {
	f.clearCalled = true
	return nil
}
func (f *fakeRegistrarStore) MarkRegistered(ctx context.Context, id uuid.UUID, b catalog.GatewayBinding, tools map[string]string) error {
	f.marked = &b
	return nil
}

func TestRegistrar_Register_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/tools" {
			json.NewEncoder(w).Encode(map[string]string{"id": "tool-1"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": uuid.New().String()})
	}))
	defer server.Close()

	store := &fakeRegistrarStore{}
	client := New(server.URL, "test-token", 5*time.Second)
	reg := NewRegistrar(store, client, "https://proxy.example")

	svc := &catalog.Service{
		ID:   uuid.New(),
		Name: "users",
		Operations: []catalog.Operation{
			{Name: "GetUser", InputSchema: []byte(`{}`)},
		},
	}

	err := reg.Register(context.Background(), svc)
	require.NoError(t, err)
	require.NotNil(t, store.marked)
	assert.True(t, store.marked.Registered)
}

func TestRegistrar_Register_PartialFailureClearsBinding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tools" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"id": "tool-1"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := &fakeRegistrarStore{}
	client := New(server.URL, "test-token", 5*time.Second)
	reg := NewRegistrar(store, client, "https://proxy.example")

	svc := &catalog.Service{
		ID:   uuid.New(),
		Name: "users",
		Operations: []catalog.Operation{
			{Name: "GetUser", InputSchema: []byte(`{}`)},
		},
	}

	err := reg.Register(context.Background(), svc)
	require.Error(t, err)
	taxErr, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.GatewayRegistrationPartial, taxErr.Code)
	assert.True(t, store.clearCalled)
}

func TestRegistrar_Unregister_AlreadyUnregisteredIsNoOp(t *testing.T) {
	store := &fakeRegistrarStore{}
	client := New("http://gateway.invalid", "token", 5*time.Second)
	reg := NewRegistrar(store, client, "https://proxy.example")

	err := reg.Unregister(context.Background(), &catalog.Service{Name: "users"})
	require.NoError(t, err)
	assert.False(t, store.clearCalled)
}
