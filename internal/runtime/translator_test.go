package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soapbridge/proxy/internal/catalog"
	"github.com/soapbridge/proxy/internal/errs"
)

// fakeStore is a minimal in-memory catalog.Store for exercising the runtime
// translator without a database.
type fakeStore struct {
	services map[string]*catalog.Service
}

func newFakeStore() *fakeStore { return &fakeStore{services: make(map[string]*catalog.Service)} }

func (f *fakeStore) Create(ctx context.Context, s *catalog.Service) error {
	f.services[s.Name] = s
	return nil
}
func (f *fakeStore) Get(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	for _, s := range f.services {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errs.New(errs.ServiceUnknown, "not found")
}
func (f *fakeStore) GetByName(ctx context.Context, name string) (*catalog.Service, error) {
	s, ok := f.services[name]
	if !ok {
		return nil, errs.New(errs.ServiceUnknown, "no service named %q", name)
	}
	return s, nil
}
func (f *fakeStore) List(ctx context.Context) ([]catalog.Summary, error) { return nil, nil }
func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error      { return nil }
func (f *fakeStore) MarkRegistered(ctx context.Context, id uuid.UUID, b catalog.GatewayBinding, tools map[string]string) error {
	return nil
}
func (f *fakeStore) ClearRegistration(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeStore) TryBeginRegistration(ctx context.Context, id uuid.UUID) error {
	return nil
}
func (f *fakeStore) TouchWSDLAccess(ctx context.Context, wsdlURL, serviceName string, at time.Time) error {
	return nil
}

func writeTempWSDL(t *testing.T, address string) string {
	t.Helper()
	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://schemas.xmlsoap.org/wsdl/"
             xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/"
             xmlns:xsd="http://www.w3.org/2001/XMLSchema"
             xmlns:tns="urn:test"
             targetNamespace="urn:test">
  <types>
    <xsd:schema targetNamespace="urn:test">
      <xsd:element name="GetUserRequest">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="id" type="xsd:int"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="GetUserResponse">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="name" type="xsd:string"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
    </xsd:schema>
  </types>
  <message name="GetUserInput"><part name="parameters" element="tns:GetUserRequest"/></message>
  <message name="GetUserOutput"><part name="parameters" element="tns:GetUserResponse"/></message>
  <portType name="UserPortType">
    <operation name="GetUser">
      <input message="tns:GetUserInput"/>
      <output message="tns:GetUserOutput"/>
    </operation>
  </portType>
  <binding name="UserBinding" type="tns:UserPortType">
    <soap:binding transport="http://schemas.xmlsoap.org/soap/http" style="document"/>
    <operation name="GetUser">
      <soap:operation soapAction="urn:test#GetUser"/>
      <input><soap:body use="literal"/></input>
      <output><soap:body use="literal"/></output>
    </operation>
  </binding>
  <service name="UserService">
    <port name="UserPort" binding="tns:UserBinding">
      <soap:address location=%q/>
    </port>
  </service>
</definitions>`, address)

	f, err := os.CreateTemp(t.TempDir(), "service-*.wsdl")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func registerTestService(t *testing.T, store *fakeStore, wsdlPath string) {
	t.Helper()
	store.services["users"] = &catalog.Service{
		ID:      uuid.New(),
		Name:    "users",
		WSDLURL: wsdlPath,
		Operations: []catalog.Operation{
			{Name: "GetUser", SOAPAction: "urn:test#GetUser", PortName: "UserPort"},
		},
	}
}

func TestTranslator_Execute_RoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "<GetUserRequest><id>42</id></GetUserRequest>")
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, `<?xml version="1.0"?>
<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body><GetUserResponse><name>Ada Lovelace</name></GetUserResponse></env:Body>
</env:Envelope>`)
	}))
	defer server.Close()

	wsdlPath := writeTempWSDL(t, server.URL)
	store := newFakeStore()
	registerTestService(t, store, wsdlPath)

	tr := New(store, 5*time.Second, 5*time.Second, "", "")
	result, err := tr.Execute(context.Background(), "users", "GetUser", map[string]interface{}{"id": float64(42)})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "Ada Lovelace"}, result)
}

func TestTranslator_Execute_ScalarAutoWrap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "<id>7</id>")
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, `<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body><GetUserResponse><name>Bob</name></GetUserResponse></env:Body>
</env:Envelope>`)
	}))
	defer server.Close()

	wsdlPath := writeTempWSDL(t, server.URL)
	store := newFakeStore()
	registerTestService(t, store, wsdlPath)

	tr := New(store, 5*time.Second, 5*time.Second, "", "")
	result, err := tr.Execute(context.Background(), "users", "GetUser", float64(7))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "Bob"}, result)
}

func TestTranslator_Execute_SOAPFaultBecomesUpstreamFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, `<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body><env:Fault><faultcode>env:Server</faultcode><faultstring>boom</faultstring></env:Fault></env:Body>
</env:Envelope>`)
	}))
	defer server.Close()

	wsdlPath := writeTempWSDL(t, server.URL)
	store := newFakeStore()
	registerTestService(t, store, wsdlPath)

	tr := New(store, 5*time.Second, 5*time.Second, "", "")
	_, err := tr.Execute(context.Background(), "users", "GetUser", map[string]interface{}{"id": float64(1)})
	require.Error(t, err)
	taxErr, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.UpstreamFault, taxErr.Code)
	assert.Equal(t, "boom", taxErr.Detail)
}

func TestTranslator_Execute_UnknownOperation(t *testing.T) {
	wsdlPath := writeTempWSDL(t, "http://example.invalid")
	store := newFakeStore()
	registerTestService(t, store, wsdlPath)

	tr := New(store, 5*time.Second, 5*time.Second, "", "")
	_, err := tr.Execute(context.Background(), "users", "NoSuchOp", nil)
	require.Error(t, err)
	taxErr, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.OperationUnknown, taxErr.Code)
}

func TestTranslator_Execute_UnknownService(t *testing.T) {
	store := newFakeStore()
	tr := New(store, 5*time.Second, 5*time.Second, "", "")
	_, err := tr.Execute(context.Background(), "missing", "Op", nil)
	require.Error(t, err)
	taxErr, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.ServiceUnknown, taxErr.Code)
}
