package httpclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldtrack/location-tracker/internal/httpclient"
)

func TestHTTPClient(t *testing.T) {
	t.Parallel()
	RegisterFailHandler(Fail)
	RunSpecs(t, "HTTPClient Suite")
}

// newTestServer creates a test server with keep-alives disabled so closing it
// does not disturb connections shared through the default transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

var _ = Describe("DefaultClient", func() {
	var (
		client     httpclient.Client
		mockServer *httptest.Server
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = httpclient.NewDefaultClient(5 * time.Second)
	})

	AfterEach(func() {
		if mockServer != nil {
			mockServer.Close()
			mockServer = nil
		}
	})

	Describe("NewDefaultClient", func() {
		It("should use default timeout when zero is provided", func() {
			Expect(httpclient.NewDefaultClient(0)).NotTo(BeNil())
		})
	})

	Describe("Get", func() {
		It("should send the standard headers and return the body", func() {
			mockServer = newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodGet))
				Expect(r.Header.Get("User-Agent")).To(Equal(httpclient.UserAgent))
				Expect(r.Header.Get("Accept")).To(Equal("application/json"))
				Expect(r.Header.Get("api-key")).To(Equal("secret"))
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"status":"success"}`))
			}))

			data, err := client.Get(ctx, mockServer.URL, httpclient.WithHeader("api-key", "secret"))
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte(`{"status":"success"}`)))
		})

		It("should return an HTTPError for non-2xx responses", func() {
			mockServer = newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte("Not Found"))
			}))

			data, err := client.Get(ctx, mockServer.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("HTTP 404"))
			Expect(httpclient.StatusCode(err)).To(Equal(http.StatusNotFound))
			Expect(data).To(Equal([]byte("Not Found")))
		})

		It("should fail on an invalid URL", func() {
			_, err := client.Get(ctx, "://invalid-url")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to create request"))
		})

		It("should fail on an unreachable host", func() {
			_, err := client.Get(ctx, "http://invalid-host-does-not-exist.local:9999")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to execute request"))
		})

		It("should respect context timeout", func() {
			mockServer = newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(500 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			}))

			timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()

			_, err := client.Get(timeoutCtx, mockServer.URL)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a body larger than the size limit", func() {
			mockServer = newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(make([]byte, httpclient.MaxResponseSize+10))
			}))

			_, err := client.Get(ctx, mockServer.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("exceeds maximum allowed size"))
		})

		It("should reject an oversized Content-Length up front", func() {
			mockServer = newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", fmt.Sprintf("%d", httpclient.MaxResponseSize*2))
				w.WriteHeader(http.StatusOK)
			}))

			_, err := client.Get(ctx, mockServer.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("exceeds maximum allowed size"))
		})
	})

	Describe("PostJSON", func() {
		It("should encode the body and set JSON headers", func() {
			mockServer = newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer token-123"))

				raw, err := io.ReadAll(r.Body)
				Expect(err).NotTo(HaveOccurred())
				var got []string
				Expect(json.Unmarshal(raw, &got)).To(Succeed())
				Expect(got).To(Equal([]string{"SET", "k", "v"}))

				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"result":"OK"}`))
			}))

			data, err := client.PostJSON(ctx, mockServer.URL, []string{"SET", "k", "v"},
				httpclient.WithBearerToken("token-123"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`{"result":"OK"}`))
		})

		It("should fail when the body cannot be encoded", func() {
			_, err := client.PostJSON(ctx, "http://localhost", make(chan int))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to encode request body"))
		})

		It("should surface server errors", func() {
			mockServer = newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))

			_, err := client.PostJSON(ctx, mockServer.URL, map[string]int{"a": 1})
			Expect(err).To(HaveOccurred())
			Expect(httpclient.StatusCode(err)).To(Equal(http.StatusBadGateway))
		})
	})
})
