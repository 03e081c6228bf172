package invoice

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

// uploadRequest builds a multipart upload request for the given file contents
func uploadRequest(url string, filename string, contents []byte) (*http.Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(contents); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		extractor   *mockExtractor
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		extractor = newMockExtractor()
		service = NewService(db, extractor, storage)
		auth = BasicAuth{}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleIndex", func() {
		When("request method is GET", func() {
			It("should return status OK", func() {
				resp, err := http.Get(ghttpServer.URL() + "/")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return HTML containing Invoice Extractor", func() {
				resp, err := http.Get(ghttpServer.URL() + "/")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("Invoice Extractor"))
			})
		})
	})

	Describe("handleUploadInvoice", func() {
		When("a document with item rows is uploaded", func() {
			var resp *http.Response

			JustBeforeEach(func() {
				req, err := uploadRequest(ghttpServer.URL()+"/api/invoices", "invoice.pdf", []byte("fake pdf data"))
				Expect(err).NotTo(HaveOccurred())
				resp, err = http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
			})

			AfterEach(func() {
				resp.Body.Close()
			})

			It("should return status Created", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			})

			It("should return the invoice with its items", func() {
				var invoice Invoice
				Expect(json.NewDecoder(resp.Body).Decode(&invoice)).To(Succeed())
				Expect(invoice.Items).To(HaveLen(1))
				Expect(invoice.Items[0].PartID).To(Equal("PN-100"))
			})
		})

		When("the document yields no item rows", func() {
			var resp *http.Response

			BeforeEach(func() {
				extractor.lines = []string{"just header text"}
			})

			JustBeforeEach(func() {
				req, err := uploadRequest(ghttpServer.URL()+"/api/invoices", "invoice.pdf", []byte("fake pdf data"))
				Expect(err).NotTo(HaveOccurred())
				resp, err = http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
			})

			AfterEach(func() {
				resp.Body.Close()
			})

			It("should still return status Created with an empty item table", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				var invoice Invoice
				Expect(json.NewDecoder(resp.Body).Decode(&invoice)).To(Succeed())
				Expect(invoice.Items).To(BeEmpty())
			})
		})

		When("extraction fails", func() {
			var resp *http.Response

			BeforeEach(func() {
				extractor.extractErr = errors.New("corrupt document")
			})

			JustBeforeEach(func() {
				req, err := uploadRequest(ghttpServer.URL()+"/api/invoices", "invoice.pdf", []byte("garbage"))
				Expect(err).NotTo(HaveOccurred())
				resp, err = http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
			})

			AfterEach(func() {
				resp.Body.Close()
			})

			It("should return status BadRequest with a JSON error", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body["error"]).To(ContainSubstring("corrupt document"))
			})
		})

		When("no file is provided", func() {
			It("should return status BadRequest", func() {
				var body bytes.Buffer
				writer := multipart.NewWriter(&body)
				writer.Close()

				req, err := http.NewRequest(http.MethodPost, ghttpServer.URL()+"/api/invoices", &body)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Content-Type", writer.FormDataContentType())

				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleListInvoices", func() {
		When("invoices exist", func() {
			BeforeEach(func() {
				db.invoices["a"] = &Invoice{ID: "a", Title: "Invoice A", Items: []Item{}}
			})

			It("should return them as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var invoices []*Invoice
				Expect(json.NewDecoder(resp.Body).Decode(&invoices)).To(Succeed())
				Expect(invoices).To(HaveLen(1))
				Expect(invoices[0].ID).To(Equal("a"))
			})
		})
	})

	Describe("handleGetInvoice", func() {
		When("the invoice exists", func() {
			BeforeEach(func() {
				db.invoices["a"] = &Invoice{
					ID:    "a",
					Title: "Invoice A",
					Items: []Item{{LineNumber: 1, PartID: "PN-1"}},
				}
			})

			It("should return the invoice", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/a")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var invoice Invoice
				Expect(json.NewDecoder(resp.Body).Decode(&invoice)).To(Succeed())
				Expect(invoice.Items).To(HaveLen(1))
			})
		})

		When("the invoice does not exist", func() {
			It("should return status NotFound", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/missing")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleGetInvoiceFile", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				db.invoices["a"] = &Invoice{
					ID:          "a",
					Filename:    "a_invoice.pdf",
					ContentType: "application/pdf",
				}
				storage.files["a_invoice.pdf"] = []byte("fake pdf data")
			})

			It("should return the stored bytes with the stored content type", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/a/file")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))

				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(body).To(Equal([]byte("fake pdf data")))
			})
		})
	})

	Describe("handleExportInvoice", func() {
		When("the invoice exists", func() {
			BeforeEach(func() {
				db.invoices["a"] = &Invoice{
					ID:    "a",
					Title: "Invoice A",
					Items: []Item{
						{
							LineNumber:       1,
							QuantityOrdered:  2,
							PartID:           "PN-100",
							NetUnitPrice:     10.00,
							NetExtendedPrice: 20.00,
						},
					},
				}
			})

			It("should return an XLSX attachment", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/a/export")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
				Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("Invoice A.xlsx"))

				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(body).NotTo(BeEmpty())
			})
		})

		When("the invoice does not exist", func() {
			It("should return status NotFound", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/missing/export")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleDeleteInvoice", func() {
		When("the invoice exists", func() {
			BeforeEach(func() {
				db.invoices["a"] = &Invoice{ID: "a", Filename: "a_invoice.pdf"}
				storage.files["a_invoice.pdf"] = []byte("fake pdf data")
			})

			It("should return status NoContent", func() {
				req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/api/invoices/a", nil)
				Expect(err).NotTo(HaveOccurred())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			})
		})

		When("the invoice does not exist", func() {
			It("should return status InternalServerError", func() {
				req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/api/invoices/missing", nil)
				Expect(err).NotTo(HaveOccurred())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "pass"}
			server = NewServerWithMux(service, auth, http.NewServeMux())
			setupServer()
		})

		When("credentials are missing", func() {
			It("should return status Unauthorized", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		When("credentials are wrong", func() {
			It("should return status Unauthorized", func() {
				req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/invoices", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:wrong")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		When("credentials are correct", func() {
			It("should return status OK", func() {
				req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/invoices", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:pass")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})
})
