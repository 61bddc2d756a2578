package dossier_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	dossierDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/dossier"
	profileDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/profile"
	userDatamodel "github.com/frahmantamala/travel-agency/internal/core/datamodel/user"
	"github.com/frahmantamala/travel-agency/internal/dossier"
	dossierPostgres "github.com/frahmantamala/travel-agency/internal/dossier/postgres"
	"github.com/frahmantamala/travel-agency/internal/testutil"
	"github.com/frahmantamala/travel-agency/internal/transport"
)

var _ = Describe("Dossier Handler Integration", func() {
	var (
		db       *gorm.DB
		router   *chi.Mux
		clientID int64
		moduleID int64
		nadia    int64
		sari     int64
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		sqlxDB, err := testutil.SQLX(db)
		Expect(err).NotTo(HaveOccurred())

		client := &dossierDatamodel.BillingClient{Name: "Garuda Corporate"}
		Expect(db.Create(client).Error).To(Succeed())
		clientID = client.ID
		module := &profileDatamodel.Module{Code: "HOTEL", Name: "Hotel"}
		Expect(db.Create(module).Error).To(Succeed())
		moduleID = module.ID
		newUser := func(email string) int64 {
			u := &userDatamodel.User{Email: email, Name: email, PasswordHash: "x", IsActive: true}
			Expect(db.Create(u).Error).To(Succeed())
			return u.ID
		}
		nadia = newUser("nadia@mail.com")
		sari = newUser("sari@mail.com")

		service := dossier.NewService(
			dossierPostgres.NewDossierRepository(db),
			dossierPostgres.NewHistoryRepository(sqlxDB),
			nil,
			testLogger(),
		)
		handler := dossier.NewHandler(&transport.BaseHandler{Logger: testLogger()}, service)

		router = chi.NewRouter()
		router.Post("/dossiers", handler.CreateDossier)
		router.Get("/dossiers", handler.ListDossiers)
		router.Get("/dossiers/{id}", handler.GetDossier)
		router.Post("/dossiers/{id}/assignments", handler.CreateAssignment)
		router.Patch("/dossiers/{id}/assignments/{moduleId}", handler.ReplaceAssignment)
		router.Get("/suggestions", handler.Suggest)
	})

	AfterEach(func() {
		Expect(testutil.Close(db)).To(Succeed())
	})

	createDossier := func(reference string) dossier.Dossier {
		w := do(http.MethodPost, "/dossiers", `{"reference":"`+reference+`","billing_client_id":`+itoa(clientID)+`}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var d dossier.Dossier
		Expect(json.NewDecoder(w.Body).Decode(&d)).To(Succeed())
		return d
	}

	It("should create, assign, replace and suggest through the API", func() {
		// Given
		d := createDossier("DOS-2026-0001")
		base := "/dossiers/" + itoa(d.ID)

		// When
		w := do(http.MethodPost, base+"/assignments", `{"module_id":`+itoa(moduleID)+`,"user_id":`+itoa(nadia)+`}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodPatch, base+"/assignments/"+itoa(moduleID), `{"user_id":`+itoa(sari)+`}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		// Then
		w = do(http.MethodGet, base, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var loaded dossier.Dossier
		Expect(json.NewDecoder(w.Body).Decode(&loaded)).To(Succeed())
		Expect(loaded.Assignments).To(HaveLen(2))
		active, ok := loaded.ActiveAssignment(moduleID)
		Expect(ok).To(BeTrue())
		Expect(active.UserID).To(Equal(sari))

		w = do(http.MethodGet, "/suggestions?module_id="+itoa(moduleID)+"&billing_client_id="+itoa(clientID), "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var suggestion dossier.SuggestionResponse
		Expect(json.NewDecoder(w.Body).Decode(&suggestion)).To(Succeed())
		Expect(suggestion.SuggestedUserID).NotTo(BeNil())
		Expect(*suggestion.SuggestedUserID).To(Equal(sari))
	})

	It("should omit the suggestion when there is no history", func() {
		w := do(http.MethodGet, "/suggestions?module_id="+itoa(moduleID)+"&billing_client_id="+itoa(clientID), "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).NotTo(ContainSubstring("suggested_user_id"))
	})

	It("should require both suggestion parameters", func() {
		w := do(http.MethodGet, "/suggestions?module_id=1", "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should reject a second active assignment with 409", func() {
		d := createDossier("DOS-2026-0001")
		path := "/dossiers/" + itoa(d.ID) + "/assignments"
		body := `{"module_id":` + itoa(moduleID) + `,"user_id":` + itoa(nadia) + `}`
		Expect(do(http.MethodPost, path, body).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodPost, path, body)

		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("ASSIGNMENT_ALREADY_ACTIVE"))
	})

	It("should return 404 when replacing a module without an active assignment", func() {
		d := createDossier("DOS-2026-0001")

		w := do(http.MethodPatch, "/dossiers/"+itoa(d.ID)+"/assignments/"+itoa(moduleID), `{"user_id":`+itoa(sari)+`}`)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should validate the create payload", func() {
		w := do(http.MethodPost, "/dossiers", `{"reference":"","billing_client_id":0}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodPost, "/dossiers", `{"reference":"DOS-1","billing_client_id":999}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should list dossiers with paging", func() {
		createDossier("DOS-2026-0001")
		createDossier("DOS-2026-0002")

		w := do(http.MethodGet, "/dossiers?limit=1", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp dossier.DossiersResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Dossiers).To(HaveLen(1))
		Expect(resp.Limit).To(Equal(1))
	})

	It("should return 404 for an unknown dossier", func() {
		w := do(http.MethodGet, "/dossiers/999", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
