package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"

	cfg "github.com/les-detritivores/clic-compost/internal/config"
	"github.com/les-detritivores/clic-compost/internal/entity"
	"github.com/les-detritivores/clic-compost/internal/usecase"
)

var router = gin.New()

func storedSub() *entity.Subscription {
	return &entity.Subscription{
		ID:        1,
		Firstname: "Jean",
		Lastname:  "Dupont",
		Company:   "Acme",
		Email:     strfmt.Email("jean@acme.fr"),
		Phone:     "0600000000",
		Location:  "1 rue Test, Bordeaux",
		Meals:     20,
		Service:   "Standard",
		StartedAt: time.Date(2030, 6, 13, 0, 0, 0, 0, time.UTC),
		Customer:  "cus_test",
		Card:      "pm_card",
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

type stubSubRepo struct{}

func (stubSubRepo) SaveSub(_ context.Context, s *entity.Subscription) (*entity.Subscription, error) {
	created := *s
	created.ID = 1
	return &created, nil
}

func (stubSubRepo) UpdateSub(_ context.Context, s *entity.Subscription) error {
	if s.ID != 1 {
		return usecase.ErrSubscriptionNotFound
	}
	return nil
}

func (stubSubRepo) DeleteSub(_ context.Context, id int64) error {
	if id != 1 {
		return usecase.ErrSubscriptionNotFound
	}
	return nil
}

func (stubSubRepo) GetSubByID(_ context.Context, id int64) (*entity.Subscription, error) {
	if id != 1 {
		return nil, usecase.ErrSubscriptionNotFound
	}
	return storedSub(), nil
}

func (stubSubRepo) ListSubs(_ context.Context) ([]*entity.Subscription, error) {
	return []*entity.Subscription{storedSub()}, nil
}

type stubPayments struct{}

func (stubPayments) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	return "cus_test", nil
}

func (stubPayments) SetupSecret(_ context.Context, _ string) (string, error) {
	return "seti_test_secret_x", nil
}

func (stubPayments) ConfirmCardSetup(_ context.Context, _ string, _ usecase.CardDetails, _ usecase.BillingDetails) (string, error) {
	return "pm_card", nil
}

func (stubPayments) ConfirmSepaSetup(_ context.Context, _, _ string, _ usecase.BillingDetails) (string, error) {
	return "pm_sepa", nil
}

type stubNotify struct{}

func (stubNotify) SendSubscriptionEmail(_ context.Context, _ *entity.Subscription) (string, error) {
	return "msg_test", nil
}

func (stubNotify) SendSMS(_ context.Context, _, _ string) (string, error) {
	return "sms_test", nil
}

func init() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	subs := usecase.NewSubscription(stubSubRepo{})
	intake := usecase.NewIntake(subs, stubPayments{}, stubNotify{}, nil, log, false)

	router = SetupGin(cfg.Config{Env: "local", Signup: cfg.SignupConfig{StartDelayDays: 6}}, UseCases{
		Sub:      subs,
		Intake:   intake,
		Payments: stubPayments{},
		Notify:   stubNotify{},
	}, log)
}

// All unknown paths return http.StatusNotFound.
func TestUnknownRoute(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{http.MethodGet, http.MethodGet, http.StatusNotFound},
		{http.MethodPost, http.MethodPost, http.StatusNotFound},
		{http.MethodPut, http.MethodPut, http.StatusNotFound},
		{http.MethodDelete, http.MethodDelete, http.StatusNotFound},
		{http.MethodPatch, http.MethodPatch, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tt.input, "/unknown", nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

// /api/v1/subscriptions
func TestSubscriptionsRoutes(t *testing.T) {
	base := "/api/v1/subscriptions"

	t.Run("GET_subscriptions", func(t *testing.T) {
		t.Run("success_200", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, base, nil)
			req.Header.Add("Accept", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, json.Valid(w.Body.Bytes()))
		})

		t.Run("requested_unsupported_body_format_406", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, base, nil)
			req.Header.Add("Accept", "application/xml")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotAcceptable, w.Code)
		})
	})

	t.Run("POST_subscriptions", func(t *testing.T) {
		t.Run("valid_request_201", func(t *testing.T) {
			body := `{
				"firstname": "Jean",
				"lastname": "Dupont",
				"company": "Acme",
				"email": "jean@acme.fr",
				"phone": "0600000000",
				"location": "1 rue Test, Bordeaux",
				"meals": 20,
				"service": "Standard",
				"startedAt": "2030-06-13"
			}`
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString(body))
			req.Header.Add("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusCreated, w.Code)
			assert.True(t, json.Valid(w.Body.Bytes()))
		})

		t.Run("request_body_has_syntax_error_400", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString("{ bad json }"))
			req.Header.Add("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})

		t.Run("request_body_has_unsupported_format_415", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString("<xml></xml>"))
			req.Header.Add("Content-Type", "application/xml")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		})

		t.Run("weekend_start_date_422", func(t *testing.T) {
			body := `{
				"firstname": "Jean",
				"lastname": "Dupont",
				"company": "Acme",
				"email": "jean@acme.fr",
				"location": "1 rue Test, Bordeaux",
				"meals": 20,
				"service": "Standard",
				"startedAt": "2030-06-15"
			}`
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString(body))
			req.Header.Add("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	})

	t.Run("OPTIONS_subscriptions_204", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodOptions, base, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		allowed := strings.Split(w.Header().Get("Allow"), ",")
		assert.Contains(t, allowed, http.MethodOptions)
		assert.Contains(t, allowed, http.MethodGet)
		assert.Contains(t, allowed, http.MethodPost)
	})
}

// /api/v1/subscriptions/{id}
func TestSubscriptionsByIDRoutes(t *testing.T) {
	base := "/api/v1/subscriptions"

	t.Run("GET_subscriptions_id", func(t *testing.T) {
		t.Run("exists_200", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, base+"/1", nil)
			req.Header.Add("Accept", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)

			var resp subscriptionResponse
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, int64(1), resp.ID)
			assert.Equal(t, "2030-06-13", resp.StartedAt)
			assert.Equal(t, "pm_card", resp.Card)
		})

		t.Run("id_has_invalid_format_422", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, base+"/abc", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})

		t.Run("not_found_404", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, base+"/999999", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	})

	t.Run("PUT_subscriptions_id", func(t *testing.T) {
		validBody := `{
			"firstname": "Jean",
			"lastname": "Dupont",
			"company": "Acme",
			"email": "jean@acme.fr",
			"location": "1 rue Test, Bordeaux",
			"meals": 30,
			"service": "Standard",
			"startedAt": "2030-06-13"
		}`

		t.Run("valid_request_200", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPut, base+"/1", bytes.NewBufferString(validBody))
			req.Header.Add("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, json.Valid(w.Body.Bytes()))
		})

		t.Run("invalid_json_400", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPut, base+"/1", bytes.NewBufferString("{ bad json }"))
			req.Header.Add("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})

		t.Run("not_found_404", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPut, base+"/999999", bytes.NewBufferString(validBody))
			req.Header.Add("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	})

	t.Run("DELETE_subscriptions_id", func(t *testing.T) {
		t.Run("exists_200", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodDelete, base+"/1", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
		})

		t.Run("not_found_404", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodDelete, base+"/999999", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	})

	t.Run("OPTIONS_subscriptions_id_204", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodOptions, base+"/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		allowed := strings.Split(w.Header().Get("Allow"), ",")
		assert.Contains(t, allowed, http.MethodPut)
		assert.Contains(t, allowed, http.MethodDelete)
	})
}

// /api/v1/signup
func TestSignupRoute(t *testing.T) {
	base := "/api/v1/signup"

	signupBody := func(card, iban, startedAt string) string {
		return fmt.Sprintf(`{
			"firstname": "Jean",
			"lastname": "Dupont",
			"company": "Acme",
			"email": "jean@acme.fr",
			"phone": "0600000000",
			"location": "1 rue Test, Bordeaux",
			"meals": 15,
			"service": "Standard",
			"startedAt": %q,
			"card": %s,
			"iban": %q
		}`, startedAt, card, iban)
	}
	card := `{"number":"4242424242424242","expMonth":4,"expYear":2030,"cvc":"314"}`

	t.Run("card_submission_201", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString(signupBody(card, "", "")))
		req.Header.Add("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp signupResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.Subscription.ID)
		assert.Equal(t, "cus_test", resp.Subscription.Customer)
		assert.Equal(t, "pm_card", resp.Subscription.Card)
		assert.Equal(t, "/confirm", resp.RedirectTo)

		steps := make([]string, 0, len(resp.Events))
		for _, e := range resp.Events {
			steps = append(steps, e.Step)
		}
		assert.Equal(t, []string{"customer", "card", "subscription", "email"}, steps)
	})

	t.Run("iban_submission_201", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString(signupBody("null", "FR1420041010050500013M02606", "")))
		req.Header.Add("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp signupResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "pm_sepa", resp.Subscription.Iban)
		assert.Empty(t, resp.Subscription.Card)
	})

	t.Run("no_payment_method_422", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString(signupBody("null", "", "")))
		req.Header.Add("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("start_date_before_lead_time_422", func(t *testing.T) {
		tooSoon := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString(signupBody(card, "", tooSoon)))
		req.Header.Add("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("invalid_json_400", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, base, bytes.NewBufferString("{ bad json }"))
		req.Header.Add("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// /api/v1/customers and /api/v1/sms helpers used by the signup client.
func TestProviderRoutes(t *testing.T) {
	t.Run("POST_customers_201", func(t *testing.T) {
		body := `{"description": "Jean DUPONT", "email": "jean@acme.fr"}`
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/customers", bytes.NewBufferString(body))
		req.Header.Add("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "cus_test")
	})

	t.Run("GET_customers_secret_200", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/customers/cus_test/secret", nil)
		req.Header.Add("Accept", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "seti_test_secret_x")
	})

	t.Run("POST_subscription_email_200", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/subscriptions/1/email", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "msg_test")
	})

	t.Run("POST_subscription_email_not_found_404", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/subscriptions/999999/email", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("POST_sms_200", func(t *testing.T) {
		body := `{"text": "Abonnement prêt", "to": "+33600000000"}`
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sms", bytes.NewBufferString(body))
		req.Header.Add("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "sms_test")
	})
}

// /ping
func TestPing(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}
